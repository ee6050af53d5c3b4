package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/config"
	"quiz-studio/internal/logging"
	transport "quiz-studio/internal/transport/http"

	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if cfg.Postgres.URL != "" && cfg.Supabase.URL == "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	services := transport.Services{
		Quiz:      app.NewQuizService(b.sessions, b.questions, log),
		Authoring: app.NewAuthoringService(b.questions, log),
		Admin:     app.NewAdminService(b.questions, log),
		Identity:  app.NewIdentityService(b.identities),
	}
	router := transport.NewRouter(services, transport.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		FeedbackDelay:  config.TTLDuration(cfg.Quiz.FeedbackDelay, transport.DefaultFeedbackDelay),
		Logger:         log,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Websocket play sessions outlive any fixed write timeout.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("starting quiz server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
