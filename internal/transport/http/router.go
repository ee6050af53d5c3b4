package http

import (
	"log/slog"
	"net/http"
	"time"

	"quiz-studio/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Services bundles the use cases the HTTP layer exposes.
type Services struct {
	Quiz      *app.QuizService
	Authoring *app.AuthoringService
	Admin     *app.AdminService
	Identity  *app.IdentityService
}

type Options struct {
	AllowedOrigins []string
	FeedbackDelay  time.Duration
	Logger         *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(svc Services, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", clientHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(withClientID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	identity := &identityHandler{svc: svc.Identity}
	play := &playHandler{svc: svc.Quiz}
	ws := NewWSHandler(svc.Quiz, opts.FeedbackDelay, log)
	questions := &questionHandler{svc: svc.Authoring}
	admin := &adminHandler{svc: svc.Admin}

	r.Route("/api/identity", func(r chi.Router) {
		r.Get("/", identity.get)
		r.Put("/", identity.save)
		r.Delete("/", identity.clear)
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", play.start)
		r.Get("/{id}", play.get)
		r.Post("/{id}/answers", play.answer)
		r.Get("/{id}/result", play.result)
	})
	r.Get("/ws/play", ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(requireAuthor(svc.Identity))

		r.Get("/api/questions/new", questions.blank)
		r.Get("/api/questions/{id}", questions.open)
		r.Post("/api/questions", questions.create)
		r.Put("/api/questions/{id}", questions.update)

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/questions", admin.list)
			r.Post("/questions/{id}/delete", admin.requestDelete)
			r.Post("/delete/confirm", admin.confirmDelete)
			r.Post("/delete/cancel", admin.cancelDelete)
			r.Get("/export", admin.export)
		})
	})

	return r
}
