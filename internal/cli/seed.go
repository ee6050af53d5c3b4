package cli

import (
	"context"
	"fmt"
	"os"

	"quiz-studio/internal/config"
	"quiz-studio/internal/logging"

	"github.com/spf13/cobra"
)

// NewSeedCmd inserts the protected starter questions.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin-only starter questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if cfg.Supabase.URL == "" && cfg.Postgres.URL == "" {
		return fmt.Errorf("seed needs a hosted or postgres question store")
	}

	store, closeStore, err := openQuestionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	seeder, ok := store.(adminSeeder)
	if !ok {
		return fmt.Errorf("question store %T cannot hold admin-only questions", store)
	}
	for _, p := range starterPayloads() {
		id, err := seeder.InsertAdminOnly(ctx, p)
		if err != nil {
			return fmt.Errorf("seed %q: %w", p.Content, err)
		}
		log.Info("seeded starter question", "id", id, "content", p.Content)
	}
	return nil
}
