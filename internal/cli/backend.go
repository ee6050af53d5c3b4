package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/config"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/infra/memory"
	"quiz-studio/internal/infra/postgres"
	redisstore "quiz-studio/internal/infra/redis"
	"quiz-studio/internal/infra/supabase"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// adminSeeder is implemented by stores that can hold protected starter questions.
type adminSeeder interface {
	InsertAdminOnly(ctx context.Context, p domain.QuestionPayload) (string, error)
}

// backend holds the adapters selected by configuration.
type backend struct {
	store      app.QuestionRepository
	questions  app.QuestionRepository
	sessions   app.SessionRepository
	identities app.IdentityStore
	closers    []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openQuestionStore picks the hosted backend, then Postgres, then memory.
func openQuestionStore(ctx context.Context, cfg config.Config, log *slog.Logger) (app.QuestionRepository, func(), error) {
	switch {
	case cfg.Supabase.URL != "":
		repo, err := supabase.NewQuestionRepository(cfg.Supabase.URL, cfg.Supabase.Key, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("using hosted question store", "url", cfg.Supabase.URL)
		return repo, func() {}, nil
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("using postgres question store")
		return postgres.NewQuestionRepository(pool), pool.Close, nil
	default:
		log.Warn("no question store configured, using in-memory starter questions")
		return memory.NewQuestionRepository(starterQuestions(time.Now())...), func() {}, nil
	}
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (*backend, error) {
	store, closeStore, err := openQuestionStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	b := &backend{store: store, closers: []func(){closeStore}}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, time.Minute)
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	if cfg.Redis.Addr == "" {
		b.questions = memory.NewCachedRepository(store, cacheTTL)
		b.sessions = memory.NewSessionStore(sessionTTL)
		b.identities = memory.NewIdentityStore()
		return b, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		b.Close()
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	b.closers = append(b.closers, func() { _ = client.Close() })
	log.Info("using redis for sessions and identities", "addr", cfg.Redis.Addr)

	b.questions = redisstore.NewQuestionCache(client, store, cacheTTL)
	b.sessions = redisstore.NewSessionStore(client, sessionTTL)
	b.identities = redisstore.NewIdentityStore(client, config.TTLDuration(cfg.Quiz.IdentityTTL, 0))
	return b, nil
}

// starterPayloads are the protected questions every fresh deployment ships with.
func starterPayloads() []domain.QuestionPayload {
	return []domain.QuestionPayload{
		{
			Content:      "Which library handles client-side routing in this app?",
			Choices:      []string{"React Router", "Redux", "Axios", "Lodash"},
			CorrectIndex: 0,
			AuthorName:   "admin",
		},
		{
			Content:      "Where is the quiz front end deployed?",
			Choices:      []string{"Heroku", "GitHub Pages", "Netlify", "Vercel"},
			CorrectIndex: 1,
			AuthorName:   "admin",
		},
		{
			Content:      "Which React hook keeps local component state?",
			Choices:      []string{"useEffect", "useMemo", "useState", "useRef"},
			CorrectIndex: 2,
			AuthorName:   "admin",
		},
	}
}

func starterQuestions(now time.Time) []domain.Question {
	payloads := starterPayloads()
	out := make([]domain.Question, 0, len(payloads))
	for i, p := range payloads {
		q := domain.Question{AuthorName: p.AuthorName, IsAdminOnly: true, CreatedAt: now.Add(-time.Duration(len(payloads)-i) * time.Second)}
		q.Apply(p)
		out = append(out, q)
	}
	return out
}
