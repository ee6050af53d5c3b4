package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/infra/memory"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	backend := &countingRepository{QuestionRepository: memory.NewQuestionRepository(sampleQuestions()...)}
	cache := NewQuestionCache(client, backend, time.Minute)

	q, err := cache.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.Content != "What is 2 + 2?" {
		t.Fatalf("unexpected question %+v", q)
	}
	if !mr.Exists("quiz:question:q1") {
		t.Fatalf("expected cached key")
	}

	// Second call should hit cache, backend not incremented.
	_, _ = cache.GetQuestion(ctx, "q1")
	if backend.gets != 1 {
		t.Fatalf("expected cache hit, backend gets=%d", backend.gets)
	}

	if err := cache.DeleteQuestion(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("quiz:question:q1") {
		t.Fatalf("expected cache entry dropped on delete")
	}
}

func TestQuestionCacheSkipsLoadStartedBeforeUpdate(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	backend := &blockingRepository{
		QuestionRepository: memory.NewQuestionRepository(sampleQuestions()...),
		started:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	cache := NewQuestionCache(client, backend, time.Minute)

	loaded := make(chan domain.Question, 1)
	go func() {
		q, _ := cache.GetQuestion(ctx, "q1")
		loaded <- q
	}()
	<-backend.started

	err := cache.UpdateQuestion(ctx, "q1", domain.QuestionPayload{Content: "What is 5 + 5?", Choices: []string{"10", "11"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	close(backend.release)
	if q := <-loaded; q.Content != "What is 2 + 2?" {
		t.Fatalf("expected the in-flight load to see the old row, got %q", q.Content)
	}
	if mr.Exists("quiz:question:q1") {
		t.Fatalf("row loaded before the update must not be cached")
	}

	got, err := cache.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Content != "What is 5 + 5?" {
		t.Fatalf("expected updated row, got %q", got.Content)
	}
	if !mr.Exists("quiz:question:q1") {
		t.Fatalf("expected the fresh row cached")
	}
}

func TestQuestionCacheSkipsLoadStartedBeforeDelete(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	backend := &blockingRepository{
		QuestionRepository: memory.NewQuestionRepository(sampleQuestions()...),
		started:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	cache := NewQuestionCache(client, backend, time.Minute)

	done := make(chan struct{})
	go func() {
		_, _ = cache.GetQuestion(ctx, "q1")
		close(done)
	}()
	<-backend.started

	if err := cache.DeleteQuestion(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(backend.release)
	<-done

	if _, err := cache.GetQuestion(ctx, "q1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted question gone, got %v", err)
	}
}

// blockingRepository holds its first GetQuestion after reading the row until
// release is closed.
type blockingRepository struct {
	app.QuestionRepository
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (r *blockingRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	q, err := r.QuestionRepository.GetQuestion(ctx, id)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.started)
		<-r.release
	}
	return q, err
}

type countingRepository struct {
	app.QuestionRepository
	gets int
}

func (r *countingRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	r.gets++
	return r.QuestionRepository.GetQuestion(ctx, id)
}
