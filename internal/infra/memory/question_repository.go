package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiz-studio/internal/domain"

	"github.com/google/uuid"
)

// QuestionRepository is an in-memory question table (useful for tests/demos).
type QuestionRepository struct {
	clock func() time.Time
	newID func() string

	mu   sync.RWMutex
	rows map[string]domain.Question
	rnd  *rand.Rand
}

func NewQuestionRepository(seed ...domain.Question) *QuestionRepository {
	r := &QuestionRepository{
		clock: time.Now,
		newID: uuid.NewString,
		rows:  make(map[string]domain.Question),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, q := range seed {
		if q.ID == "" {
			q.ID = r.newID()
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = r.clock()
		}
		r.rows[q.ID] = q
	}
	return r
}

// Put stores q as-is, bypassing payload handling. Used to seed admin-only rows.
func (r *QuestionRepository) Put(q domain.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[q.ID] = q
}

func (r *QuestionRepository) ListQuestions(_ context.Context) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Question, 0, len(r.rows))
	for _, q := range r.rows {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *QuestionRepository) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.rows[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	return q, nil
}

func (r *QuestionRepository) InsertQuestion(_ context.Context, payload domain.QuestionPayload) (string, error) {
	q := domain.Question{ID: r.newID(), AuthorName: payload.AuthorName, CreatedAt: r.clock()}
	q.Apply(payload)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[q.ID] = q
	return q.ID, nil
}

func (r *QuestionRepository) UpdateQuestion(_ context.Context, id string, payload domain.QuestionPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	q.Apply(payload)
	r.rows[id] = q
	return nil
}

func (r *QuestionRepository) DeleteQuestion(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *QuestionRepository) RandomQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = domain.DefaultSampleSize
	}
	all, _ := r.ListQuestions(ctx)

	r.mu.Lock()
	r.rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	r.mu.Unlock()

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
