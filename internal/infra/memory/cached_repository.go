package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"

	"golang.org/x/sync/singleflight"
)

const listKey = "\x00list"

// CachedRepository caches question reads with TTL to avoid repeated backend
// hits. Random samples are never cached. Writes go straight to the backend and
// invalidate the cache. Every invalidation bumps a generation counter; a load
// that started before the bump returns its result but does not cache it.
type CachedRepository struct {
	next  app.QuestionRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu      sync.RWMutex
	list    *cachedList
	cache   map[string]cachedQuestion
	gens    map[string]uint64
	listGen uint64
}

type cachedQuestion struct {
	question  domain.Question
	expiresAt time.Time
}

type cachedList struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedRepository(next app.QuestionRepository, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuestion),
		gens:  make(map[string]uint64),
	}
}

func (r *CachedRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := r.lookup(id); ok {
		return q, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := r.lookup(id); ok {
			return q, nil
		}
		gen := r.generation(id)
		q, err := r.next.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		if r.gens[id] == gen {
			r.cache[id] = cachedQuestion{question: q, expiresAt: expiresAt}
		}
		r.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (r *CachedRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := r.lookupList(); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(listKey, func() (interface{}, error) {
		if qs, ok := r.lookupList(); ok {
			return qs, nil
		}
		r.mu.RLock()
		gen := r.listGen
		r.mu.RUnlock()
		qs, err := r.next.ListQuestions(ctx)
		if err != nil {
			return nil, err
		}
		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		if r.listGen == gen {
			r.list = &cachedList{questions: qs, expiresAt: expiresAt}
		}
		r.mu.Unlock()
		return append([]domain.Question(nil), qs...), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *CachedRepository) RandomQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	return r.next.RandomQuestions(ctx, limit)
}

func (r *CachedRepository) InsertQuestion(ctx context.Context, payload domain.QuestionPayload) (string, error) {
	id, err := r.next.InsertQuestion(ctx, payload)
	r.invalidate("")
	return id, err
}

func (r *CachedRepository) UpdateQuestion(ctx context.Context, id string, payload domain.QuestionPayload) error {
	err := r.next.UpdateQuestion(ctx, id, payload)
	r.invalidate(id)
	return err
}

func (r *CachedRepository) DeleteQuestion(ctx context.Context, id string) error {
	err := r.next.DeleteQuestion(ctx, id)
	r.invalidate(id)
	return err
}

func (r *CachedRepository) lookup(id string) (domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Question{}, false
	}
	return entry.question, true
}

func (r *CachedRepository) lookupList() ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.list == nil || !r.list.expiresAt.After(r.clock()) {
		return nil, false
	}
	return append([]domain.Question(nil), r.list.questions...), true
}

func (r *CachedRepository) generation(id string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gens[id]
}

// invalidate drops cached entries and detaches in-flight loads so later reads
// go to the backend instead of joining a load that may return the old row.
func (r *CachedRepository) invalidate(id string) {
	r.mu.Lock()
	r.list = nil
	r.listGen++
	if id != "" {
		delete(r.cache, id)
		r.gens[id]++
	}
	r.mu.Unlock()

	r.sf.Forget(listKey)
	if id != "" {
		r.sf.Forget(id)
	}
}

func (r *CachedRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
