package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches single questions in Redis and falls back to the
// wrapped repository on a miss. Questions are stored as JSON:
//
//	SET quiz:question:{id} {json} EX ttl
//
// Lists and random samples always go to the wrapped repository. Writes delete
// the entry and INCR quiz:question:{id}:gen; a load only fills the cache if
// the generation it read before loading is still current.
type QuestionCache struct {
	app.QuestionRepository
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, next app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		QuestionRepository: next,
		client:             client,
		ttl:                ttl,
		rnd:                rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	if q, ok := c.cached(ctx, id); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.cached(ctx, id); ok {
			return q, nil
		}
		gen, err := c.generation(ctx, c.client, id)
		if err != nil {
			return c.QuestionRepository.GetQuestion(ctx, id)
		}
		q, err := c.QuestionRepository.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		c.fill(ctx, id, gen, q)
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) UpdateQuestion(ctx context.Context, id string, payload domain.QuestionPayload) error {
	err := c.QuestionRepository.UpdateQuestion(ctx, id, payload)
	c.invalidate(ctx, id)
	return err
}

func (c *QuestionCache) DeleteQuestion(ctx context.Context, id string) error {
	err := c.QuestionRepository.DeleteQuestion(ctx, id)
	c.invalidate(ctx, id)
	return err
}

// fill caches q unless the entry was invalidated after gen was read.
func (c *QuestionCache) fill(ctx context.Context, id string, gen int64, q domain.Question) {
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	genKey := c.genKey(id)
	_ = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, id)
		if err != nil || current != gen {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(id), data, c.ttlWithJitter())
			return nil
		})
		return err
	}, genKey)
}

func (c *QuestionCache) invalidate(ctx context.Context, id string) {
	_, _ = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(id))
		pipe.Incr(ctx, c.genKey(id))
		return nil
	})
	c.sf.Forget(id)
}

func (c *QuestionCache) generation(ctx context.Context, g getter, id string) (int64, error) {
	gen, err := g.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *QuestionCache) cached(ctx context.Context, id string) (domain.Question, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

func (c *QuestionCache) key(id string) string {
	return "quiz:question:" + id
}

func (c *QuestionCache) genKey(id string) string {
	return c.key(id) + ":gen"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
