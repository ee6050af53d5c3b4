package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis implementation of app.SessionRepository.
// Each session is stored as a JSON snapshot under quiz:session:{id} and
// refreshed to the configured TTL on every write. Updates run inside
// WATCH/MULTI, so two racing answers for the same question cannot both apply.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session *app.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID()), data, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (*app.Session, error) {
	return s.load(ctx, s.client, id)
}

func (s *SessionStore) Update(ctx context.Context, id string, fn func(*app.Session) error) error {
	key := s.key(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		session, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrSessionConflict
	}
	return err
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) load(ctx context.Context, c getter, id string) (*app.Session, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session := app.NewSession(id)
	if err := json.Unmarshal(data, session); err != nil {
		return nil, err
	}
	return session, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
