package redis

import (
	"context"
	"errors"
	"time"

	"quiz-studio/internal/app"

	"github.com/redis/go-redis/v9"
)

// IdentityStore keeps one display name per client under
// quiz_author_name:{clientID}. A zero TTL keeps names until cleared.
type IdentityStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdentityStore(client *redis.Client, ttl time.Duration) *IdentityStore {
	return &IdentityStore{client: client, ttl: ttl}
}

func (s *IdentityStore) Get(ctx context.Context, clientID string) (string, bool, error) {
	name, err := s.client.Get(ctx, s.key(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *IdentityStore) Save(ctx context.Context, clientID, name string) error {
	return s.client.Set(ctx, s.key(clientID), name, s.ttl).Err()
}

func (s *IdentityStore) Clear(ctx context.Context, clientID string) error {
	return s.client.Del(ctx, s.key(clientID)).Err()
}

func (s *IdentityStore) key(clientID string) string {
	return app.AuthorNameKey + ":" + clientID
}
