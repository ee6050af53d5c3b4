package memory

import (
	"context"
	"sync"
)

// IdentityStore keeps display names in process memory, keyed by client id.
type IdentityStore struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{names: make(map[string]string)}
}

func (s *IdentityStore) Get(_ context.Context, clientID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[clientID]
	return name, ok, nil
}

func (s *IdentityStore) Save(_ context.Context, clientID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[clientID] = name
	return nil
}

func (s *IdentityStore) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, clientID)
	return nil
}
