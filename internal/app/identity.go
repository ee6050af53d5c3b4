package app

import (
	"context"
	"fmt"
	"strings"

	"quiz-studio/internal/domain"
)

// AuthorNameKey is the fixed lookup key of the stored display name.
const AuthorNameKey = "quiz_author_name"

// IdentityStore persists one display name per client.
type IdentityStore interface {
	// Get returns the stored name, or ok=false when none has been set.
	Get(ctx context.Context, clientID string) (name string, ok bool, err error)
	Save(ctx context.Context, clientID, name string) error
	Clear(ctx context.Context, clientID string) error
}

// IdentityService gates authoring and admin actions on a stored display name.
type IdentityService struct {
	store IdentityStore
}

func NewIdentityService(store IdentityStore) *IdentityService {
	return &IdentityService{store: store}
}

// Get returns the client's author identity, if any.
func (s *IdentityService) Get(ctx context.Context, clientID string) (domain.Author, bool, error) {
	name, ok, err := s.store.Get(ctx, clientID)
	if err != nil || !ok {
		return domain.Author{}, false, err
	}
	return domain.Author{Name: name}, true, nil
}

// Require returns ErrIdentityRequired when the client has no display name.
func (s *IdentityService) Require(ctx context.Context, clientID string) (domain.Author, error) {
	author, ok, err := s.Get(ctx, clientID)
	if err != nil {
		return domain.Author{}, err
	}
	if !ok {
		return domain.Author{}, domain.ErrIdentityRequired
	}
	return author, nil
}

// Save stores name, trimmed, as the client's display name.
func (s *IdentityService) Save(ctx context.Context, clientID, name string) (domain.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Author{}, fmt.Errorf("%w: display name is empty", domain.ErrValidationFailed)
	}
	if err := s.store.Save(ctx, clientID, name); err != nil {
		return domain.Author{}, err
	}
	return domain.Author{Name: name}, nil
}

// Clear forgets the client's display name.
func (s *IdentityService) Clear(ctx context.Context, clientID string) error {
	return s.store.Clear(ctx, clientID)
}
