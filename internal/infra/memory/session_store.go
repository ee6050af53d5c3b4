package memory

import (
	"context"
	"sync"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions idle for longer than the TTL are treated as gone and swept
// on the next Create.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]sessionEntry
	ttl       time.Duration
	clock     func() time.Time
	lastSweep time.Time
}

type sessionEntry struct {
	session   *app.Session
	expiresAt time.Time
}

// NewSessionStore builds a store whose sessions expire ttl after their
// last write. A ttl of zero or less keeps sessions until deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	if clock == nil {
		clock = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]sessionEntry),
		ttl:      ttl,
		clock:    clock,
	}
}

func (s *SessionStore) Create(_ context.Context, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	s.sweepLocked(now)
	s.sessions[session.ID()] = sessionEntry{session: session, expiresAt: s.deadline(now)}
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*app.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok || s.expired(entry, s.clock()) {
		return nil, domain.ErrSessionNotFound
	}
	return entry.session, nil
}

// Update runs fn on the stored session and pushes its expiry forward.
// Sessions serialize their own transitions, so the map lock is only held
// for the lookup and the refresh.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(*app.Session) error) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	s.mu.Lock()
	if entry, ok := s.sessions[id]; ok && entry.session == session {
		entry.expiresAt = s.deadline(s.clock())
		s.sessions[id] = entry
	}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok || s.expired(entry, s.clock()) {
		delete(s.sessions, id)
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len reports how many sessions are held, expired ones included until swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) deadline(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (s *SessionStore) expired(entry sessionEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && !entry.expiresAt.After(now)
}

// sweepLocked drops expired sessions at most once per TTL.
func (s *SessionStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
		}
	}
}
