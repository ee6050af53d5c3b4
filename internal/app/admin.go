package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quiz-studio/internal/domain"
)

// AdminItem is one row of the admin list.
type AdminItem struct {
	domain.Question
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

// DeletePrompt asks the user to confirm deleting a question.
type DeletePrompt struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// AdminBoard is the admin list of one client: the displayed questions and an
// optional pending delete confirmation.
type AdminBoard struct {
	repo QuestionRepository
	now  func() time.Time

	mu      sync.Mutex
	items   []domain.Question
	pending *DeletePrompt
}

func NewAdminBoard(repo QuestionRepository) *AdminBoard {
	return &AdminBoard{repo: repo, now: time.Now}
}

// Load replaces the displayed list with every stored question, newest first.
func (b *AdminBoard) Load(ctx context.Context) error {
	rows, err := b.repo.ListQuestions(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = rows
	b.pending = nil
	return nil
}

// Items returns the displayed list with the edit/delete affordances resolved.
func (b *AdminBoard) Items() []AdminItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]AdminItem, 0, len(b.items))
	for _, q := range b.items {
		out = append(out, AdminItem{Question: q, CanEdit: !q.IsAdminOnly, CanDelete: !q.IsAdminOnly})
	}
	return out
}

// Questions returns a copy of the displayed questions.
func (b *AdminBoard) Questions() []domain.Question {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Question(nil), b.items...)
}

// Pending returns the open delete prompt, if any.
func (b *AdminBoard) Pending() (DeletePrompt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return DeletePrompt{}, false
	}
	return *b.pending, true
}

// RequestDelete opens the confirmation prompt for id. Nothing is deleted yet.
func (b *AdminBoard) RequestDelete(id string) (DeletePrompt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range b.items {
		if q.ID != id {
			continue
		}
		if q.IsAdminOnly {
			return DeletePrompt{}, domain.ErrAdminOnly
		}
		b.pending = &DeletePrompt{ID: q.ID, Content: q.Content}
		return *b.pending, nil
	}
	return DeletePrompt{}, domain.ErrNotFound
}

// CancelDelete dismisses the prompt.
func (b *AdminBoard) CancelDelete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = nil
}

// ConfirmDelete deletes the question named by the open prompt. On success the
// question is dropped from the displayed list without reloading it; on
// failure the list is left unchanged. The prompt is dismissed either way.
func (b *AdminBoard) ConfirmDelete(ctx context.Context) (domain.Notice, error) {
	b.mu.Lock()
	prompt := b.pending
	b.pending = nil
	b.mu.Unlock()
	if prompt == nil {
		return domain.Notice{}, domain.ErrNoPendingDelete
	}

	if err := b.repo.DeleteQuestion(ctx, prompt.ID); err != nil {
		return domain.NewNotice(domain.NoticeFailure, "Failed to delete the question", b.now()),
			fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	b.mu.Lock()
	kept := b.items[:0:0]
	for _, q := range b.items {
		if q.ID != prompt.ID {
			kept = append(kept, q)
		}
	}
	b.items = kept
	b.mu.Unlock()
	return domain.NewNotice(domain.NoticeSuccess, "Question deleted", b.now()), nil
}

// AdminBoardIdleTTL is how long a client's board is kept without use.
const AdminBoardIdleTTL = 30 * time.Minute

// AdminService keeps one admin board per client. Boards idle for longer
// than AdminBoardIdleTTL are dropped and rebuilt on the next visit.
type AdminService struct {
	repo  QuestionRepository
	log   *slog.Logger
	clock func() time.Time

	mu        sync.Mutex
	boards    map[string]*boardEntry
	lastSweep time.Time
}

type boardEntry struct {
	board    *AdminBoard
	lastUsed time.Time
}

func NewAdminService(repo QuestionRepository, log *slog.Logger) *AdminService {
	return NewAdminServiceWithClock(repo, log, time.Now)
}

// NewAdminServiceWithClock is test-only for deterministic board eviction.
func NewAdminServiceWithClock(repo QuestionRepository, log *slog.Logger, now func() time.Time) *AdminService {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &AdminService{repo: repo, log: log, clock: now, boards: make(map[string]*boardEntry)}
}

// Load (re)loads the client's board.
func (s *AdminService) Load(ctx context.Context, clientID string) (*AdminBoard, error) {
	board, _ := s.board(clientID)
	if err := board.Load(ctx); err != nil {
		s.log.WarnContext(ctx, "load admin list failed", "error", err)
		return nil, err
	}
	return board, nil
}

// Board returns the client's board, loading it on first use.
func (s *AdminService) Board(ctx context.Context, clientID string) (*AdminBoard, error) {
	board, existed := s.board(clientID)
	if existed {
		return board, nil
	}
	if err := board.Load(ctx); err != nil {
		s.log.WarnContext(ctx, "load admin list failed", "error", err)
		return nil, err
	}
	return board, nil
}

// ConfirmDelete confirms the client's pending delete and logs the outcome.
func (s *AdminService) ConfirmDelete(ctx context.Context, clientID string, author domain.Author) (domain.Notice, error) {
	board, err := s.Board(ctx, clientID)
	if err != nil {
		return domain.Notice{}, err
	}
	prompt, _ := board.Pending()
	notice, err := board.ConfirmDelete(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "delete question failed", "id", prompt.ID, "author", author.Name, "error", err)
		return notice, err
	}
	s.log.InfoContext(ctx, "question deleted", "id", prompt.ID, "author", author.Name)
	return notice, nil
}

// Boards reports how many client boards are held.
func (s *AdminService) Boards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}

// board returns the client's board and whether it was already held,
// touching it and sweeping idle boards at most once per idle TTL.
func (s *AdminService) board(clientID string) (*AdminBoard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if now.Sub(s.lastSweep) >= AdminBoardIdleTTL {
		s.lastSweep = now
		for id, entry := range s.boards {
			if now.Sub(entry.lastUsed) >= AdminBoardIdleTTL {
				delete(s.boards, id)
			}
		}
	}
	entry, ok := s.boards[clientID]
	if ok && now.Sub(entry.lastUsed) >= AdminBoardIdleTTL {
		ok = false
	}
	if !ok {
		entry = &boardEntry{board: NewAdminBoard(s.repo)}
		s.boards[clientID] = entry
	}
	entry.lastUsed = now
	return entry.board, ok
}
