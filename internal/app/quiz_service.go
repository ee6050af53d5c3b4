package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"quiz-studio/internal/domain"

	"github.com/google/uuid"
)

// QuestionRepository abstracts the question store (hosted backend, Postgres, in-memory).
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	InsertQuestion(ctx context.Context, payload domain.QuestionPayload) (string, error)
	UpdateQuestion(ctx context.Context, id string, payload domain.QuestionPayload) error
	DeleteQuestion(ctx context.Context, id string) error
	// RandomQuestions returns at most limit questions in random order; limit <= 0 uses DefaultSampleSize.
	RandomQuestions(ctx context.Context, limit int) ([]domain.Question, error)
}

// SessionRepository abstracts how live quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the stored session and persists the result.
	Update(ctx context.Context, id string, fn func(*Session) error) error
	Delete(ctx context.Context, id string) error
}

// QuizService contains the play use cases.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	log       *slog.Logger
	newID     func() string
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, log *slog.Logger) *QuizService {
	if log == nil {
		log = slog.Default()
	}
	return &QuizService{
		sessions:  sessions,
		questions: questions,
		log:       log,
		newID:     uuid.NewString,
	}
}

// Start samples up to limit questions and opens a session over them. The
// returned session is Active, or Empty when nothing could be played.
func (s *QuizService) Start(ctx context.Context, limit int) (*Session, error) {
	session := NewSession(s.newID())

	rows, err := s.questions.RandomQuestions(ctx, limit)
	if err != nil {
		session.LoadFailed()
		s.log.WarnContext(ctx, "load questions failed", "session", session.ID(), "error", err)
		return session, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	valid, rejected := domain.Sanitize(rows)
	for _, reason := range rejected {
		s.log.WarnContext(ctx, "skipping malformed question", "reason", reason)
	}
	session.Load(valid)
	if session.State() == domain.StateEmpty {
		return session, nil
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "session started", "session", session.ID(), "questions", session.Total())
	return session, nil
}

// Get returns a live session.
func (s *QuizService) Get(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Get(ctx, id)
}

// SubmitAnswer records an answer for the question at questionIndex.
func (s *QuizService) SubmitAnswer(ctx context.Context, id string, questionIndex, chosenIndex int) (domain.Feedback, error) {
	var feedback domain.Feedback
	err := s.sessions.Update(ctx, id, func(session *Session) error {
		fb, err := session.SubmitAnswer(questionIndex, chosenIndex)
		if err != nil {
			return err
		}
		feedback = fb
		return nil
	})
	if err != nil {
		return domain.Feedback{}, err
	}
	if feedback.State == domain.StateFinished {
		s.log.InfoContext(ctx, "session finished", "session", id, "score", feedback.Score, "maxCombo", feedback.MaxCombo)
	}
	return feedback, nil
}

// Finish hands the summary of a finished session to the result view and
// discards the session.
func (s *QuizService) Finish(ctx context.Context, id string) (ResultView, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return ResultView{}, err
	}
	summary, err := session.Summary()
	if err != nil {
		return ResultView{}, err
	}
	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.log.WarnContext(ctx, "discard session failed", "session", id, "error", err)
	}
	return NewResultView(summary), nil
}

// Discard drops a session without producing a result.
func (s *QuizService) Discard(ctx context.Context, id string) {
	if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.log.WarnContext(ctx, "discard session failed", "session", id, "error", err)
	}
}
