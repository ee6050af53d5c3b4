package app

import (
	"encoding/json"
	"sync"
	"time"

	"quiz-studio/internal/domain"
)

// Session is one playthrough of an ordered question list.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu           sync.RWMutex
	state        domain.SessionState
	questions    []domain.Question
	currentIndex int
	score        int
	combo        int
	maxCombo     int
	history      []domain.AnswerRecord
	summary      *domain.SessionSummary
}

// NewSession returns a session in the loading state.
func NewSession(id string) *Session {
	return newSessionWithClock(id, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return newSessionWithClock(id, now)
}

func newSessionWithClock(id string, now func() time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now(),
		now:       now,
		state:     domain.StateLoading,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Load fixes the question list. An empty list moves the session to Empty.
func (s *Session) Load(questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateLoading {
		return
	}
	if len(questions) == 0 {
		s.state = domain.StateEmpty
		return
	}
	s.questions = append([]domain.Question(nil), questions...)
	s.state = domain.StateActive
}

// LoadFailed moves a loading session to Empty.
func (s *Session) LoadFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateLoading {
		s.state = domain.StateEmpty
	}
}

// CurrentQuestion returns the question waiting for an answer.
func (s *Session) CurrentQuestion() (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.state {
	case domain.StateEmpty:
		return domain.Question{}, domain.ErrSessionEmpty
	case domain.StateLoading:
		return domain.Question{}, domain.ErrSessionNotActive
	}
	if s.currentIndex >= len(s.questions) {
		return domain.Question{}, domain.ErrOutOfRange
	}
	return s.questions[s.currentIndex], nil
}

// CurrentIndex returns the 0-based index of the question waiting for an answer.
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// Total returns the number of questions in the session.
func (s *Session) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

// SubmitAnswer records the answer to question questionIndex, which must be the current one.
func (s *Session) SubmitAnswer(questionIndex, chosenIndex int) (domain.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateActive:
	case domain.StateEmpty:
		return domain.Feedback{}, domain.ErrSessionEmpty
	default:
		return domain.Feedback{}, domain.ErrSessionNotActive
	}
	if questionIndex != s.currentIndex {
		return domain.Feedback{}, domain.ErrAlreadyAnswered
	}
	q := s.questions[s.currentIndex]
	if chosenIndex < 0 || chosenIndex >= len(q.Choices) {
		return domain.Feedback{}, domain.ErrInvalidChoice
	}

	correct := chosenIndex == q.CorrectIndex
	if correct {
		s.score++
		s.combo++
	} else {
		s.combo = 0
	}
	if s.combo > s.maxCombo {
		s.maxCombo = s.combo
	}
	s.history = append(s.history, domain.AnswerRecord{
		QuestionText: q.Content,
		Choices:      append([]string(nil), q.Choices...),
		CorrectIndex: q.CorrectIndex,
		ChosenIndex:  chosenIndex,
		WasCorrect:   correct,
	})

	s.currentIndex++
	if s.currentIndex == len(s.questions) {
		s.state = domain.StateFinished
		s.summary = &domain.SessionSummary{
			Score:    s.score,
			Total:    len(s.questions),
			MaxCombo: s.maxCombo,
			History:  append([]domain.AnswerRecord(nil), s.history...),
		}
	}

	return domain.Feedback{
		QuestionIndex: questionIndex,
		ChosenIndex:   chosenIndex,
		CorrectIndex:  q.CorrectIndex,
		Correct:       correct,
		Score:         s.score,
		Combo:         s.combo,
		MaxCombo:      s.maxCombo,
		State:         s.state,
	}, nil
}

// LastAnswer returns the most recently appended answer record.
func (s *Session) LastAnswer() (domain.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return domain.AnswerRecord{}, false
	}
	return s.history[len(s.history)-1], true
}

// Score returns the running score, combo and best combo.
func (s *Session) Score() (score, combo, maxCombo int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.score, s.combo, s.maxCombo
}

// History returns a copy of the answers so far.
func (s *Session) History() []domain.AnswerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AnswerRecord(nil), s.history...)
}

// Summary returns the final summary once the session has finished.
func (s *Session) Summary() (domain.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return domain.SessionSummary{}, domain.ErrSessionNotFinished
	}
	return *s.summary, nil
}

// PlayQuestion returns the current question without its answer.
func (s *Session) PlayQuestion() (domain.PlayQuestion, error) {
	q, err := s.CurrentQuestion()
	if err != nil {
		return domain.PlayQuestion{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.PlayQuestion{
		Index:   s.currentIndex,
		Total:   len(s.questions),
		Content: q.Content,
		Choices: append([]string(nil), q.Choices...),
	}, nil
}

type sessionSnapshot struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"createdAt"`
	State        domain.SessionState    `json:"state"`
	Questions    []domain.Question      `json:"questions"`
	CurrentIndex int                    `json:"currentIndex"`
	Score        int                    `json:"score"`
	Combo        int                    `json:"combo"`
	MaxCombo     int                    `json:"maxCombo"`
	History      []domain.AnswerRecord  `json:"history"`
	Summary      *domain.SessionSummary `json:"summary,omitempty"`
}

// MarshalJSON encodes the full session state for external session stores.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(sessionSnapshot{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		State:        s.state,
		Questions:    s.questions,
		CurrentIndex: s.currentIndex,
		Score:        s.score,
		Combo:        s.combo,
		MaxCombo:     s.maxCombo,
		History:      s.history,
		Summary:      s.summary,
	})
}

// UnmarshalJSON restores a session written by MarshalJSON.
func (s *Session) UnmarshalJSON(data []byte) error {
	var snap sessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = snap.ID
	s.createdAt = snap.CreatedAt
	if s.now == nil {
		s.now = time.Now
	}
	s.state = snap.State
	s.questions = snap.Questions
	s.currentIndex = snap.CurrentIndex
	s.score = snap.Score
	s.combo = snap.Combo
	s.maxCombo = snap.MaxCombo
	s.history = snap.History
	s.summary = snap.Summary
	return nil
}
