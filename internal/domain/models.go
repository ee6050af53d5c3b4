package domain

import "time"

// SessionState is the lifecycle stage of a quiz session.
type SessionState string

const (
	StateLoading  SessionState = "loading"
	StateActive   SessionState = "active"
	StateFinished SessionState = "finished"
	StateEmpty    SessionState = "empty"
)

// AnswerRecord is one submitted answer, immutable once appended.
type AnswerRecord struct {
	QuestionText string   `json:"questionText"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	ChosenIndex  int      `json:"chosenIndex"`
	WasCorrect   bool     `json:"wasCorrect"`
}

// SessionSummary is the final outcome of a session, handed to the result view.
type SessionSummary struct {
	Score    int            `json:"score"`
	Total    int            `json:"total"`
	MaxCombo int            `json:"maxCombo"`
	History  []AnswerRecord `json:"history"`
}

// Feedback describes the session right after an accepted answer.
type Feedback struct {
	QuestionIndex int          `json:"questionIndex"`
	ChosenIndex   int          `json:"chosenIndex"`
	CorrectIndex  int          `json:"correctIndex"`
	Correct       bool         `json:"correct"`
	Score         int          `json:"score"`
	Combo         int          `json:"combo"`
	MaxCombo      int          `json:"maxCombo"`
	State         SessionState `json:"state"`
}

// PlayQuestion is a question as shown to a player, without the answer.
type PlayQuestion struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Content string   `json:"content"`
	Choices []string `json:"choices"`
}

// Author is the display name a client acts under.
type Author struct {
	Name string `json:"name"`
}

// NoticeKind distinguishes success and failure notices.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
)

// NoticeTTL is how long a transient notice stays visible.
const NoticeTTL = 3 * time.Second

// Notice is a transient, dismissible message.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// NewNotice builds a notice that expires NoticeTTL after now.
func NewNotice(kind NoticeKind, message string, now time.Time) Notice {
	return Notice{Kind: kind, Message: message, ExpiresAt: now.Add(NoticeTTL)}
}
