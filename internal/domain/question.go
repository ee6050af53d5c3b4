package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSampleSize is used for random sampling when no limit is given.
const DefaultSampleSize = 100

// Question is a stored multiple-choice question.
type Question struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Choices      []string  `json:"choices"`
	CorrectIndex int       `json:"correctIndex"`
	AuthorName   string    `json:"authorName"`
	IsAdminOnly  bool      `json:"isAdminOnly"`
	CreatedAt    time.Time `json:"createdAt"`
}

// QuestionPayload is the writable part of a question sent on insert and update.
type QuestionPayload struct {
	Content      string   `json:"content" validate:"required"`
	Choices      []string `json:"choices" validate:"min=2,dive,required"`
	CorrectIndex int      `json:"correctIndex" validate:"gte=0"`
	AuthorName   string   `json:"authorName"`
}

// Check reports whether a row read from a repository is safe to play.
func (q Question) Check() error {
	if strings.TrimSpace(q.Content) == "" {
		return fmt.Errorf("question %s: empty content", q.ID)
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("question %s: %d choices", q.ID, len(q.Choices))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return fmt.Errorf("question %s: correct index %d outside %d choices", q.ID, q.CorrectIndex, len(q.Choices))
	}
	return nil
}

// Sanitize splits rows into playable questions and the errors for the rest.
func Sanitize(rows []Question) ([]Question, []error) {
	valid := make([]Question, 0, len(rows))
	var rejected []error
	for _, q := range rows {
		if err := q.Check(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, q)
	}
	return valid, rejected
}

// Apply replaces the editable fields of q with the payload. The author is
// set once on insert and never changed by an edit.
func (q *Question) Apply(p QuestionPayload) {
	q.Content = p.Content
	q.Choices = append([]string(nil), p.Choices...)
	q.CorrectIndex = p.CorrectIndex
}

// Payload returns the writable fields of q.
func (q Question) Payload() QuestionPayload {
	return QuestionPayload{
		Content:      q.Content,
		Choices:      append([]string(nil), q.Choices...),
		CorrectIndex: q.CorrectIndex,
		AuthorName:   q.AuthorName,
	}
}
