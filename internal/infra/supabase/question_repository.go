package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quiz-studio/internal/domain"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	questionsTable   = "questions"
	randomQuestionFn = "get_random_questions"
)

// QuestionRepository talks to the hosted questions table through PostgREST.
// Rows arrive loosely typed; each one is decoded on its own so a malformed
// row is dropped and logged instead of failing the whole read.
type QuestionRepository struct {
	client *supa.Client
	log    *slog.Logger
}

// NewQuestionRepository connects to the project at url with an API key.
func NewQuestionRepository(url, key string, log *slog.Logger) (*QuestionRepository, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &QuestionRepository{client: client, log: log}, nil
}

type questionRow struct {
	ID           rowID     `json:"id"`
	Content      string    `json:"content"`
	Choices      []string  `json:"choices"`
	CorrectIndex int       `json:"correct_index"`
	AuthorName   *string   `json:"author_name"`
	IsAdminOnly  *bool     `json:"is_admin_only"`
	CreatedAt    time.Time `json:"created_at"`
}

type questionWrite struct {
	Content      string   `json:"content"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
	AuthorName   string   `json:"author_name"`
	IsAdminOnly  bool     `json:"is_admin_only,omitempty"`
}

// questionEdit is the update body; the author column is left as inserted.
type questionEdit struct {
	Content      string   `json:"content"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
}

// rowID accepts both numeric and string primary keys.
type rowID string

func (id *rowID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = rowID(n.String())
	return nil
}

func (r questionRow) toDomain() domain.Question {
	q := domain.Question{
		ID:           string(r.ID),
		Content:      r.Content,
		Choices:      r.Choices,
		CorrectIndex: r.CorrectIndex,
		CreatedAt:    r.CreatedAt,
	}
	if r.AuthorName != nil {
		q.AuthorName = *r.AuthorName
	}
	if r.IsAdminOnly != nil {
		q.IsAdminOnly = *r.IsAdminOnly
	}
	return q
}

func writeOf(p domain.QuestionPayload) questionWrite {
	return questionWrite{
		Content:      p.Content,
		Choices:      p.Choices,
		CorrectIndex: p.CorrectIndex,
		AuthorName:   p.AuthorName,
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	var raw []json.RawMessage
	_, err := r.client.From(questionsTable).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&raw)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return r.decode(ctx, raw), nil
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var raw []json.RawMessage
	_, err := r.client.From(questionsTable).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&raw)
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	rows := r.decode(ctx, raw)
	if len(rows) == 0 {
		return domain.Question{}, domain.ErrNotFound
	}
	return rows[0], nil
}

func (r *QuestionRepository) InsertQuestion(ctx context.Context, p domain.QuestionPayload) (string, error) {
	return r.insert(ctx, writeOf(p))
}

// InsertAdminOnly inserts a question that the admin flow will refuse to edit or delete.
func (r *QuestionRepository) InsertAdminOnly(ctx context.Context, p domain.QuestionPayload) (string, error) {
	w := writeOf(p)
	w.IsAdminOnly = true
	return r.insert(ctx, w)
}

func (r *QuestionRepository) insert(_ context.Context, w questionWrite) (string, error) {
	var rows []questionRow
	_, err := r.client.From(questionsTable).
		Insert(w, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: insert returned no row", domain.ErrWriteFailed)
	}
	return string(rows[0].ID), nil
}

func (r *QuestionRepository) UpdateQuestion(_ context.Context, id string, p domain.QuestionPayload) error {
	var rows []questionRow
	_, err := r.client.From(questionsTable).
		Update(questionEdit{Content: p.Content, Choices: p.Choices, CorrectIndex: p.CorrectIndex}, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) DeleteQuestion(_ context.Context, id string) error {
	var rows []questionRow
	_, err := r.client.From(questionsTable).
		Delete("representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RandomQuestions calls the get_random_questions remote procedure.
func (r *QuestionRepository) RandomQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = domain.DefaultSampleSize
	}
	body := r.client.Rpc(randomQuestionFn, "", map[string]int{"limit_count": limit})
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "[") {
		return nil, fmt.Errorf("rpc %s: unexpected response %q", randomQuestionFn, truncate(body, 200))
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("rpc %s: %w", randomQuestionFn, err)
	}
	return r.decode(ctx, raw), nil
}

func (r *QuestionRepository) decode(ctx context.Context, raw []json.RawMessage) []domain.Question {
	out := make([]domain.Question, 0, len(raw))
	for _, msg := range raw {
		var row questionRow
		if err := json.Unmarshal(msg, &row); err != nil {
			r.log.WarnContext(ctx, "dropping undecodable question row", "error", err, "row", truncate(string(msg), 200))
			continue
		}
		out = append(out, row.toDomain())
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
