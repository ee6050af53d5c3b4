package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"quiz-studio/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const questionColumns = `id::text, content, choices, correct_index, author_name, is_admin_only, created_at`

// QuestionRepository stores questions in the questions table created by the
// migrations package.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return collect(rows)
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	key, err := parseID(id)
	if err != nil {
		return domain.Question{}, err
	}
	row := r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, key)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (r *QuestionRepository) InsertQuestion(ctx context.Context, p domain.QuestionPayload) (string, error) {
	return r.insert(ctx, p, false)
}

// InsertAdminOnly inserts a question that the admin flow will refuse to edit or delete.
func (r *QuestionRepository) InsertAdminOnly(ctx context.Context, p domain.QuestionPayload) (string, error) {
	return r.insert(ctx, p, true)
}

func (r *QuestionRepository) insert(ctx context.Context, p domain.QuestionPayload, adminOnly bool) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (content, choices, correct_index, author_name, is_admin_only)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id::text`,
		p.Content, p.Choices, p.CorrectIndex, p.AuthorName, adminOnly,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: insert question: %v", domain.ErrWriteFailed, err)
	}
	return id, nil
}

func (r *QuestionRepository) UpdateQuestion(ctx context.Context, id string, p domain.QuestionPayload) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET content = $1, choices = $2, correct_index = $3 WHERE id = $4`,
		p.Content, p.Choices, p.CorrectIndex, key,
	)
	if err != nil {
		return fmt.Errorf("%w: update question: %v", domain.ErrWriteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id string) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: delete question: %v", domain.ErrWriteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) RandomQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = domain.DefaultSampleSize
	}
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM get_random_questions($1)`, limit)
	if err != nil {
		return nil, fmt.Errorf("random questions: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Content, &q.Choices, &q.CorrectIndex, &q.AuthorName, &q.IsAdminOnly, &q.CreatedAt)
	return q, err
}

// parseID maps ids that can never match a bigserial key to ErrNotFound.
func parseID(id string) (int64, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, domain.ErrNotFound
	}
	return key, nil
}
