package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"quiz-studio/internal/domain"

	"github.com/go-playground/validator/v10"
)

// FormMode tells whether a form inserts a new question or updates one.
type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
)

// NextAction is a navigation choice offered after a successful save.
type NextAction string

const (
	ActionAdmin   NextAction = "admin"
	ActionHome    NextAction = "home"
	ActionAnother NextAction = "another"
)

// DefaultChoiceCount is the number of empty choices a new form starts with.
const DefaultChoiceCount = 4

// FormFields are the editable fields of the authoring form.
type FormFields struct {
	Content      string   `json:"content"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
}

// SubmitOutcome is the result of a form submission.
type SubmitOutcome struct {
	Mode    FormMode      `json:"mode"`
	ID      string        `json:"id,omitempty"`
	Notice  domain.Notice `json:"notice"`
	Actions []NextAction  `json:"actions,omitempty"`
}

// Form is the create/edit form bound to at most one question.
type Form struct {
	mode     FormMode
	id       string
	author   string
	repo     QuestionRepository
	validate *validator.Validate
	now      func() time.Time

	mu     sync.Mutex
	fields FormFields
	saving atomic.Bool
}

// NewCreateForm returns an empty form in create mode.
func NewCreateForm(repo QuestionRepository, validate *validator.Validate) *Form {
	return &Form{
		mode:     ModeCreate,
		repo:     repo,
		validate: validate,
		now:      time.Now,
		fields:   emptyFields(),
	}
}

// OpenForm returns a create form for an empty id, or an edit form filled from
// the stored question.
func OpenForm(ctx context.Context, repo QuestionRepository, validate *validator.Validate, id string) (*Form, error) {
	if id == "" {
		return NewCreateForm(repo, validate), nil
	}
	q, err := repo.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if q.IsAdminOnly {
		return nil, domain.ErrAdminOnly
	}
	return &Form{
		mode:     ModeEdit,
		id:       id,
		author:   q.AuthorName,
		repo:     repo,
		validate: validate,
		now:      time.Now,
		fields: FormFields{
			Content:      q.Content,
			Choices:      append([]string(nil), q.Choices...),
			CorrectIndex: q.CorrectIndex,
		},
	}, nil
}

func emptyFields() FormFields {
	return FormFields{Choices: make([]string, DefaultChoiceCount)}
}

func (f *Form) Mode() FormMode { return f.mode }

func (f *Form) ID() string { return f.id }

// Saving reports whether a submit is in flight.
func (f *Form) Saving() bool { return f.saving.Load() }

// Fields returns a copy of the current field values.
func (f *Form) Fields() FormFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormFields{
		Content:      f.fields.Content,
		Choices:      append([]string(nil), f.fields.Choices...),
		CorrectIndex: f.fields.CorrectIndex,
	}
}

// SetFields replaces the field values.
func (f *Form) SetFields(fields FormFields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = FormFields{
		Content:      fields.Content,
		Choices:      append([]string(nil), fields.Choices...),
		CorrectIndex: fields.CorrectIndex,
	}
}

// Reset clears a create form so another question can be authored.
func (f *Form) Reset() error {
	if f.mode != ModeCreate {
		return fmt.Errorf("reset is only available when creating")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = emptyFields()
	return nil
}

// Submit validates the fields and inserts or updates the question. Calls made
// while a previous submit is pending return ErrSubmitInFlight and do nothing.
// On failure the field values are left as they were.
func (f *Form) Submit(ctx context.Context, author domain.Author) (SubmitOutcome, error) {
	if !f.saving.CompareAndSwap(false, true) {
		return SubmitOutcome{}, domain.ErrSubmitInFlight
	}
	defer f.saving.Store(false)

	payload, err := f.payload(author)
	if err != nil {
		return SubmitOutcome{Mode: f.mode, ID: f.id, Notice: domain.NewNotice(domain.NoticeFailure, err.Error(), f.now())}, err
	}

	id := f.id
	if f.mode == ModeEdit {
		err = f.repo.UpdateQuestion(ctx, f.id, payload)
	} else {
		id, err = f.repo.InsertQuestion(ctx, payload)
	}
	if err != nil {
		notice := domain.NewNotice(domain.NoticeFailure, "Something went wrong: "+err.Error(), f.now())
		if !errors.Is(err, domain.ErrWriteFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
		}
		return SubmitOutcome{Mode: f.mode, ID: f.id, Notice: notice}, err
	}

	out := SubmitOutcome{Mode: f.mode, ID: id}
	if f.mode == ModeEdit {
		out.Notice = domain.NewNotice(domain.NoticeSuccess, "Question updated", f.now())
		out.Actions = []NextAction{ActionAdmin, ActionHome}
	} else {
		out.Notice = domain.NewNotice(domain.NoticeSuccess, "Question created", f.now())
		out.Actions = []NextAction{ActionAnother, ActionAdmin, ActionHome}
	}
	return out, nil
}

func (f *Form) payload(author domain.Author) (domain.QuestionPayload, error) {
	fields := f.Fields()
	p := domain.QuestionPayload{
		Content:      strings.TrimSpace(fields.Content),
		Choices:      make([]string, len(fields.Choices)),
		CorrectIndex: fields.CorrectIndex,
		AuthorName:   author.Name,
	}
	if f.mode == ModeEdit {
		p.AuthorName = f.author
	}
	for i, c := range fields.Choices {
		p.Choices[i] = strings.TrimSpace(c)
	}
	if err := f.validate.Struct(p); err != nil {
		return domain.QuestionPayload{}, fmt.Errorf("%w: %s", domain.ErrValidationFailed, describeValidation(err))
	}
	if p.CorrectIndex >= len(p.Choices) {
		return domain.QuestionPayload{}, fmt.Errorf("%w: correctIndex must point at a choice", domain.ErrValidationFailed)
	}
	return p, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// NewValidator returns the struct validator used for question payloads.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// AuthoringService runs the authoring flow for HTTP clients. It keeps one
// saving flag per client so a second submit from the same client is a no-op
// while the first is pending.
type AuthoringService struct {
	repo     QuestionRepository
	validate *validator.Validate
	log      *slog.Logger

	mu     sync.Mutex
	saving map[string]struct{}
}

func NewAuthoringService(repo QuestionRepository, log *slog.Logger) *AuthoringService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthoringService{
		repo:     repo,
		validate: NewValidator(),
		log:      log,
		saving:   make(map[string]struct{}),
	}
}

// Open returns the form for id (edit) or a blank one (create).
func (s *AuthoringService) Open(ctx context.Context, id string) (*Form, error) {
	return OpenForm(ctx, s.repo, s.validate, id)
}

// Submit opens the form for id, applies fields and saves it as author.
func (s *AuthoringService) Submit(ctx context.Context, clientID string, author domain.Author, id string, fields FormFields) (SubmitOutcome, error) {
	if !s.begin(clientID) {
		return SubmitOutcome{}, domain.ErrSubmitInFlight
	}
	defer s.end(clientID)

	form, err := s.Open(ctx, id)
	if err != nil {
		return SubmitOutcome{}, err
	}
	form.SetFields(fields)
	out, err := form.Submit(ctx, author)
	if err != nil {
		s.log.WarnContext(ctx, "save question failed", "mode", form.Mode(), "id", id, "author", author.Name, "error", err)
		return out, err
	}
	s.log.InfoContext(ctx, "question saved", "mode", out.Mode, "id", out.ID, "author", author.Name)
	return out, nil
}

func (s *AuthoringService) begin(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.saving[clientID]; busy {
		return false
	}
	s.saving[clientID] = struct{}{}
	return true
}

func (s *AuthoringService) end(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saving, clientID)
}
