package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
)

var alice = domain.Author{Name: "Alice"}

func validFields() app.FormFields {
	return app.FormFields{Content: "Capital of France?", Choices: []string{"Paris", "Rome", "Oslo"}, CorrectIndex: 0}
}

func TestCreateFormDefaults(t *testing.T) {
	form := app.NewCreateForm(newStubRepository(), app.NewValidator())
	fields := form.Fields()
	if form.Mode() != app.ModeCreate || len(fields.Choices) != app.DefaultChoiceCount || fields.CorrectIndex != 0 {
		t.Fatalf("unexpected blank form %s %+v", form.Mode(), fields)
	}
}

func TestCreateFormSubmit(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepository()
	form := app.NewCreateForm(repo, app.NewValidator())
	form.SetFields(app.FormFields{Content: "  Capital of France?  ", Choices: []string{" Paris ", "Rome"}, CorrectIndex: 0})

	out, err := form.Submit(ctx, alice)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Notice.Kind != domain.NoticeSuccess || out.Notice.Message != "Question created" {
		t.Fatalf("unexpected notice %+v", out.Notice)
	}
	if len(out.Actions) != 3 || out.Actions[0] != app.ActionAnother {
		t.Fatalf("unexpected actions %v", out.Actions)
	}
	if got := out.Notice.ExpiresAt.Sub(time.Now()); got > domain.NoticeTTL || got <= 0 {
		t.Fatalf("expected notice to expire within %s, got %s", domain.NoticeTTL, got)
	}

	q, err := repo.GetQuestion(ctx, out.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Content != "Capital of France?" || q.Choices[0] != "Paris" || q.AuthorName != "Alice" || q.IsAdminOnly {
		t.Fatalf("unexpected stored question %+v", q)
	}

	if err := form.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if f := form.Fields(); f.Content != "" || len(f.Choices) != app.DefaultChoiceCount {
		t.Fatalf("expected cleared form, got %+v", f)
	}
}

func TestFormValidation(t *testing.T) {
	cases := map[string]app.FormFields{
		"empty content":   {Content: " ", Choices: []string{"a", "b"}},
		"one choice":      {Content: "q", Choices: []string{"a"}},
		"blank choice":    {Content: "q", Choices: []string{"a", "  "}},
		"index too large": {Content: "q", Choices: []string{"a", "b"}, CorrectIndex: 2},
		"negative index":  {Content: "q", Choices: []string{"a", "b"}, CorrectIndex: -1},
	}
	for name, fields := range cases {
		repo := newStubRepository()
		form := app.NewCreateForm(repo, app.NewValidator())
		form.SetFields(fields)

		out, err := form.Submit(context.Background(), alice)
		if !errors.Is(err, domain.ErrValidationFailed) {
			t.Fatalf("%s: expected ErrValidationFailed, got %v", name, err)
		}
		if out.Notice.Kind != domain.NoticeFailure {
			t.Fatalf("%s: expected failure notice, got %+v", name, out.Notice)
		}
		rows, _ := repo.ListQuestions(context.Background())
		if len(rows) != 0 {
			t.Fatalf("%s: nothing should be written, got %d rows", name, len(rows))
		}
	}
}

func TestFormWriteFailureKeepsFields(t *testing.T) {
	repo := newStubRepository()
	repo.writeErr = errors.New("permission denied")
	form := app.NewCreateForm(repo, app.NewValidator())
	form.SetFields(validFields())

	out, err := form.Submit(context.Background(), alice)
	if !errors.Is(err, domain.ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	if out.Notice.Kind != domain.NoticeFailure || out.Notice.Message != "Something went wrong: permission denied" {
		t.Fatalf("unexpected notice %+v", out.Notice)
	}
	if form.Fields().Content != validFields().Content {
		t.Fatalf("fields should be kept after a failed save")
	}
	if form.Saving() {
		t.Fatalf("saving flag should be cleared")
	}
}

func TestFormRejectsConcurrentSubmit(t *testing.T) {
	repo := newStubRepository()
	repo.block = make(chan struct{})
	form := app.NewCreateForm(repo, app.NewValidator())
	form.SetFields(validFields())

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background(), alice)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !form.Saving() {
		if time.Now().After(deadline) {
			t.Fatalf("first submit never started")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := form.Submit(context.Background(), alice); !errors.Is(err, domain.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(repo.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	rows, _ := repo.ListQuestions(context.Background())
	if len(rows) != 1 {
		t.Fatalf("expected exactly one insert, got %d", len(rows))
	}
}

func TestEditForm(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepository(
		domain.Question{ID: "q1", Content: "Old", Choices: []string{"a", "b"}, CorrectIndex: 1, AuthorName: "Bob"},
		domain.Question{ID: "starter", Content: "Starter", Choices: []string{"a", "b"}, IsAdminOnly: true},
	)
	validate := app.NewValidator()

	if _, err := app.OpenForm(ctx, repo, validate, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := app.OpenForm(ctx, repo, validate, "starter"); !errors.Is(err, domain.ErrAdminOnly) {
		t.Fatalf("expected ErrAdminOnly, got %v", err)
	}

	form, err := app.OpenForm(ctx, repo, validate, "q1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if form.Mode() != app.ModeEdit || form.Fields().Content != "Old" || form.Fields().CorrectIndex != 1 {
		t.Fatalf("unexpected edit form %s %+v", form.Mode(), form.Fields())
	}
	if err := form.Reset(); err == nil {
		t.Fatalf("reset should be unavailable in edit mode")
	}

	form.SetFields(app.FormFields{Content: "New", Choices: []string{"x", "y", "z"}, CorrectIndex: 2})
	out, err := form.Submit(ctx, alice)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Notice.Message != "Question updated" || len(out.Actions) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	q, _ := repo.GetQuestion(ctx, "q1")
	if q.Content != "New" || q.CorrectIndex != 2 || len(q.Choices) != 3 {
		t.Fatalf("unexpected stored question %+v", q)
	}
}

func TestAuthoringServiceSubmit(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepository()
	service := app.NewAuthoringService(repo, nil)

	out, err := service.Submit(ctx, "c1", alice, "", validFields())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Mode != app.ModeCreate || out.ID == "" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	edited := validFields()
	edited.Content = "Capital of Norway?"
	edited.CorrectIndex = 2
	if _, err := service.Submit(ctx, "c1", alice, out.ID, edited); err != nil {
		t.Fatalf("edit: %v", err)
	}
	q, _ := repo.GetQuestion(ctx, out.ID)
	if q.Content != "Capital of Norway?" || q.CorrectIndex != 2 {
		t.Fatalf("unexpected stored question %+v", q)
	}
}

func TestEditKeepsOriginalAuthor(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepository()
	service := app.NewAuthoringService(repo, nil)

	created, err := service.Submit(ctx, "alice", alice, "", validFields())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edited := validFields()
	edited.Content = "Capital of Italy?"
	if _, err := service.Submit(ctx, "bob", domain.Author{Name: "Bob"}, created.ID, edited); err != nil {
		t.Fatalf("edit: %v", err)
	}

	q, err := repo.GetQuestion(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.Content != "Capital of Italy?" {
		t.Fatalf("expected edited content, got %q", q.Content)
	}
	if q.AuthorName != "Alice" {
		t.Fatalf("edit by Bob replaced the author: got %q", q.AuthorName)
	}
}
