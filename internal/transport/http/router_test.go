package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/infra/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *httptest.Server
	repo   *memory.QuestionRepository
}

func newTestEnv(t *testing.T, seed ...domain.Question) *testEnv {
	t.Helper()
	repo := memory.NewQuestionRepository(seed...)
	svc := Services{
		Quiz:      app.NewQuizService(memory.NewSessionStore(0), repo, nil),
		Authoring: app.NewAuthoringService(repo, nil),
		Admin:     app.NewAdminService(repo, nil),
		Identity:  app.NewIdentityService(memory.NewIdentityStore()),
	}
	server := httptest.NewServer(NewRouter(svc, Options{FeedbackDelay: 10 * time.Millisecond}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, repo: repo}
}

func (e *testEnv) do(t *testing.T, client, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(clientHeader, client)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) signIn(t *testing.T, client, name string) {
	t.Helper()
	resp, _ := e.do(t, client, http.MethodPut, "/api/identity", map[string]string{"name": name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func mathQuestions() []domain.Question {
	now := time.Now()
	return []domain.Question{
		{ID: "q1", Content: "What is 2 + 2?", Choices: []string{"4", "5", "6"}, CorrectIndex: 0, AuthorName: "kim", CreatedAt: now},
		{ID: "q2", Content: "What is 3 + 3?", Choices: []string{"6", "7"}, CorrectIndex: 0, AuthorName: "kim", CreatedAt: now.Add(time.Second)},
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "c1", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestClientCookieIssued(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/api/identity")
	require.NoError(t, err)
	defer resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == clientCookie && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected %s cookie", clientCookie)
}

func TestIdentityLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "c1", http.MethodGet, "/api/identity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"","set":false}`, string(body))

	resp, _ = env.do(t, "c1", http.MethodPut, "/api/identity", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	env.signIn(t, "c1", " Alice ")
	_, body = env.do(t, "c1", http.MethodGet, "/api/identity", nil)
	assert.JSONEq(t, `{"name":"Alice","set":true}`, string(body))

	resp, _ = env.do(t, "c1", http.MethodDelete, "/api/identity", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = env.do(t, "c1", http.MethodGet, "/api/identity", nil)
	assert.JSONEq(t, `{"name":"","set":false}`, string(body))
}

func TestAuthoringRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/api/questions/new", "/api/admin/questions"} {
		resp, body := env.do(t, "anon", http.MethodGet, path, nil)
		assert.Equal(t, http.StatusPreconditionRequired, resp.StatusCode, path)

		var payload errorPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.True(t, payload.PromptName, path)
	}
}

func TestBlankFormHasFourChoices(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "c1", "Alice")

	resp, body := env.do(t, "c1", http.MethodGet, "/api/questions/new", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view formView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, app.ModeCreate, view.Mode)
	assert.Len(t, view.Fields.Choices, app.DefaultChoiceCount)
}

func TestCreateAndEditQuestion(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "c1", "Alice")

	resp, body := env.do(t, "c1", http.MethodPost, "/api/questions", app.FormFields{
		Content:      "Capital of France?",
		Choices:      []string{"Paris", "Rome"},
		CorrectIndex: 0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created app.SubmitOutcome
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, domain.NoticeSuccess, created.Notice.Kind)
	assert.Equal(t, []app.NextAction{app.ActionAnother, app.ActionAdmin, app.ActionHome}, created.Actions)
	require.NotEmpty(t, created.ID)

	stored, err := env.repo.GetQuestion(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.AuthorName)

	resp, body = env.do(t, "c1", http.MethodGet, "/api/questions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var form formView
	require.NoError(t, json.Unmarshal(body, &form))
	assert.Equal(t, app.ModeEdit, form.Mode)
	assert.Equal(t, "Capital of France?", form.Fields.Content)

	resp, body = env.do(t, "c1", http.MethodPut, "/api/questions/"+created.ID, app.FormFields{
		Content:      "Capital of Italy?",
		Choices:      []string{"Paris", "Rome"},
		CorrectIndex: 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated app.SubmitOutcome
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, []app.NextAction{app.ActionAdmin, app.ActionHome}, updated.Actions)

	stored, err = env.repo.GetQuestion(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capital of Italy?", stored.Content)
	assert.Equal(t, 1, stored.CorrectIndex)
}

func TestCreateQuestionValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t, "c1", "Alice")

	resp, body := env.do(t, "c1", http.MethodPost, "/api/questions", app.FormFields{
		Content: "  ",
		Choices: []string{"a", "b"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var out struct {
		app.SubmitOutcome
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, domain.NoticeFailure, out.Notice.Kind)
	assert.NotEmpty(t, out.Error)

	rows, err := env.repo.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEditUnknownOrAdminOnly(t *testing.T) {
	env := newTestEnv(t, domain.Question{
		ID: "starter", Content: "Starter", Choices: []string{"a", "b"}, IsAdminOnly: true,
	})
	env.signIn(t, "c1", "Alice")

	resp, _ := env.do(t, "c1", http.MethodGet, "/api/questions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, "c1", http.MethodGet, "/api/questions/starter", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminDeleteFlow(t *testing.T) {
	seed := append(mathQuestions(), domain.Question{
		ID: "starter", Content: "Starter", Choices: []string{"a", "b"}, IsAdminOnly: true, CreatedAt: time.Now().Add(-time.Hour),
	})
	env := newTestEnv(t, seed...)
	env.signIn(t, "c1", "Alice")

	resp, body := env.do(t, "c1", http.MethodGet, "/api/admin/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board boardView
	require.NoError(t, json.Unmarshal(body, &board))
	require.Len(t, board.Items, 3)
	assert.Equal(t, "q2", board.Items[0].ID)
	assert.False(t, board.Items[2].CanDelete)

	resp, _ = env.do(t, "c1", http.MethodPost, "/api/admin/questions/starter/delete", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = env.do(t, "c1", http.MethodPost, "/api/admin/questions/q1/delete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prompt app.DeletePrompt
	require.NoError(t, json.Unmarshal(body, &prompt))
	assert.Equal(t, "q1", prompt.ID)

	resp, _ = env.do(t, "c1", http.MethodPost, "/api/admin/delete/cancel", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(t, "c1", http.MethodPost, "/api/admin/delete/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	env.do(t, "c1", http.MethodPost, "/api/admin/questions/q1/delete", nil)
	resp, body = env.do(t, "c1", http.MethodPost, "/api/admin/delete/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board = boardView{}
	require.NoError(t, json.Unmarshal(body, &board))
	assert.Len(t, board.Items, 2)
	assert.Nil(t, board.Pending)
	require.NotNil(t, board.Notice)
	assert.Equal(t, domain.NoticeSuccess, board.Notice.Kind)

	_, err := env.repo.GetQuestion(context.Background(), "q1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdminExport(t *testing.T) {
	env := newTestEnv(t, mathQuestions()...)
	env.signIn(t, "c1", "Alice")

	resp, body := env.do(t, "c1", http.MethodGet, "/api/admin/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "questions.xlsx")
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "expected a zip container")
}

func TestRESTPlayFlow(t *testing.T) {
	env := newTestEnv(t, mathQuestions()...)

	resp, body := env.do(t, "p1", http.MethodPost, "/api/sessions?limit=2", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var started sessionView
	require.NoError(t, json.Unmarshal(body, &started))
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, domain.StateActive, started.State)
	require.NotNil(t, started.Question)
	assert.Equal(t, 0, started.Question.Index)
	assert.Equal(t, 2, started.Question.Total)

	answersPath := "/api/sessions/" + started.SessionID + "/answers"
	resp, body = env.do(t, "p1", http.MethodPost, answersPath, answerRequest{QuestionIndex: 0, ChoiceIndex: 0})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var first answerView
	require.NoError(t, json.Unmarshal(body, &first))
	assert.True(t, first.Feedback.Correct)
	assert.Equal(t, 1, first.Feedback.Combo)
	require.NotNil(t, first.Next)
	assert.Equal(t, 1, first.Next.Index)

	resp, _ = env.do(t, "p1", http.MethodPost, answersPath, answerRequest{QuestionIndex: 0, ChoiceIndex: 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, "p1", http.MethodGet, "/api/sessions/"+started.SessionID+"/result", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = env.do(t, "p1", http.MethodPost, answersPath, answerRequest{QuestionIndex: 1, ChoiceIndex: 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second answerView
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, domain.StateFinished, second.Feedback.State)
	assert.Nil(t, second.Next)

	resp, body = env.do(t, "p1", http.MethodGet, "/api/sessions/"+started.SessionID+"/result", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result app.ResultView
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 2, result.MaxCombo)
	assert.Equal(t, 100, result.Percentage)
	assert.Len(t, result.History, 2)

	resp, _ = env.do(t, "p1", http.MethodGet, "/api/sessions/"+started.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartWithNoQuestions(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "p1", http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view sessionView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, domain.StateEmpty, view.State)
	assert.Equal(t, "/create", view.CreatePath)
	assert.Empty(t, view.SessionID)
}

func TestStartRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "p1", http.MethodPost, "/api/sessions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: content", domain.ErrValidationFailed), http.StatusUnprocessableEntity},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrAdminOnly, http.StatusForbidden},
		{domain.ErrIdentityRequired, http.StatusPreconditionRequired},
		{domain.ErrAlreadyAnswered, http.StatusConflict},
		{domain.ErrSubmitInFlight, http.StatusConflict},
		{fmt.Errorf("%w: timeout", domain.ErrFetchFailed), http.StatusBadGateway},
		{fmt.Errorf("%w: timeout", domain.ErrWriteFailed), http.StatusBadGateway},
		{badRequest{errors.New("eof")}, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errorStatus(tc.err), tc.err.Error())
	}
}
