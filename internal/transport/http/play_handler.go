package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"

	"github.com/go-chi/chi/v5"
)

type playHandler struct {
	svc *app.QuizService
}

type sessionView struct {
	SessionID  string               `json:"sessionId,omitempty"`
	State      domain.SessionState  `json:"state"`
	Question   *domain.PlayQuestion `json:"question,omitempty"`
	Score      int                  `json:"score"`
	Combo      int                  `json:"combo"`
	MaxCombo   int                  `json:"maxCombo"`
	LastAnswer *domain.AnswerRecord `json:"lastAnswer,omitempty"`
	CreatePath string               `json:"createPath,omitempty"`
}

type answerRequest struct {
	QuestionIndex int `json:"questionIndex"`
	ChoiceIndex   int `json:"choiceIndex"`
}

type answerView struct {
	Feedback domain.Feedback      `json:"feedback"`
	Next     *domain.PlayQuestion `json:"next,omitempty"`
}

// parseLimit reads the sample size; empty or "all" means the default.
func parseLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" || raw == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest{fmt.Errorf("limit must be a non-negative integer")}
	}
	return n, nil
}

func newSessionView(s *app.Session) sessionView {
	view := sessionView{SessionID: s.ID(), State: s.State()}
	view.Score, view.Combo, view.MaxCombo = s.Score()
	if q, err := s.PlayQuestion(); err == nil {
		view.Question = &q
	}
	if last, ok := s.LastAnswer(); ok {
		view.LastAnswer = &last
	}
	if view.State == domain.StateEmpty {
		view.SessionID = ""
		view.CreatePath = "/create"
	}
	return view
}

func (h *playHandler) start(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := h.svc.Start(r.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrFetchFailed) && session != nil {
			view := newSessionView(session)
			writeJSON(w, http.StatusBadGateway, struct {
				sessionView
				Error string `json:"error"`
			}{view, err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	if session.State() == domain.StateEmpty {
		writeJSON(w, http.StatusOK, newSessionView(session))
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(session))
}

func (h *playHandler) get(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

func (h *playHandler) answer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	feedback, err := h.svc.SubmitAnswer(r.Context(), id, req.QuestionIndex, req.ChoiceIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	view := answerView{Feedback: feedback}
	if feedback.State == domain.StateActive {
		if session, err := h.svc.Get(r.Context(), id); err == nil {
			if q, err := session.PlayQuestion(); err == nil {
				view.Next = &q
			}
		}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *playHandler) result(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Finish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
