package http

import (
	"net/http"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/export"

	"github.com/go-chi/chi/v5"
)

type adminHandler struct {
	svc *app.AdminService
}

type boardView struct {
	Items   []app.AdminItem   `json:"items"`
	Pending *app.DeletePrompt `json:"pending,omitempty"`
	Notice  *domain.Notice    `json:"notice,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func newBoardView(b *app.AdminBoard) boardView {
	view := boardView{Items: b.Items()}
	if p, ok := b.Pending(); ok {
		view.Pending = &p
	}
	return view
}

// list reloads the client's board from the store.
func (h *adminHandler) list(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Load(r.Context(), clientID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBoardView(board))
}

func (h *adminHandler) requestDelete(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Board(r.Context(), clientID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	prompt, err := board.RequestDelete(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

func (h *adminHandler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	notice, err := h.svc.ConfirmDelete(r.Context(), clientID(r.Context()), authorFrom(r.Context()))
	if err != nil && notice.Message == "" {
		writeError(w, err)
		return
	}
	board, berr := h.svc.Board(r.Context(), clientID(r.Context()))
	if berr != nil {
		writeError(w, berr)
		return
	}
	view := newBoardView(board)
	view.Notice = &notice
	status := http.StatusOK
	if err != nil {
		view.Error = err.Error()
		status = errorStatus(err)
	}
	writeJSON(w, status, view)
}

func (h *adminHandler) cancelDelete(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Board(r.Context(), clientID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	board.CancelDelete()
	w.WriteHeader(http.StatusNoContent)
}

// export streams the displayed list as a spreadsheet.
func (h *adminHandler) export(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Board(r.Context(), clientID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="questions.xlsx"`)
	if err := export.WriteQuestions(w, board.Questions()); err != nil {
		writeError(w, err)
	}
}
