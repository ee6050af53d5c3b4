package http

import (
	"net/http"

	"quiz-studio/internal/app"

	"github.com/go-chi/chi/v5"
)

type questionHandler struct {
	svc *app.AuthoringService
}

type formView struct {
	Mode   app.FormMode   `json:"mode"`
	ID     string         `json:"id,omitempty"`
	Fields app.FormFields `json:"fields"`
}

func newFormView(f *app.Form) formView {
	return formView{Mode: f.Mode(), ID: f.ID(), Fields: f.Fields()}
}

func (h *questionHandler) blank(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Open(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFormView(form))
}

func (h *questionHandler) open(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFormView(form))
}

func (h *questionHandler) create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "", http.StatusCreated)
}

func (h *questionHandler) update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *questionHandler) submit(w http.ResponseWriter, r *http.Request, id string, okStatus int) {
	var fields app.FormFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.svc.Submit(r.Context(), clientID(r.Context()), authorFrom(r.Context()), id, fields)
	if err != nil {
		if out.Notice.Message == "" {
			writeError(w, err)
			return
		}
		writeJSON(w, errorStatus(err), struct {
			app.SubmitOutcome
			Error string `json:"error"`
		}{out, err.Error()})
		return
	}
	writeJSON(w, okStatus, out)
}
