package http

import (
	"net/http"

	"quiz-studio/internal/app"
)

type identityHandler struct {
	svc *app.IdentityService
}

type identityView struct {
	Name string `json:"name"`
	Set  bool   `json:"set"`
}

func (h *identityHandler) get(w http.ResponseWriter, r *http.Request) {
	author, ok, err := h.svc.Get(r.Context(), clientID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identityView{Name: author.Name, Set: ok})
}

func (h *identityHandler) save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	author, err := h.svc.Save(r.Context(), clientID(r.Context()), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identityView{Name: author.Name, Set: true})
}

func (h *identityHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context(), clientID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
