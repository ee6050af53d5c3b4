package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quiz-studio/internal/domain"
)

type errorPayload struct {
	Error      string `json:"error"`
	PromptName bool   `json:"promptName,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	writeJSON(w, status, errorPayload{
		Error:      err.Error(),
		PromptName: errors.Is(err, domain.ErrIdentityRequired),
	})
}

func errorStatus(err error) int {
	var bad badRequest
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAdminOnly):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrIdentityRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, domain.ErrInvalidChoice):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSubmitInFlight),
		errors.Is(err, domain.ErrSessionConflict),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrSessionNotActive),
		errors.Is(err, domain.ErrSessionNotFinished),
		errors.Is(err, domain.ErrSessionEmpty),
		errors.Is(err, domain.ErrOutOfRange),
		errors.Is(err, domain.ErrNoPendingDelete):
		return http.StatusConflict
	case errors.Is(err, domain.ErrFetchFailed), errors.Is(err, domain.ErrWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest{err}
	}
	return nil
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return "invalid request body: " + b.err.Error() }

func (b badRequest) Unwrap() error { return b.err }
