package domain

import "errors"

var (
	// ErrFetchFailed is returned when questions could not be read from the repository.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrWriteFailed is returned when the repository rejected an insert, update or delete.
	ErrWriteFailed = errors.New("write failed")
	// ErrValidationFailed marks a required field left empty; the repository is never called.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNotFound indicates the requested question does not exist.
	ErrNotFound = errors.New("question not found")
	// ErrAdminOnly is returned for edit or delete attempts on admin-only questions.
	ErrAdminOnly = errors.New("question is admin-only")

	// ErrSessionNotFound is returned when a quiz session id is unknown or already discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionEmpty indicates the session has no questions to play.
	ErrSessionEmpty = errors.New("no questions available")
	// ErrSessionNotActive is returned when answering outside the active state.
	ErrSessionNotActive = errors.New("quiz session is not active")
	// ErrSessionNotFinished is returned when a summary is requested too early.
	ErrSessionNotFinished = errors.New("quiz session is not finished")
	// ErrSessionConflict is returned when a concurrent write changed the session first.
	ErrSessionConflict = errors.New("quiz session was modified concurrently")
	// ErrOutOfRange is returned for the current question once every question is answered.
	ErrOutOfRange = errors.New("question index out of range")
	// ErrAlreadyAnswered is returned for a second submission to the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidChoice indicates the chosen index is outside the question's choices.
	ErrInvalidChoice = errors.New("choice index out of range")

	// ErrIdentityRequired means no display name is stored for the client.
	ErrIdentityRequired = errors.New("display name required")
	// ErrSubmitInFlight is returned while a previous save for the same form is pending.
	ErrSubmitInFlight = errors.New("save already in progress")
	// ErrNoPendingDelete is returned when confirming without an open delete prompt.
	ErrNoPendingDelete = errors.New("no delete pending confirmation")
)
