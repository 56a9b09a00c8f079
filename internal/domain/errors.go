package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuestionFetch is returned when the question bank could not be read.
	// Callers treat it as "zero questions available", not a crash.
	ErrQuestionFetch = errors.New("question fetch failed")
	// ErrNoToken is returned when an operation that needs an authenticated
	// session is attempted without a bearer token.
	ErrNoToken = errors.New("no auth token")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrSubmission is returned when posting the scored batch failed.
	// The session's submitted flag is rolled back so the user can retry.
	ErrSubmission = errors.New("attempt submission failed")
	// ErrAlreadySubmitted is returned when a session is submitted twice.
	ErrAlreadySubmitted = errors.New("session already submitted")
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrForbidden is returned when the token's role does not allow an operation.
	ErrForbidden = errors.New("role not authorized")
)

// ServerError carries a non-2xx backend response. The body is kept, when
// present, for diagnostic display.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}
