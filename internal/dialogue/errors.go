package dialogue

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies engine failures for callers that map them to
// transport responses.
type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorNotFound     ErrorCode = "NOT_FOUND"
	ErrorPersistence  ErrorCode = "PERSISTENCE_ERROR"
	ErrorCanceled     ErrorCode = "CANCELED"
)

// Error is the engine's error type. Backend generation failures never
// appear here; those degrade into a canned response instead.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("dialogue: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("dialogue: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatus maps the error to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case ErrorInvalidInput:
		return http.StatusBadRequest
	case ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
