package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every *Error unwraps to exactly one of these.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrIllegalTransition  = errors.New("illegal state transition")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("resource conflict")
)

// Error is a caller-visible failure with an HTTP status attached.
type Error struct {
	Kind       error  `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, code, message string, status int) *Error {
	return &Error{Kind: kind, Code: code, Message: message, StatusCode: status}
}

func NotFound(resource string) *Error {
	return newError(ErrNotFound, "not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// IllegalTransition reports that an operation is not valid from the current
// status. The message never names the blocking rule.
func IllegalTransition(message string) *Error {
	return newError(ErrIllegalTransition, "illegal_transition", message, http.StatusConflict)
}

func Validation(message string) *Error {
	return newError(ErrValidation, "validation_failed", message, http.StatusBadRequest)
}

func InvalidCredentials() *Error {
	return newError(ErrInvalidCredentials, "invalid_credentials", "invalid credentials", http.StatusUnauthorized)
}

func Conflict(message string) *Error {
	return newError(ErrConflict, "conflict", message, http.StatusConflict)
}

// Is reports whether err carries the given kind.
func Is(err, kind error) bool { return errors.Is(err, kind) }

// StatusOf returns the HTTP status for err, 500 for anything unclassified.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
