package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable codes used in HTTP error envelopes.
const (
	CodeInternal     = "INTERNAL_SERVER_ERROR"
	CodeDB           = "DB_ERROR"
	CodeStorage      = "STORAGE_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// StorageErrorMessage describes conversation state store failures.
	StorageErrorMessage = "state store operation failed"
	// StorageNotFoundMessage describes a missing conversation state key.
	StorageNotFoundMessage = "conversation state not found"
)

// AppError wraps an underlying error with an HTTP status, a stable code and a
// safe message for the response envelope.
type AppError struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, code, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// Internal wraps an error as a generic internal failure.
func Internal(err error, message string) *AppError {
	return New(err, http.StatusInternalServerError, CodeInternal, message)
}

// Unauthorized builds a 403 error for ownership violations.
func Unauthorized(message string) *AppError {
	return New(nil, http.StatusForbidden, CodeUnauthorized, message)
}

// NotFound builds a 404 error.
func NotFound(message string) *AppError {
	return New(nil, http.StatusNotFound, CodeNotFound, message)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
