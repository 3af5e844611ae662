// Package apperror defines the error kinds the API surfaces to clients.
// Services return these; handlers translate them to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateEmail  = errors.New("email already in use")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("store unavailable")
)

// AppError wraps one of the sentinel kinds with a client-facing message.
type AppError struct {
	Err     error  // sentinel kind, matched with errors.Is
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation reports bad input shape or content on a named field.
func Validation(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// DuplicateEmail reports a uniqueness violation on the email column.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: fmt.Sprintf("email %s is already registered", email),
		Field:   "email",
	}
}

// Unauthenticated reports a missing, invalid, expired, or revoked
// credential. The message is deliberately uniform so callers cannot tell
// which check failed.
func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "please authenticate",
	}
}

// NotFound reports an absent resource for an otherwise-authenticated caller.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Unavailable reports a failing storage collaborator. The cause stays in
// the error chain for logs; the client only sees the generic message.
func Unavailable(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrUnavailable, err),
		Message: "service temporarily unavailable",
	}
}
