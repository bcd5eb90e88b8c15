// Package apperror is the error vocabulary shared by the service and handler
// layers. Services return *AppError values wrapping one of the sentinels
// below; handlers turn the sentinel into a status code with errors.Is and
// show Message to the client. Anything else is treated as internal.
package apperror

import "fmt"

// Sentinels, matched with errors.Is.
var (
	ErrNotFound     = sentinel("not found")
	ErrValidation   = sentinel("validation failed")
	ErrConflict     = sentinel("conflict")
	ErrForbidden    = sentinel("forbidden")
	ErrUnauthorized = sentinel("unauthorized")
)

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

func sentinel(text string) error { return sentinelError(text) }

// AppError is a classified error with a client-safe message.
type AppError struct {
	Err     error  // one of the sentinels
	Message string // safe to show to the client
	Field   string // input field at fault, for validation errors
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource, e.g. NotFound("user", id).
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, id),
	}
}

// ValidationFailed reports bad input in field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports that key is already taken by another resource.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", resource, key),
	}
}

// Forbidden reports an identified caller acting outside their permissions.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Unauthorized reports a request without a valid identity.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}
