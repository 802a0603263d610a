// Package apperror defines the closed set of domain error kinds returned by
// the record services. HTTP handlers match these with errors.Is to pick a
// status code; nothing else in the codebase knows about status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Every *AppError wraps exactly one of these.
var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type AppError struct {
	Err     error             // one of the kinds above
	Message string            // human-readable, safe to show to clients
	Field   string            // optional: field causing the error
	Errors  map[string]string // optional: per-key details, e.g. "credentials"
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a failed lookup, naming the missing id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("For the id %s, no %s could be found.", id, resource),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a duplicate value for a key that must be unique.
func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with %s exists already", resource, key),
	}
}

// InvalidCredentials is the single shape returned for every login failure,
// whether the email is unknown or the password is wrong.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid credentials.",
		Errors:  map[string]string{"credentials": "Invalid email or password entered."},
	}
}

// Unauthorized is returned by the boundary when a bearer token is missing
// or fails validation.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// StorageUnavailable wraps an I/O failure of the backing file for the named
// collection. The cause is kept for logging via Cause but never appears in
// Message.
func StorageUnavailable(collection string, cause error) *AppError {
	return &AppError{
		Err:     &storageError{kind: ErrStorageUnavailable, cause: cause},
		Message: fmt.Sprintf("%s storage is unavailable", collection),
	}
}

// Cause returns the underlying I/O error of a StorageUnavailable error, or
// nil for every other kind.
func Cause(err error) error {
	var se *storageError
	if errors.As(err, &se) {
		return se.cause
	}
	return nil
}

// storageError lets errors.Is match both ErrStorageUnavailable and the
// original I/O error (e.g. fs.ErrPermission) in the chain.
type storageError struct {
	kind  error
	cause error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.cause)
}

func (e *storageError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Kind returns the error kind wrapped by err, or nil when err carries none.
func Kind(err error) error {
	for _, kind := range []error{
		ErrValidation,
		ErrNotFound,
		ErrConflict,
		ErrInvalidCredentials,
		ErrUnauthorized,
		ErrStorageUnavailable,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
