// Package common defines shared sentinel errors used across services,
// storage adapters and the worker. Callers match them with errors.Is.
package common

import "errors"

var (
	// ErrNotFound covers both a missing record and an ownership mismatch;
	// the two are deliberately indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized covers missing, unknown and expired tokens as well as
	// bad credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal is an unexpected store or filesystem failure.
	ErrInternal = errors.New("internal error")
)

// ValidationError is a malformed-request error carrying the exact message
// returned to the client, e.g. "Missing name" or "Parent is not a folder".
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with the given client message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// AsValidation reports whether err is a ValidationError and returns it.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
