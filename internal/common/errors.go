// Package common defines the sentinel errors and shared constants used across
// the server, the HTTP boundary and the command-line client. Callers match
// these values with errors.Is; wrapping layers keep them in the chain.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrValidation      = errors.New("validation error")
	ErrTooManyAttempts = errors.New("too many attempts")

	// Token errors. Both are authentication failures.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrorUnauthorized)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
)

// FieldError reports a missing or malformed request field.
type FieldError struct {
	Field  string
	Reason string
}

// Required builds the FieldError for an absent field.
func Required(field string) *FieldError {
	return &FieldError{Field: field, Reason: "is required"}
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

// Unwrap lets errors.Is(err, ErrValidation) match any FieldError.
func (e *FieldError) Unwrap() error {
	return ErrValidation
}
