// Package domain holds shared types used across modules: the error taxonomy
// the HTTP boundary maps to status codes, and small cross-module interfaces.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates no matching row for the request. Handlers map it to 404.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized indicates a missing or invalid session. Handlers map it to 401.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError indicates missing or malformed client input. Handlers map it to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a missing required field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
