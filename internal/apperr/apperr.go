// Package apperr holds the error kinds shared by every service in the
// back office. Stores and services wrap these so that callers can branch
// with errors.Is / errors.As without knowing where the failure happened.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict is returned when a transaction could not obtain
	// the locks it needed (deadlock, lock timeout, serialization failure).
	// The whole operation must be retried by the caller.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError reports invalid caller input. Nothing is written when one
// is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError for the given field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Invalidf is Invalid with a formatted reason.
func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
