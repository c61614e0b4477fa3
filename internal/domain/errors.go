// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInsufficientFunds is returned when an account balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientStock is returned when a product has fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrUnauthorized is returned when no authenticated principal is present.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrForbidden is returned when the principal lacks the capability for an operation.
	ErrForbidden = errors.New("operation not permitted for principal")
)

// ValidationError describes a single invalid field. It wraps ErrValidation
// (or a more specific sentinel) so callers can match it with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for the given field.
// If err is nil, ErrValidation is used.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation as a match for every ValidationError, whatever
// the wrapped sentinel is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
