package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that was rejected before any state changed.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an entity that is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrTransaction marks a store transaction that could not commit and was rolled back.
	ErrTransaction = errors.New("transaction failure")
	// ErrInvalidEntryKind is raised by the delta calculator for an unrecognized kind.
	ErrInvalidEntryKind = errors.New("invalid entry kind")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrValidation, e.Message, e.Field)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// NotFoundError wraps ErrNotFound with the entity name and id.
func NotFoundError(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// IsDomainError reports whether err belongs to the caller-facing taxonomy
// rather than to the underlying store.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidEntryKind) ||
		errors.Is(err, ErrTransaction)
}
