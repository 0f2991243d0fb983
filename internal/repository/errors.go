package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no submission matches a reference
	ErrNotFound = errors.New("submission not found")

	// ErrDuplicateReference is returned when the reference uniqueness constraint rejects a write
	ErrDuplicateReference = errors.New("duplicate submission reference")

	// ErrInvalidStatus is returned for a status outside the allowed set
	ErrInvalidStatus = errors.New("invalid submission status")
)

// ConstraintError reports a row rejected by a storage-level check
type ConstraintError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConstraintError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("constraint violation: %s", e.Message)
	}
	return fmt.Sprintf("constraint violation on %s: %s", e.Field, e.Message)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}
