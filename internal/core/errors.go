package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("expense not found")

	ErrEmptyTitle      = errors.New("empty title")
	ErrMissingAmount   = errors.New("missing amount")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrMissingCategory = errors.New("missing category")
	ErrInvalidCategory = errors.New("invalid category")
	ErrMissingDate     = errors.New("missing date")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
)

// ValidationError reports a missing or invalid field on create/update.
// Nothing is mutated when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NotFoundError reports an update or delete against an unknown id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
