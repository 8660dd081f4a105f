package repository

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery is returned when a statement cannot be built from the caller's
// input, for example an unsupported filter value or an unknown label.
type ErrInvalidQuery struct {
	Field  string // The field or argument that could not be rendered
	Reason string // Why it was rejected
}

func (e ErrInvalidQuery) Error() string {
	return fmt.Sprintf("invalid query for field '%s': %s", e.Field, e.Reason)
}

// IsInvalidQuery checks if an error is a repository invalid query error.
func IsInvalidQuery(err error) bool {
	var target ErrInvalidQuery
	return errors.As(err, &target)
}

// NewInvalidQuery creates a new ErrInvalidQuery.
func NewInvalidQuery(field, reason string) ErrInvalidQuery {
	return ErrInvalidQuery{Field: field, Reason: reason}
}

// ErrUnexpectedResult is returned when the engine answers a write with a result
// that has no record in it, so the canonical projection cannot be returned.
type ErrUnexpectedResult struct {
	Operation string
	Reason    string
}

func (e ErrUnexpectedResult) Error() string {
	return fmt.Sprintf("%s: unexpected result: %s", e.Operation, e.Reason)
}

// IsUnexpectedResult checks if an error is a repository unexpected result error.
func IsUnexpectedResult(err error) bool {
	var target ErrUnexpectedResult
	return errors.As(err, &target)
}
