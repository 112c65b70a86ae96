package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCursor indicates a malformed, tampered or stale pagination token.
	// The caller must restart from an unpaginated search.
	ErrInvalidCursor = errors.New("invalid pagination token")

	// ErrQueryExecution indicates the database was unavailable or timed out.
	// Retryable by the caller; the core never retries internally.
	ErrQueryExecution = errors.New("query execution failed")

	// ErrInvalidSortKey indicates the configured sort key does not define a
	// total order over items. Checked at startup, never per request.
	ErrInvalidSortKey = errors.New("sort key does not define a total order")
)

// FieldError describes one offending request field
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every invalid clause of a search request.
// All offending fields are collected before the request is rejected, so the
// caller sees the full list rather than the first failure.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid search request"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return "invalid search request: " + strings.Join(parts, "; ")
}

// Add records an offending field
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Addf records an offending field with a formatted reason
func (e *ValidationError) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

// Merge appends the fields of another validation error
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Fields = append(e.Fields, other.Fields...)
	}
}

// HasErrors reports whether any field was rejected
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Unwrap makes ValidationError match errors.Is(err, ErrInvalidInput)
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// AsValidationError extracts a ValidationError from an error chain
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
