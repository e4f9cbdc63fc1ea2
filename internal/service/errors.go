package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both truly absent and not-owned assets so the
	// response never leaks which of the two it was.
	ErrNotFound = errors.New("item not found")

	// ErrTierRequired signals an account with no tier assigned; distinct
	// from an authorization failure.
	ErrTierRequired = errors.New("account has no tier assigned")
)

// ValidationError carries a field-keyed message map for 400 responses.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
