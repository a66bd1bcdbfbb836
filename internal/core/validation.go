package core

// validation.go holds the two validation shapes used across the package:
//
//   - ValidationError: a single field failure. Mutations (register, update,
//     save) stop at the first one.
//   - FieldErrors: a field -> message map. Search criteria validation collects
//     every failure so all of them can be shown together.

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap classifies the error as ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, value, message string) error {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// FieldErrors collects validation messages keyed by field.
// The first message recorded for a field wins.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Merge copies every entry of other that fe does not have yet.
func (fe FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		fe.Add(k, v)
	}
}

// Fields returns the field names in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Err returns fe as an error, or nil when it is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, k := range fe.Fields() {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid search criteria: " + strings.Join(parts, "; ")
}

// Unwrap classifies the error as ErrValidation.
func (fe FieldErrors) Unwrap() error {
	return ErrValidation
}

// Field limits, in characters.
const (
	maxPartNumberLen      = 50
	maxPartNameLen        = 100
	maxManufacturerLen    = 100
	maxPartDescriptionLen = 1000
	maxCategoryNameLen    = 100
	maxCategoryDescLen    = 500
)

// checkLength fails when value is longer than limit characters.
func checkLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return invalid(field, value, fmt.Sprintf("must be at most %d characters", limit))
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
