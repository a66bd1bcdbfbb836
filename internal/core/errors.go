package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the Service wraps exactly one of them
// so callers can branch with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrStorage      = errors.New("storage failure")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")
)

// notFound reports a missing entity, e.g. "part 12 not found".
func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v %w", entity, id, ErrNotFound)
}

// conflict reports a uniqueness or state violation.
func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// wrapStore prefixes err with op. Errors that already carry a kind keep it;
// anything else from the store is classified as ErrStorage.
func wrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if isKnownKind(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// WrapStore is wrapStore for packages layered on the core store.
func WrapStore(op string, err error) error {
	return wrapStore(op, err)
}

func isKnownKind(err error) bool {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrStorage, ErrUnauthorized, ErrForbidden, ErrTooManyImports} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
