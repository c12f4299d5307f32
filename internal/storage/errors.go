package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a record does not exist. Typed lookups return
// a *NotFoundError that matches it via errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError reports which record a lookup missed.
type NotFoundError struct {
	Kind string // "character", "relationship" or "graph"
	Key  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Kind, e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
