package shared

import "errors"

// Error categories. Domain packages classify their sentinel errors under one of
// these so the HTTP layer can map them without importing every domain package.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the resource is in a state that forbids the operation.
	ErrConflict = errors.New("conflict")
	// ErrInvariant indicates a cross-entity consistency rule was violated.
	ErrInvariant = errors.New("invariant violation")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)

type classifiedError struct {
	kind error
	msg  string
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Unwrap() error { return e.kind }

// NewError returns a sentinel error carrying msg that matches kind under errors.Is.
func NewError(kind error, msg string) error {
	return &classifiedError{kind: kind, msg: msg}
}
