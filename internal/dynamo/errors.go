package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for map operations.
var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("dynamo: validation failed")

	// ErrCanceled indicates an iteration was interrupted by its context.
	ErrCanceled = errors.New("dynamo: iteration canceled by context")
)

// ValidationError reports input that a map cannot be built or iterated from:
// mismatched batches, missing constants, non-square grids and the like.
// The caller may correct the input and retry.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "dynamo: " + e.Reason
	}
	return fmt.Sprintf("dynamo: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IterationError wraps an error with the step and orbit it happened on.
type IterationError struct {
	Orbit   int
	Step    int
	Wrapped error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("orbit %d step %d: %v", e.Orbit, e.Step, e.Wrapped)
}

func (e *IterationError) Unwrap() error {
	return e.Wrapped
}
