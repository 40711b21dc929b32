package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError lists every field that blocked a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing or invalid %s", strings.Join(e.Fields, ", "))
}

// Is lets callers test with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidEventError is returned when a catalog entry breaks an event invariant.
type InvalidEventError struct {
	EventID string
	Reason  string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid event %q: %s", e.EventID, e.Reason)
}

// InvariantViolation is the panic value raised on programming faults such as
// a holder count that does not match the ticket count. It is never returned
// as an error.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (v InvariantViolation) String() string {
	return fmt.Sprintf("invariant violated: %s (%s)", v.Invariant, v.Detail)
}

// Error makes the value printable by recoverers that expect an error.
func (v InvariantViolation) Error() string {
	return v.String()
}
