package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced persisted entity does not exist.
	ErrNotFound = errors.New("not found")
)

// FormatError reports malformed domain name text.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid domain name %q: %s", e.Input, e.Reason)
}

// ValidationError reports a violated invariant on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConstraintError is a persistence-layer rejection such as a uniqueness violation.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// ValidationFields returns the field names of every ValidationError inside err,
// including errors combined with errors.Join.
func ValidationFields(err error) []string {
	var fields []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(*ValidationError); ok {
			fields = append(fields, ve.Field)
			return
		}
		switch x := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(x.Unwrap())
		}
	}
	walk(err)
	return fields
}
