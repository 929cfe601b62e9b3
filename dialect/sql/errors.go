package sql

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed builder errors through errors.Is.
var (
	// ErrArity is matched by *ArityError.
	ErrArity = errors.New("dialect/sql: wrong number of arguments")

	// ErrInvalidState is matched by *InvalidStateError.
	ErrInvalidState = errors.New("dialect/sql: invalid clause state")

	// ErrType is matched by *TypeError.
	ErrType = errors.New("dialect/sql: wrong argument type")
)

// ArityError is returned when a clause receives no effective arguments, or
// an argument count outside the accepted call shapes.
type ArityError struct {
	Clause   string // Clause name (e.g., "SELECT", "INNER JOIN")
	Expected string // Accepted argument count (e.g., "at least 1", "2 or 3")
	Got      int    // Argument count after flattening
}

// Error returns the error string.
func (e *ArityError) Error() string {
	return fmt.Sprintf("dialect/sql: %s: expected %s argument(s), got %d", e.Clause, e.Expected, e.Got)
}

// Is reports whether the target error matches ArityError.
// This allows errors.Is(err, ErrArity) to return true.
func (e *ArityError) Is(err error) bool {
	return err == ErrArity
}

// IsArityError returns true if the error is an ArityError.
func IsArityError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArityError
	return errors.As(err, &e)
}

// InvalidStateError is returned when a clause is invoked out of order, for
// example a join that does not directly follow FROM, or HAVING without a
// preceding GROUP BY.
type InvalidStateError struct {
	Clause string     // Clause that was rejected
	Last   ClauseKind // Most recently appended clause at the time of the call
	Reason string     // What the clause requires
}

// Error returns the error string.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("dialect/sql: %s: %s (last clause: %s)", e.Clause, e.Reason, e.Last)
}

// Is reports whether the target error matches InvalidStateError.
func (e *InvalidStateError) Is(err error) bool {
	return err == ErrInvalidState
}

// IsInvalidStateError returns true if the error is an InvalidStateError.
func IsInvalidStateError(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidStateError
	return errors.As(err, &e)
}

// TypeError is returned when an argument does not have the shape required
// by the call form it matched.
type TypeError struct {
	Clause string // Clause name
	Index  int    // Zero-based argument position
	Want   string // Expected shape
	Got    any    // Offending value
}

// Error returns the error string.
func (e *TypeError) Error() string {
	return fmt.Sprintf("dialect/sql: %s: argument %d: expected %s, got %T(%v)", e.Clause, e.Index, e.Want, e.Got, e.Got)
}

// Is reports whether the target error matches TypeError.
func (e *TypeError) Is(err error) bool {
	return err == ErrType
}

// IsTypeError returns true if the error is a TypeError.
func IsTypeError(err error) bool {
	if err == nil {
		return false
	}
	var e *TypeError
	return errors.As(err, &e)
}
