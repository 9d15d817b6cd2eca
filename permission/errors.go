package permission

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("permission: validation failed")

	// ErrCircularInheritance indicates a role upsert would create an
	// inheritance cycle.
	ErrCircularInheritance = errors.New("permission: circular inheritance")

	// ErrUnknownRole indicates a user grant references a role that does not exist.
	ErrUnknownRole = errors.New("permission: unknown role")

	// ErrInvalidCondition indicates a condition with an unknown kind,
	// operator or malformed value.
	ErrInvalidCondition = errors.New("permission: invalid condition")
)

// ValidationError reports malformed input to a store-mutating call. The store
// is never modified when one is returned.
type ValidationError struct {
	// Op is the rejected operation, e.g. "set role".
	Op string

	// Reason explains what was wrong with the input.
	Reason string

	// Cause is the underlying sentinel, if any.
	Cause error
}

func newValidationError(op, reason string, cause error) *ValidationError {
	return &ValidationError{Op: op, Reason: reason, Cause: cause}
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("permission: %s: %s", e.Op, e.Reason)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
