// ABOUTME: Error taxonomy for goal lifecycle and progress operations.
// ABOUTME: Sentinels for absent data, typed errors for validation and store failures.
package goals

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveGoal          = errors.New("no active goal")
	ErrNoBodyCompositionData = errors.New("no body composition data")
	ErrGoalNotFound          = errors.New("goal not found")
)

// ValidationError reports a goal that breaks a bound or consistency rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid goal: " + e.Reason
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// FetchError wraps a failure from the underlying Store.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
