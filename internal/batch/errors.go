package batch

import "fmt"

// ValidationError rejects a malformed batch request before any job exists.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid batch request: %s: %s", e.Field, e.Reason)
}

// StateError rejects a transition that is not valid for the current
// snapshot. The snapshot the transition was applied to is left untouched.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s", e.Op, e.Reason)
}
