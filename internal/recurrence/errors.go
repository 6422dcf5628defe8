package recurrence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRef is returned when a string cannot be parsed as an item reference.
	ErrInvalidRef = errors.New("invalid item reference")

	// ErrInvalidWindow is returned when a window ends before it starts.
	ErrInvalidWindow = errors.New("invalid window: end before start")
)

// ValidationError reports a malformed rule field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recurrence %s: %s", e.Field, e.Reason)
}
