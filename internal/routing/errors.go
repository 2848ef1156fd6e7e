package routing

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the points handed to the sequencer cannot
// form a route
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError describes which point was rejected and why.
// Index is -1 when the error concerns the list as a whole.
type InvalidInputError struct {
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: point %d: %s", e.Index, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
