package trigger

import "errors"

// ErrValidation marks malformed or out-of-range user input.
// Callers recover by asking again; it is never fatal.
var ErrValidation = errors.New("invalid input")

var (
	ErrInvalidTime = &validationError{msg: "invalid time of day"}
	ErrNotInFuture = &validationError{msg: "time is not in the future"}
)

// validationError is a named validation failure that also matches ErrValidation.
type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }
