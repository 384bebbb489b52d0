package scenario

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every *Error via errors.Is.
var ErrInvalid = errors.New("scenario: invalid configuration")

// Error is a rejected scenario entry. Key names the offending top-level key.
type Error struct {
	Key     string
	Wrapped error
}

func (e *Error) Error() string {
	return e.Wrapped.Error()
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func invalidf(key, format string, args ...any) *Error {
	return &Error{Key: key, Wrapped: fmt.Errorf(format, args...)}
}
