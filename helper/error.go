package helper

import (
	"fmt"
)

// Error wraps an underlying error with the operation that produced it
type Error struct {
	Context string
	Err     error
}

// NewError wraps err with the given operation context.
// Returns nil if err is nil so it can be used on return paths directly.
func NewError(context string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Context: context, Err: err}
}

// Error returns "<context>: <err>"
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}
