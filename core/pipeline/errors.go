package pipeline

import "errors"

var (
	// ErrRouteMismatch tells the router to try the next route
	ErrRouteMismatch = errors.New("route mismatch")
	// ErrEntityNotLoaded is returned when a stage needs an entity that no earlier stage loaded
	ErrEntityNotLoaded = errors.New("entity failed to load")
)

// NotFoundError is a user facing not found error with a display message
type NotFoundError struct {
	Message string
	Err     error
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
