package desktop

import (
	"errors"
	"fmt"
)

// ErrWindowNotFound is returned when an action addresses a window that is
// not open. It is the only error the reducer produces.
var ErrWindowNotFound = errors.New("window not found")

// WindowNotFoundError carries the id that failed to resolve.
type WindowNotFoundError struct {
	ID WindowID
}

func (e *WindowNotFoundError) Error() string {
	return fmt.Sprintf("window %d not found", e.ID)
}

// Is lets errors.Is(err, ErrWindowNotFound) match.
func (e *WindowNotFoundError) Is(target error) bool {
	return target == ErrWindowNotFound
}

func notFound(id WindowID) error {
	return &WindowNotFoundError{ID: id}
}
