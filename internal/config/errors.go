package config

import (
	"errors"
	"fmt"
)

// Error marks a configuration problem detected before any execution:
// malformed grids, empty axes, unknown references, unparsable durations.
// The process surface maps it to its own exit code so operators can tell
// a broken grid from a failed run.
type Error struct {
	msg string
	err error
}

// Errorf builds an Error from a format string. The %w verb wraps an
// underlying cause, reachable via errors.Unwrap.
func Errorf(format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{msg: err.Error(), err: errors.Unwrap(err)}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.err }
