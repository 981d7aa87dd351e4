package controller

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Apply.
var (
	ErrNotInstalled = errors.New("not installed")
	ErrNotRunning   = errors.New("no runtime is running")
	ErrNoModel      = errors.New("no model configured")
	ErrStillRunning = errors.New("still running after forced stop")
	ErrUnsupported  = errors.New("unsupported action")
)

// ConflictError reports that the peer runtime survived a mode switch.
type ConflictError struct {
	Wanted string
	Peer   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s started but %s is still running", e.Wanted, e.Peer)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}
