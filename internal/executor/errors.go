package executor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRelativePath rejects candidates whose path is not absolute.
var ErrRelativePath = errors.New("command path is not absolute")

// ExhaustedError is returned when every candidate of a spec failed.
type ExhaustedError struct {
	Op       string
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%s: no command variants available", e.Op)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Invocation, describe(a)))
	}
	return fmt.Sprintf("%s: all %d command variants failed: %s", e.Op, len(e.Attempts), strings.Join(parts, "; "))
}

func describe(a Attempt) string {
	switch {
	case a.TimedOut:
		return "timed out"
	case a.Err != nil:
		return a.Err.Error()
	default:
		return fmt.Sprintf("exit %d", a.ExitCode)
	}
}

// IsExhausted reports whether err is an ExhaustedError.
func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}
