// Package executor runs external commands through ordered fallback chains.
package executor

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Invocation is one concrete command variant.
type Invocation struct {
	Path string
	Args []string
	// Detached launches do not capture output; used for GUI launchers that
	// keep running after the attempt is judged.
	Detached bool
}

// String renders the invocation as "name arg...".
func (i Invocation) String() string {
	parts := append([]string{filepath.Base(i.Path)}, i.Args...)
	return strings.Join(parts, " ")
}

// CommandSpec is the ordered list of variants for one logical operation.
type CommandSpec struct {
	Op         string
	Candidates []Invocation
	// ConfirmByProbe ignores exit codes: each candidate is judged only by
	// the expectation after Settle has elapsed.
	ConfirmByProbe bool
	Settle         time.Duration
}

// Add appends a candidate when path is non-empty.
func (s *CommandSpec) Add(path string, args ...string) {
	if path == "" {
		return
	}
	s.Candidates = append(s.Candidates, Invocation{Path: path, Args: args})
}

// Predicate re-probes the host for the expected terminal state.
type Predicate func(ctx context.Context) bool

// Attempt records how a single candidate fared.
type Attempt struct {
	Invocation Invocation
	ExitCode   int
	Output     string
	TimedOut   bool
	Confirmed  bool
	Succeeded  bool
	Err        error
	Duration   time.Duration
}

// Outcome is a short label for logs and metrics.
func (a Attempt) Outcome() string {
	switch {
	case a.Succeeded && a.Confirmed:
		return "confirmed"
	case a.Succeeded:
		return "ok"
	case a.TimedOut:
		return "timeout"
	case a.Err != nil:
		return "error"
	default:
		return "exit_nonzero"
	}
}

// Result lists the attempts made for a spec, in order.
type Result struct {
	Op       string
	Attempts []Attempt
}

// Winner returns the successful attempt, if any.
func (r *Result) Winner() (Attempt, bool) {
	if r == nil || len(r.Attempts) == 0 {
		return Attempt{}, false
	}
	last := r.Attempts[len(r.Attempts)-1]
	return last, last.Succeeded
}

// Output returns the winning attempt's output.
func (r *Result) Output() string {
	a, ok := r.Winner()
	if !ok {
		return ""
	}
	return a.Output
}
