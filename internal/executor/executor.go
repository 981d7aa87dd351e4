package executor

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lmtray/lmtray/internal/metrics"
)

const maxOutput = 64 * 1024

// Executor tries the candidates of a CommandSpec in order until one succeeds.
type Executor struct {
	launcher Launcher
	log      zerolog.Logger
}

// New creates an Executor.
func New(launcher Launcher, log zerolog.Logger) *Executor {
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	return &Executor{launcher: launcher, log: log}
}

// Execute runs spec. A candidate succeeds when it exits 0, or when it times
// out and expect confirms the target state. ConfirmByProbe specs are judged
// by expect alone. If every candidate fails the result is returned together
// with an *ExhaustedError.
func (e *Executor) Execute(ctx context.Context, spec CommandSpec, expect Predicate, timeout time.Duration) (*Result, error) {
	res := &Result{Op: spec.Op}
	for _, inv := range spec.Candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		a := e.attempt(ctx, spec, inv, expect, timeout)
		res.Attempts = append(res.Attempts, a)
		metrics.CommandAttempts.WithLabelValues(spec.Op, a.Outcome()).Inc()

		ev := e.log.Debug()
		if !a.Succeeded {
			ev = e.log.Warn()
		}
		ev.Str("op", spec.Op).
			Str("cmd", inv.String()).
			Str("outcome", a.Outcome()).
			Int("exit", a.ExitCode).
			Dur("took", a.Duration).
			AnErr("error", a.Err).
			Msg("command attempt")

		if a.Succeeded {
			return res, nil
		}
	}
	return res, &ExhaustedError{Op: spec.Op, Attempts: res.Attempts}
}

// RunOnce runs a single invocation with output capture and no fallback.
func (e *Executor) RunOnce(ctx context.Context, inv Invocation, timeout time.Duration) Attempt {
	return e.attempt(ctx, CommandSpec{Op: "run-once"}, inv, nil, timeout)
}

func (e *Executor) attempt(ctx context.Context, spec CommandSpec, inv Invocation, expect Predicate, timeout time.Duration) (a Attempt) {
	start := time.Now()
	a = Attempt{Invocation: inv, ExitCode: -1}
	defer func() { a.Duration = time.Since(start) }()

	if !filepath.IsAbs(inv.Path) {
		a.Err = ErrRelativePath
		return a
	}

	wait := timeout
	if spec.ConfirmByProbe && spec.Settle > 0 && (wait <= 0 || spec.Settle < wait) {
		wait = spec.Settle
	}

	proc, err := e.launcher.Launch(ctx, inv)
	if err != nil {
		a.Err = err
		return a
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case exit := <-proc.Done():
		a.ExitCode = exit.Code
		a.Output = trimOutput(exit.Output)
		a.Err = exit.Err
		if spec.ConfirmByProbe {
			// Launchers usually return before the app is up.
			if !sleepCtx(ctx, wait-time.Since(start)) {
				a.Err = ctx.Err()
				return a
			}
			a.Confirmed = confirm(ctx, expect)
			a.Succeeded = a.Confirmed
			return a
		}
		a.Succeeded = exit.Err == nil && exit.Code == 0
	case <-timer.C:
		a.TimedOut = !spec.ConfirmByProbe
		a.Confirmed = confirm(ctx, expect)
		a.Succeeded = a.Confirmed
	case <-ctx.Done():
		a.Err = ctx.Err()
	}
	return a
}

func confirm(ctx context.Context, expect Predicate) bool {
	return expect != nil && expect(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func trimOutput(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutput {
		s = s[:maxOutput]
	}
	return s
}
