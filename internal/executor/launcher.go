package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Exit describes how a launched process finished.
type Exit struct {
	Code   int
	Output string
	Err    error
}

// Process is a launched command. Done yields exactly one Exit.
type Process interface {
	Done() <-chan Exit
}

// Launcher starts invocations. ExecLauncher is the real implementation.
type Launcher interface {
	Launch(ctx context.Context, inv Invocation) (Process, error)
}

// ExecLauncher starts commands with os/exec. Processes are not tied to the
// caller's context: a timeout stops waiting but leaves the process running,
// and a background goroutine reaps it.
type ExecLauncher struct{}

type execProcess struct {
	done chan Exit
}

func (p *execProcess) Done() <-chan Exit { return p.done }

// Launch starts inv and returns immediately.
func (ExecLauncher) Launch(_ context.Context, inv Invocation) (Process, error) {
	cmd := exec.Command(inv.Path, inv.Args...)
	var out bytes.Buffer
	if inv.Detached {
		detach(cmd)
	} else {
		cmd.Stdout = &out
		cmd.Stderr = &out
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{done: make(chan Exit, 1)}
	go func() {
		err := cmd.Wait()
		exit := Exit{Output: out.String()}
		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			exit.Code = exitErr.ExitCode()
		default:
			exit.Code = -1
			exit.Err = err
		}
		p.done <- exit
	}()
	return p, nil
}
