package probe

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo is a row of the host process table.
type ProcessInfo struct {
	PID     int32
	Name    string
	Exe     string
	Cmdline string
}

// ProcessTable lists and signals host processes.
type ProcessTable interface {
	List(ctx context.Context) ([]ProcessInfo, error)
	Terminate(ctx context.Context, pid int32) error
	Kill(ctx context.Context, pid int32) error
}

// SystemProcesses is the gopsutil-backed ProcessTable.
type SystemProcesses struct{}

// List returns every process whose name could be read. Processes that exit
// while being inspected are skipped.
func (SystemProcesses) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		// Exe needs more privileges than Name for other users' processes.
		exe, _ := p.ExeWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)
		out = append(out, ProcessInfo{PID: p.Pid, Name: name, Exe: exe, Cmdline: cmdline})
	}
	return out, nil
}

// Terminate sends SIGTERM.
func (SystemProcesses) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ignoreGone(err)
	}
	return ignoreGone(p.TerminateWithContext(ctx))
}

// Kill sends SIGKILL.
func (SystemProcesses) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ignoreGone(err)
	}
	return ignoreGone(p.KillWithContext(ctx))
}

func ignoreGone(err error) error {
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return nil
	}
	return err
}
