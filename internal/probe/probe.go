// Package probe observes the host and builds RuntimeState snapshots.
package probe

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lmtray/lmtray/internal/executor"
	"github.com/lmtray/lmtray/internal/lmstudio"
	"github.com/lmtray/lmtray/internal/metrics"
	"github.com/lmtray/lmtray/internal/models"
)

// commandRunner is satisfied by *executor.Executor.
type commandRunner interface {
	Execute(ctx context.Context, spec executor.CommandSpec, expect executor.Predicate, timeout time.Duration) (*executor.Result, error)
}

// Prober reads the process table and asks the CLI which models are loaded.
// Every sub-check fails soft: an error reads as "false".
type Prober struct {
	catalog *lmstudio.Catalog
	procs   ProcessTable
	runner  commandRunner
	timeout time.Duration
	log     zerolog.Logger
	selfPID int32
	now     func() time.Time
}

// New creates a Prober. timeout bounds each external command.
func New(catalog *lmstudio.Catalog, procs ProcessTable, runner commandRunner, timeout time.Duration, log zerolog.Logger) *Prober {
	return &Prober{
		catalog: catalog,
		procs:   procs,
		runner:  runner,
		timeout: timeout,
		log:     log,
		selfPID: int32(os.Getpid()),
		now:     time.Now,
	}
}

// Probe takes one full observation. It never returns an error.
func (p *Prober) Probe(ctx context.Context) *models.RuntimeState {
	start := time.Now()
	defer func() { metrics.ProbeDuration.Observe(time.Since(start).Seconds()) }()

	loc := p.catalog.Locator()
	// The table is read before any command runs so the probe never sees its
	// own helper processes.
	table := p.list(ctx)
	st := &models.RuntimeState{
		DaemonInstalled: loc.Daemon() != "" || loc.CLI() != "",
		DaemonRunning:   len(daemonPIDs(table)) > 0,
		DesktopRunning:  len(desktopPIDs(table)) > 0,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st.DesktopInstalled = p.desktopInstalled(gctx, loc)
		return nil
	})
	if st.AnyRunning() {
		g.Go(func() error {
			st.LoadedModels = p.loadedModels(gctx)
			return nil
		})
	}
	_ = g.Wait()

	st.ModelLoaded = len(st.LoadedModels) > 0
	if st.ModelLoaded {
		st.ActiveModelID = st.LoadedModels[0]
	}
	st.ProbedAt = p.now()

	p.log.Debug().
		Bool("daemon_installed", st.DaemonInstalled).
		Bool("daemon_running", st.DaemonRunning).
		Bool("desktop_installed", st.DesktopInstalled).
		Bool("desktop_running", st.DesktopRunning).
		Strs("models", st.LoadedModels).
		Dur("took", time.Since(start)).
		Msg("probe")
	return st
}

// DaemonRunning is a process-table-only check used as a command expectation.
func (p *Prober) DaemonRunning(ctx context.Context) bool {
	return len(daemonPIDs(p.list(ctx))) > 0
}

// DesktopRunning is a process-table-only check used as a command expectation.
func (p *Prober) DesktopRunning(ctx context.Context) bool {
	return len(desktopPIDs(p.list(ctx))) > 0
}

// DaemonPIDs returns the daemon processes.
func (p *Prober) DaemonPIDs(ctx context.Context) []int32 {
	return daemonPIDs(p.list(ctx))
}

// DesktopPIDs returns the desktop app's main processes.
func (p *Prober) DesktopPIDs(ctx context.Context) []int32 {
	return desktopPIDs(p.list(ctx))
}

// LoadedModels lists models reported by the CLI. Failures yield nil.
func (p *Prober) LoadedModels(ctx context.Context) []string {
	return p.loadedModels(ctx)
}

func (p *Prober) list(ctx context.Context) []ProcessInfo {
	table, err := p.procs.List(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("process table unavailable")
		return nil
	}
	out := table[:0:0]
	for _, pi := range table {
		if pi.PID != p.selfPID {
			out = append(out, pi)
		}
	}
	return out
}

func (p *Prober) loadedModels(ctx context.Context) []string {
	res, err := p.runner.Execute(ctx, p.catalog.ListModels(), nil, p.timeout)
	if err != nil {
		p.log.Debug().Err(err).Msg("model listing failed")
		return nil
	}
	return lmstudio.ParseLoadedModels(res.Output())
}

func (p *Prober) desktopInstalled(ctx context.Context, loc *lmstudio.Locator) bool {
	if loc.DesktopApp() != "" {
		return true
	}
	spec := p.catalog.PackageQuery()
	if len(spec.Candidates) == 0 {
		return false
	}
	res, err := p.runner.Execute(ctx, spec, nil, p.timeout)
	if err != nil {
		return false
	}
	return lmstudio.IsPackageInstalled(res.Output())
}

// daemonPIDs matches by exact name first and falls back to the command line.
func daemonPIDs(table []ProcessInfo) []int32 {
	var pids []int32
	for _, pi := range table {
		if lmstudio.IsControlInvocation(pi.Cmdline) {
			continue
		}
		if lmstudio.IsDaemonName(pi.Name) {
			pids = append(pids, pi.PID)
		}
	}
	if len(pids) > 0 {
		return pids
	}
	for _, pi := range table {
		if lmstudio.IsDaemonCommandLine(pi.Cmdline) && !lmstudio.IsControlInvocation(pi.Cmdline) {
			pids = append(pids, pi.PID)
		}
	}
	return pids
}

func desktopPIDs(table []ProcessInfo) []int32 {
	var pids []int32
	for _, pi := range table {
		if lmstudio.IsDesktopProcess(pi.Name, pi.Exe, pi.Cmdline) {
			pids = append(pids, pi.PID)
		}
	}
	return pids
}
