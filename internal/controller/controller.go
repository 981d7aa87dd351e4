// Package controller turns user actions into ordered command sequences that
// keep the daemon and the desktop app mutually exclusive.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lmtray/lmtray/internal/executor"
	"github.com/lmtray/lmtray/internal/lmstudio"
	"github.com/lmtray/lmtray/internal/models"
)

// Prober observes the host.
type Prober interface {
	Probe(ctx context.Context) *models.RuntimeState
	DaemonRunning(ctx context.Context) bool
	DesktopRunning(ctx context.Context) bool
	DaemonPIDs(ctx context.Context) []int32
	DesktopPIDs(ctx context.Context) []int32
}

// Signaler delivers termination signals.
type Signaler interface {
	Terminate(ctx context.Context, pid int32) error
	Kill(ctx context.Context, pid int32) error
}

// Runner executes command fallback chains.
type Runner interface {
	Execute(ctx context.Context, spec executor.CommandSpec, expect executor.Predicate, timeout time.Duration) (*executor.Result, error)
}

// UpdateChecker performs an on-demand release check.
type UpdateChecker interface {
	CheckNow(ctx context.Context) (models.UpdateInfo, error)
}

// Catalog builds command chains.
type Catalog interface {
	StartDaemon() executor.CommandSpec
	StopDaemon() executor.CommandSpec
	LaunchDesktop(settle time.Duration) executor.CommandSpec
	LoadModel(model, gpu string) executor.CommandSpec
}

// Config holds timing and model settings.
type Config struct {
	CommandTimeout time.Duration
	Settle         time.Duration
	StopGrace      time.Duration
	PollInterval   time.Duration
	Model          string
	GPU            string
}

// Step names recorded in an Outcome.
const (
	StepStopDesktop   = "stop-desktop"
	StepStopDaemon    = "stop-daemon"
	StepForceStop     = "force-stop-daemon"
	StepStartDaemon   = "start-daemon"
	StepLaunchDesktop = "launch-desktop"
	StepLoadModel     = "load-model"
	StepCheckUpdate   = "check-update"
	StepReload        = "reload"
)

// Outcome describes what an action did.
type Outcome struct {
	Action  models.Action
	Steps   []string
	Results []*executor.Result
	// Noop is set when the host was already in the requested state.
	Noop   bool
	Update *models.UpdateInfo
}

func (o *Outcome) step(name string) { o.Steps = append(o.Steps, name) }

func (o *Outcome) record(r *executor.Result) {
	if r != nil {
		o.Results = append(o.Results, r)
	}
}

// Controller applies actions.
type Controller struct {
	probe   Prober
	signals Signaler
	runner  Runner
	catalog Catalog
	updates UpdateChecker
	cfg     Config
	log     zerolog.Logger

	modelMu sync.RWMutex
}

// New creates a Controller.
func New(probe Prober, signals Signaler, runner Runner, catalog Catalog, updates UpdateChecker, cfg Config, log zerolog.Logger) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Controller{
		probe:   probe,
		signals: signals,
		runner:  runner,
		catalog: catalog,
		updates: updates,
		cfg:     cfg,
		log:     log,
	}
}

// SetModel changes the model used by LoadModel. It is safe to call while
// actions run.
func (c *Controller) SetModel(model, gpu string) {
	c.modelMu.Lock()
	defer c.modelMu.Unlock()
	c.cfg.Model = model
	if gpu != "" {
		c.cfg.GPU = gpu
	}
}

func (c *Controller) model() (string, string) {
	c.modelMu.RLock()
	defer c.modelMu.RUnlock()
	return c.cfg.Model, c.cfg.GPU
}

// Apply performs action. It blocks until the transition finishes and must
// not be called on the UI goroutine.
func (c *Controller) Apply(ctx context.Context, action models.Action) (*Outcome, error) {
	out := &Outcome{Action: action}
	var err error
	switch action {
	case models.ActionStartDaemon:
		err = c.startDaemon(ctx, out)
	case models.ActionStopDaemon:
		if !c.probe.DaemonRunning(ctx) {
			out.Noop = true
			break
		}
		err = c.stopDaemon(ctx, out)
	case models.ActionStartDesktop:
		err = c.startDesktop(ctx, out)
	case models.ActionStopDesktop:
		err = c.stopDesktop(ctx, out)
	case models.ActionLoadModel:
		err = c.loadModel(ctx, out)
	case models.ActionCheckUpdate:
		err = c.checkUpdate(ctx, out)
	case models.ActionReload:
		out.step(StepReload)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupported, action)
	}

	ev := c.log.Info()
	if err != nil {
		ev = c.log.Warn().Err(err)
	}
	ev.Str("action", string(action)).Strs("steps", out.Steps).Bool("noop", out.Noop).Msg("action finished")
	return out, err
}

func (c *Controller) startDaemon(ctx context.Context, out *Outcome) error {
	st := c.probe.Probe(ctx)
	if !st.DaemonInstalled {
		return fmt.Errorf("daemon: %w", ErrNotInstalled)
	}
	if st.DaemonRunning && !st.DesktopRunning {
		out.Noop = true
		return nil
	}

	if st.DesktopRunning {
		out.step(StepStopDesktop)
		if err := c.terminateDesktop(ctx); err != nil {
			c.log.Warn().Err(err).Msg("stopping desktop app before daemon start")
		}
	}
	if st.BothRunning() {
		// Tie-break: restart the daemon from a clean slate.
		if err := c.stopDaemon(ctx, out); err != nil {
			c.log.Warn().Err(err).Msg("stopping daemon during tie-break")
		}
	}

	out.step(StepStartDaemon)
	res, err := c.runner.Execute(ctx, c.catalog.StartDaemon(), c.probe.DaemonRunning, c.cfg.CommandTimeout)
	out.record(res)
	if err != nil {
		return err
	}

	if c.probe.DesktopRunning(ctx) {
		return &ConflictError{Wanted: "daemon", Peer: "desktop app"}
	}
	return nil
}

func (c *Controller) stopDaemon(ctx context.Context, out *Outcome) error {
	if !c.probe.DaemonRunning(ctx) {
		return nil
	}

	out.step(StepStopDaemon)
	stopped := func(ctx context.Context) bool { return !c.probe.DaemonRunning(ctx) }
	res, err := c.runner.Execute(ctx, c.catalog.StopDaemon(), stopped, c.cfg.CommandTimeout)
	out.record(res)
	if err != nil {
		c.log.Warn().Err(err).Msg("graceful daemon stop failed")
	}

	// Exit codes are not trusted; look again.
	if stopped(ctx) {
		return nil
	}

	out.step(StepForceStop)
	for _, pid := range c.probe.DaemonPIDs(ctx) {
		if kerr := c.signals.Kill(ctx, pid); kerr != nil {
			c.log.Warn().Err(kerr).Int32("pid", pid).Msg("force stop")
		}
	}
	if c.waitFor(ctx, stopped) {
		return nil
	}
	return fmt.Errorf("daemon: %w", ErrStillRunning)
}

func (c *Controller) startDesktop(ctx context.Context, out *Outcome) error {
	st := c.probe.Probe(ctx)
	if !st.DesktopInstalled {
		return fmt.Errorf("desktop app: %w", ErrNotInstalled)
	}
	if st.DesktopRunning && !st.DaemonRunning {
		out.Noop = true
		return nil
	}

	if st.DaemonRunning {
		if err := c.stopDaemon(ctx, out); err != nil {
			c.log.Warn().Err(err).Msg("stopping daemon before desktop start")
		}
	}
	if st.BothRunning() {
		out.step(StepStopDesktop)
		if err := c.terminateDesktop(ctx); err != nil {
			c.log.Warn().Err(err).Msg("stopping desktop app during tie-break")
		}
	}

	out.step(StepLaunchDesktop)
	res, err := c.runner.Execute(ctx, c.catalog.LaunchDesktop(c.cfg.Settle), c.probe.DesktopRunning, c.cfg.CommandTimeout)
	out.record(res)
	if err != nil {
		return err
	}

	if c.probe.DaemonRunning(ctx) {
		return &ConflictError{Wanted: "desktop app", Peer: "daemon"}
	}
	return nil
}

func (c *Controller) stopDesktop(ctx context.Context, out *Outcome) error {
	if len(c.probe.DesktopPIDs(ctx)) == 0 {
		out.Noop = true
		return nil
	}
	out.step(StepStopDesktop)
	return c.terminateDesktop(ctx)
}

// terminateDesktop sends SIGTERM, waits, then escalates to SIGKILL.
func (c *Controller) terminateDesktop(ctx context.Context) error {
	stopped := func(ctx context.Context) bool { return len(c.probe.DesktopPIDs(ctx)) == 0 }

	for _, pid := range c.probe.DesktopPIDs(ctx) {
		if err := c.signals.Terminate(ctx, pid); err != nil {
			c.log.Warn().Err(err).Int32("pid", pid).Msg("terminate desktop app")
		}
	}
	if c.waitFor(ctx, stopped) {
		return nil
	}

	for _, pid := range c.probe.DesktopPIDs(ctx) {
		if err := c.signals.Kill(ctx, pid); err != nil {
			c.log.Warn().Err(err).Int32("pid", pid).Msg("kill desktop app")
		}
	}
	if c.waitFor(ctx, stopped) {
		return nil
	}
	return fmt.Errorf("desktop app: %w", ErrStillRunning)
}

func (c *Controller) loadModel(ctx context.Context, out *Outcome) error {
	model, gpu := c.model()
	if model == "" {
		return ErrNoModel
	}
	st := c.probe.Probe(ctx)
	if !st.AnyRunning() {
		return ErrNotRunning
	}
	if st.HasModel(model) {
		out.Noop = true
		return nil
	}

	out.step(StepLoadModel)
	res, err := c.runner.Execute(ctx, c.catalog.LoadModel(model, gpu), nil, c.cfg.CommandTimeout)
	out.record(res)
	return err
}

func (c *Controller) checkUpdate(ctx context.Context, out *Outcome) error {
	out.step(StepCheckUpdate)
	if c.updates == nil {
		return fmt.Errorf("%w: update checks disabled", ErrUnsupported)
	}
	info, err := c.updates.CheckNow(ctx)
	out.Update = &info
	if err != nil {
		return fmt.Errorf("unable to check for updates: %w", err)
	}
	return nil
}

// waitFor polls cond until it holds or StopGrace elapses.
func (c *Controller) waitFor(ctx context.Context, cond executor.Predicate) bool {
	deadline := time.Now().Add(c.cfg.StopGrace)
	for {
		if cond(ctx) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

var _ Catalog = (*lmstudio.Catalog)(nil)
