// Package engine owns the published status snapshot and the loop that keeps
// it fresh. UI layers read Status, push actions through Trigger and listen
// on Subscribe; nothing they call blocks on external commands.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/notify"
	"github.com/lmtray/lmtray/internal/runner"
	"github.com/lmtray/lmtray/internal/status"
)

// ErrDebounced is returned by Trigger when the cooldown drops the request.
var ErrDebounced = errors.New("action debounced")

// Prober takes one observation of the host.
type Prober interface {
	Probe(ctx context.Context) *models.RuntimeState
}

// UpdateSource exposes the last known release check.
type UpdateSource interface {
	Info() models.UpdateInfo
}

// Deps are the collaborators the engine drives.
type Deps struct {
	Probe    Prober
	Apply    runner.Func
	Updates  UpdateSource
	Notifier notify.Notifier
	// Report returns the raw model listing for "show status".
	Report func(ctx context.Context) (string, error)
}

// Options tune the loop.
type Options struct {
	PollInterval   time.Duration
	UpdateInterval time.Duration
	UpdateDelay    time.Duration
	CheckUpdates   bool
	Cooldown       time.Duration
	Model          string
	Notify         bool
}

// Snapshot is an immutable published view.
type Snapshot struct {
	State        models.RuntimeState `json:"state"`
	Presentation status.Presentation `json:"presentation"`
	Update       models.UpdateInfo   `json:"update"`
	InFlight     []models.Action     `json:"in_flight,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Level is a shortcut for Presentation.Level.
func (s Snapshot) Level() status.Level { return s.Presentation.Level }

// Engine is safe for concurrent use.
type Engine struct {
	opts  Options
	deps  Deps
	log   zerolog.Logger
	guard *runner.Guard
	tasks *runner.Runner

	base   context.Context
	cancel context.CancelFunc

	sf      singleflight.Group
	snap    atomic.Pointer[Snapshot]
	reloadC chan struct{}

	subsMu sync.Mutex
	subs   map[chan Snapshot]struct{}

	model atomic.Pointer[string]

	// guarded by sf: only touched while publishing
	observed        bool
	notifiedVersion string
}

// New creates an Engine. Call Run to start the loop.
func New(deps Deps, opts Options, log zerolog.Logger) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = 24 * time.Hour
	}
	if opts.UpdateDelay <= 0 {
		opts.UpdateDelay = 5 * time.Second
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}

	base, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:    opts,
		deps:    deps,
		log:     log,
		guard:   runner.NewGuard(opts.Cooldown),
		base:    base,
		cancel:  cancel,
		reloadC: make(chan struct{}, 1),
		subs:    make(map[chan Snapshot]struct{}),
	}
	e.tasks = runner.New(base, deps.Apply, log)
	e.model.Store(&opts.Model)

	initial := e.build(models.RuntimeState{})
	e.snap.Store(initial)
	return e
}

// Status returns the current snapshot.
func (e *Engine) Status() Snapshot {
	s := *e.snap.Load()
	s.InFlight = e.tasks.InFlight()
	return s
}

// Trigger submits an action. It returns ErrDebounced inside the cooldown
// window and a runner.BusyError while the action's group is working.
func (e *Engine) Trigger(a models.Action) (*runner.Handle, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %q", controller.ErrUnsupported, a)
	}
	if !e.guard.Admit(a) {
		e.log.Debug().Str("action", string(a)).Msg("trigger debounced")
		metricAction(a, "debounced")
		return nil, ErrDebounced
	}
	h, err := e.tasks.Submit(a)
	if err != nil {
		metricAction(a, "busy")
		e.notify("LM Studio", "Already working, please wait")
		return nil, err
	}
	e.log.Info().Str("action", string(a)).Str("task", h.ID.String()).Msg("action submitted")
	return h, nil
}

// Model is the expected model.
func (e *Engine) Model() string { return *e.model.Load() }

// SetModel changes the expected model and republishes on the next refresh.
func (e *Engine) SetModel(model string) {
	e.model.Store(&model)
	e.RequestReload()
}

// RequestReload asks the loop for a fresh probe.
func (e *Engine) RequestReload() {
	select {
	case e.reloadC <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel that receives each new snapshot. Slow readers
// only ever see the latest one. Call the returned func to unsubscribe.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	e.subsMu.Lock()
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.subsMu.Lock()
			delete(e.subs, ch)
			e.subsMu.Unlock()
		})
	}
}

// Refresh probes the host and publishes the result. Concurrent callers
// share one probe.
func (e *Engine) Refresh(ctx context.Context) Snapshot {
	v, _, _ := e.sf.Do("refresh", func() (interface{}, error) {
		state := e.deps.Probe.Probe(ctx)
		if state == nil {
			state = &models.RuntimeState{}
		}
		return e.publish(*state), nil
	})
	return *v.(*Snapshot)
}

// ShowStatus notifies the raw model listing and returns it.
func (e *Engine) ShowStatus(ctx context.Context) (string, error) {
	if e.deps.Report == nil {
		return "", controller.ErrUnsupported
	}
	out, err := e.deps.Report(ctx)
	if err != nil {
		e.notify("Error", fmt.Sprintf("Unable to read status: %v", err))
		return "", err
	}
	if out == "" {
		out = "No models loaded"
	}
	e.notify("LM Studio Status", out)
	return out, nil
}

// Run drives the poll and update timers and handles task completions until
// ctx ends. In-flight tasks are waited for before it returns.
func (e *Engine) Run(ctx context.Context) error {
	defer e.tasks.Wait()
	defer e.cancel()

	e.Refresh(ctx)

	poll := time.NewTicker(e.opts.PollInterval)
	defer poll.Stop()

	var (
		updateT *time.Timer
		updateC <-chan time.Time
	)
	if e.opts.CheckUpdates {
		updateT = time.NewTimer(e.opts.UpdateDelay)
		defer updateT.Stop()
		updateC = updateT.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			e.Refresh(ctx)
		case <-e.reloadC:
			e.Refresh(ctx)
		case <-updateC:
			e.scheduleUpdateCheck()
			updateT.Reset(e.opts.UpdateInterval)
		case c := <-e.tasks.Completions():
			e.complete(ctx, c)
		}
	}
}

// scheduleUpdateCheck bypasses the cooldown; a manual check in flight
// makes it a no-op.
func (e *Engine) scheduleUpdateCheck() {
	if _, err := e.tasks.Submit(models.ActionCheckUpdate); err != nil {
		e.log.Debug().Err(err).Msg("periodic update check skipped")
	}
}

func (e *Engine) complete(ctx context.Context, c runner.Completion) {
	switch {
	case c.Err != nil:
		metricAction(c.Action, "failed")
		if c.Action == models.ActionCheckUpdate {
			e.log.Warn().Err(c.Err).Msg("update check failed")
			break
		}
		e.log.Error().Err(c.Err).Str("action", string(c.Action)).Msg("action failed")
		e.notify("Error", failureMessage(c.Action, c.Err))
	default:
		metricAction(c.Action, "ok")
		if c.Outcome != nil && !c.Outcome.Noop {
			if msg := successMessage(c.Action, e.Model()); msg != "" {
				e.notify("LM Studio", msg)
			}
		}
	}
	e.Refresh(ctx)
}

func (e *Engine) build(state models.RuntimeState) *Snapshot {
	var upd models.UpdateInfo
	if e.deps.Updates != nil {
		upd = e.deps.Updates.Info()
	}
	return &Snapshot{
		State:        state,
		Presentation: status.Describe(state, upd, e.Model()),
		Update:       upd,
		UpdatedAt:    time.Now(),
	}
}

func (e *Engine) publish(state models.RuntimeState) *Snapshot {
	next := e.build(state)
	prev := e.snap.Swap(next)
	recordMetrics(next)

	if e.observed {
		if msg := transitionMessage(prev, next, e.Model()); msg != "" {
			e.log.Info().
				Str("from", prev.Presentation.Status).
				Str("to", next.Presentation.Status).
				Msg("status change")
			e.notify("LM Studio", msg)
		}
	}
	e.observed = true

	if u := next.Update; u.Available && u.LatestVersion != "" && u.LatestVersion != e.notifiedVersion {
		e.notifiedVersion = u.LatestVersion
		e.notify("Update available", fmt.Sprintf("lmtray v%s is available: %s", u.LatestVersion, u.ReleaseURL))
	}

	e.broadcast(*next)
	return next
}

func (e *Engine) broadcast(s Snapshot) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		// replace the stale value
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func (e *Engine) notify(title, msg string) {
	if !e.opts.Notify {
		return
	}
	if err := e.deps.Notifier.Notify(title, msg); err != nil {
		e.log.Debug().Err(err).Msg("notify failed")
	}
}
