package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/notify"
	"github.com/lmtray/lmtray/internal/runner"
	"github.com/lmtray/lmtray/internal/status"
)

type fakeProber struct {
	mu    sync.Mutex
	state models.RuntimeState
	calls int32
	gate  chan struct{}
}

func (p *fakeProber) Probe(ctx context.Context) *models.RuntimeState {
	atomic.AddInt32(&p.calls, 1)
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	return &s
}

func (p *fakeProber) set(s models.RuntimeState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

type fakeUpdates struct{ info models.UpdateInfo }

func (u fakeUpdates) Info() models.UpdateInfo { return u.info }

func installedStopped() models.RuntimeState {
	return models.RuntimeState{DaemonInstalled: true, DesktopInstalled: true}
}

func newTestEngine(p *fakeProber, apply runner.Func, rec *notify.Recorder) *Engine {
	if apply == nil {
		apply = func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
			return &controller.Outcome{Action: a}, nil
		}
	}
	return New(Deps{Probe: p, Apply: apply, Notifier: rec}, Options{
		PollInterval: time.Hour,
		Cooldown:     time.Hour,
		Model:        "qwen",
		Notify:       true,
	}, zerolog.Nop())
}

func bodies(rec *notify.Recorder) []string {
	var out []string
	for _, m := range rec.Messages() {
		out = append(out, m.Body)
	}
	return out
}

func TestTriggerDebounced(t *testing.T) {
	e := newTestEngine(&fakeProber{}, nil, &notify.Recorder{})

	h, err := e.Trigger(models.ActionReload)
	require.NoError(t, err)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)

	_, err = e.Trigger(models.ActionReload)
	assert.ErrorIs(t, err, ErrDebounced)
}

func TestTriggerUnknownAction(t *testing.T) {
	e := newTestEngine(&fakeProber{}, nil, &notify.Recorder{})
	_, err := e.Trigger(models.Action("explode"))
	assert.ErrorIs(t, err, controller.ErrUnsupported)
}

func TestTriggerBusy(t *testing.T) {
	release := make(chan struct{})
	apply := func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		<-release
		return &controller.Outcome{Action: a}, nil
	}
	rec := &notify.Recorder{}
	e := newTestEngine(&fakeProber{}, apply, rec)

	h, err := e.Trigger(models.ActionStartDaemon)
	require.NoError(t, err)
	assert.Equal(t, []models.Action{models.ActionStartDaemon}, e.Status().InFlight)

	_, err = e.Trigger(models.ActionStopDesktop)
	assert.ErrorIs(t, err, runner.ErrBusy)
	assert.Contains(t, bodies(rec), "Already working, please wait")

	close(release)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)
}

func TestTransitionNotifications(t *testing.T) {
	p := &fakeProber{state: installedStopped()}
	rec := &notify.Recorder{}
	e := newTestEngine(p, nil, rec)

	snap := e.Refresh(context.Background())
	assert.Equal(t, status.BothStopped, snap.Level())
	assert.Empty(t, rec.Messages(), "first observation is silent")

	s := installedStopped()
	s.DaemonRunning = true
	p.set(s)
	snap = e.Refresh(context.Background())
	assert.Equal(t, status.RunningNoModel, snap.Level())

	s.ModelLoaded = true
	s.ActiveModelID = "qwen"
	s.LoadedModels = []string{"qwen"}
	p.set(s)
	e.Refresh(context.Background())

	// unchanged state publishes nothing new
	e.Refresh(context.Background())

	assert.Equal(t, []string{
		"No model loaded (expected: qwen)",
		"Model qwen is now active",
	}, bodies(rec))
}

func TestUpdateNotifiedOncePerVersion(t *testing.T) {
	p := &fakeProber{state: installedStopped()}
	rec := &notify.Recorder{}
	e := New(Deps{
		Probe:    p,
		Apply:    func(context.Context, models.Action) (*controller.Outcome, error) { return nil, nil },
		Updates:  fakeUpdates{info: models.UpdateInfo{CurrentVersion: "0.1.0", LatestVersion: "0.2.0", Available: true, CheckedAt: time.Now()}},
		Notifier: rec,
	}, Options{Notify: true}, zerolog.Nop())

	e.Refresh(context.Background())
	e.Refresh(context.Background())

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Update available", msgs[0].Title)
	assert.Equal(t, "v0.1.0 (Update available: v0.2.0)", e.Status().Presentation.Version)
}

func TestRefreshCoalesced(t *testing.T) {
	p := &fakeProber{state: installedStopped(), gate: make(chan struct{})}
	e := newTestEngine(p, nil, &notify.Recorder{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Refresh(context.Background())
		}()
	}
	// let both callers reach singleflight before releasing the probe
	time.Sleep(50 * time.Millisecond)
	close(p.gate)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
}

func TestSubscribeReceivesLatest(t *testing.T) {
	p := &fakeProber{state: installedStopped()}
	e := newTestEngine(p, nil, &notify.Recorder{})

	ch, cancel := e.Subscribe()
	e.Refresh(context.Background())
	s := installedStopped()
	s.DesktopRunning = true
	p.set(s)
	e.Refresh(context.Background())

	got := <-ch
	assert.True(t, got.State.DesktopRunning, "only the newest snapshot is kept")

	cancel()
	e.Refresh(context.Background())
	select {
	case <-ch:
		t.Fatal("received after unsubscribe")
	default:
	}
}

func TestRunHandlesCompletions(t *testing.T) {
	p := &fakeProber{state: installedStopped()}
	rec := &notify.Recorder{}
	apply := func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		switch a {
		case models.ActionStartDaemon:
			s := installedStopped()
			s.DaemonRunning = true
			p.set(s)
			return &controller.Outcome{Action: a}, nil
		default:
			return nil, errors.New("exit status 1")
		}
	}
	e := newTestEngine(p, apply, rec)
	ch, unsubscribe := e.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	<-ch // initial refresh
	_, err := e.Trigger(models.ActionStartDaemon)
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		var s Snapshot
		select {
		case s = <-ch:
		case <-deadline:
			t.Fatal("no refresh after completion")
		}
		if s.State.DaemonRunning {
			break
		}
	}

	_, err = e.Trigger(models.ActionStopDesktop)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		for _, m := range rec.Messages() {
			if m.Title == "Error" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, bodies(rec), "LM Studio daemon is running")
	assert.Contains(t, bodies(rec), "stop-desktop failed: exit status 1")
}

func TestShowStatus(t *testing.T) {
	rec := &notify.Recorder{}
	e := New(Deps{
		Probe:    &fakeProber{},
		Apply:    func(context.Context, models.Action) (*controller.Outcome, error) { return nil, nil },
		Notifier: rec,
		Report:   func(context.Context) (string, error) { return "", nil },
	}, Options{Notify: true}, zerolog.Nop())

	out, err := e.ShowStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No models loaded", out)
	require.Len(t, rec.Messages(), 1)
	assert.Equal(t, "LM Studio Status", rec.Messages()[0].Title)
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&controller.ConflictError{Wanted: "daemon", Peer: "desktop app"}, "daemon started but desktop app is still running"},
		{controller.ErrNotInstalled, "LM Studio is not installed"},
		{controller.ErrNoModel, "No model specified for loading"},
		{errors.New("boom"), "load-model failed: boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, failureMessage(models.ActionLoadModel, tt.err))
	}
}

func TestRunPollsAndChecksUpdatesPastCooldown(t *testing.T) {
	var checks int32
	apply := func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		if a == models.ActionCheckUpdate {
			atomic.AddInt32(&checks, 1)
		}
		return &controller.Outcome{Action: a}, nil
	}
	p := &fakeProber{state: installedStopped()}
	e := New(Deps{Probe: p, Apply: apply, Notifier: &notify.Recorder{}}, Options{
		PollInterval:   10 * time.Millisecond,
		UpdateDelay:    5 * time.Millisecond,
		UpdateInterval: 15 * time.Millisecond,
		CheckUpdates:   true,
		Cooldown:       time.Hour,
	}, zerolog.Nop())

	// A manual check takes the cooldown slot for the rest of the test.
	h, err := e.Trigger(models.ActionCheckUpdate)
	require.NoError(t, err)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)
	_, err = e.Trigger(models.ActionCheckUpdate)
	require.ErrorIs(t, err, ErrDebounced)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&p.calls) >= 4 },
		2*time.Second, 5*time.Millisecond, "poll ticker probes repeatedly")
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&checks) >= 3 },
		2*time.Second, 5*time.Millisecond, "periodic checks ignore the cooldown")

	cancel()
	require.NoError(t, <-done)
}

func TestPeriodicUpdateSkippedWhileCheckInFlight(t *testing.T) {
	var checks int32
	release := make(chan struct{})
	apply := func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		if a == models.ActionCheckUpdate {
			atomic.AddInt32(&checks, 1)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return &controller.Outcome{Action: a}, nil
	}
	e := New(Deps{Probe: &fakeProber{}, Apply: apply, Notifier: &notify.Recorder{}}, Options{
		PollInterval:   time.Hour,
		UpdateDelay:    5 * time.Millisecond,
		UpdateInterval: 10 * time.Millisecond,
		CheckUpdates:   true,
		Cooldown:       time.Hour,
	}, zerolog.Nop())

	h, err := e.Trigger(models.ActionCheckUpdate)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	// Several update timer ticks pass while the manual check holds the group.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&checks), "periodic checks do not start while one is in flight")

	cancel()
	require.NoError(t, <-done)
	c, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Err, context.Canceled)
}

func TestScheduledUpdateCheckIsNotQueued(t *testing.T) {
	var checks int32
	release := make(chan struct{})
	apply := func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		atomic.AddInt32(&checks, 1)
		<-release
		return &controller.Outcome{Action: a}, nil
	}
	e := newTestEngine(&fakeProber{}, apply, &notify.Recorder{})

	h, err := e.Trigger(models.ActionCheckUpdate)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		e.scheduleUpdateCheck()
	}
	close(release)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)
	e.tasks.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&checks))
	assert.Empty(t, e.Status().InFlight)
}
