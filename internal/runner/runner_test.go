package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/models"
)

func TestGuardWindow(t *testing.T) {
	base := time.Unix(100, 0)
	now := base
	g := NewGuard(2 * time.Second)
	g.now = func() time.Time { return now }

	assert.True(t, g.Admit(models.ActionStartDaemon))

	now = base.Add(500 * time.Millisecond)
	assert.False(t, g.Admit(models.ActionStartDaemon))
	assert.True(t, g.Admit(models.ActionStopDaemon), "classes are independent")

	now = base.Add(2 * time.Second)
	assert.True(t, g.Admit(models.ActionStartDaemon), "window measured from the last admitted trigger")

	now = base.Add(3 * time.Second)
	assert.False(t, g.Admit(models.ActionStartDaemon))
}

func TestGuardConcurrentAdmitsOnce(t *testing.T) {
	g := NewGuard(time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Admit(models.ActionReload) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
}

func blockingFunc(release <-chan struct{}) Func {
	return func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		<-release
		return &controller.Outcome{Action: a}, nil
	}
}

func TestSubmitRejectsBusyGroup(t *testing.T) {
	release := make(chan struct{})
	r := New(context.Background(), blockingFunc(release), zerolog.Nop())

	h, err := r.Submit(models.ActionStartDaemon)
	require.NoError(t, err)

	_, err = r.Submit(models.ActionStopDesktop)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)
	var busy *BusyError
	require.True(t, errors.As(err, &busy))
	assert.Equal(t, models.ActionStartDaemon, busy.Running)

	// another group is unaffected
	u, err := r.Submit(models.ActionCheckUpdate)
	require.NoError(t, err)

	close(release)
	c, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ActionStartDaemon, c.Action)
	assert.NoError(t, c.Err)
	_, err = u.Wait(context.Background())
	require.NoError(t, err)

	// the group is free again once the first task is done
	again, err := r.Submit(models.ActionStopDesktop)
	require.NoError(t, err)
	_, err = again.Wait(context.Background())
	require.NoError(t, err)
	r.Wait()
}

func TestCompletionsDelivered(t *testing.T) {
	fail := errors.New("all variants failed")
	r := New(context.Background(), func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		return nil, fail
	}, zerolog.Nop())

	h, err := r.Submit(models.ActionStopDaemon)
	require.NoError(t, err)

	select {
	case c := <-r.Completions():
		assert.Equal(t, h.ID, c.ID)
		assert.ErrorIs(t, c.Err, fail)
		assert.False(t, c.Finished.Before(c.Started))
	case <-time.After(time.Second):
		t.Fatal("no completion")
	}
}

func TestPanicIsCaptured(t *testing.T) {
	r := New(context.Background(), func(ctx context.Context, a models.Action) (*controller.Outcome, error) {
		panic("boom")
	}, zerolog.Nop())

	h, err := r.Submit(models.ActionReload)
	require.NoError(t, err)
	c, err := h.Wait(context.Background())
	require.NoError(t, err)
	require.Error(t, c.Err)
	assert.Contains(t, c.Err.Error(), "panicked")
	assert.Empty(t, r.InFlight())
}

func TestWaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := New(context.Background(), blockingFunc(release), zerolog.Nop())
	h, err := r.Submit(models.ActionStartDesktop)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []models.Action{models.ActionStartDesktop}, r.InFlight())
}

func TestCompletionWaitsForSlowConsumer(t *testing.T) {
	r := New(context.Background(), blockingFunc(closedChan()), zerolog.Nop())
	r.outC = make(chan Completion) // no buffer: every send must wait

	h, err := r.Submit(models.ActionReload)
	require.NoError(t, err)
	<-h.Done()

	select {
	case c := <-r.Completions():
		assert.Equal(t, h.ID, c.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("completion was dropped")
	}
	r.Wait()
}

func TestCompletionReleasedOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, blockingFunc(closedChan()), zerolog.Nop())
	r.outC = make(chan Completion)

	h, err := r.Submit(models.ActionReload)
	require.NoError(t, err)
	<-h.Done()

	cancel()
	finished := make(chan struct{})
	go func() {
		r.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not finish after cancel")
	}
}

func closedChan() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}
