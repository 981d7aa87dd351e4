// Package runner executes actions off the UI goroutine, at most one per
// resource group at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/models"
)

// ErrBusy is matched by every BusyError.
var ErrBusy = errors.New("busy")

// BusyError rejects a submission whose group already has a task in flight.
type BusyError struct {
	Group   models.Group
	Running models.Action
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s is busy with %s", e.Group, e.Running)
}

// Is makes errors.Is(err, ErrBusy) work.
func (e *BusyError) Is(target error) bool { return target == ErrBusy }

// Func performs one action.
type Func func(ctx context.Context, a models.Action) (*controller.Outcome, error)

// Completion is delivered once per finished task.
type Completion struct {
	ID       uuid.UUID
	Action   models.Action
	Outcome  *controller.Outcome
	Err      error
	Started  time.Time
	Finished time.Time
}

// Handle tracks a submitted task.
type Handle struct {
	ID        uuid.UUID
	Action    models.Action
	Group     models.Group
	Submitted time.Time

	done       chan struct{}
	completion Completion
}

// Done is closed when the task finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task finishes or ctx ends.
func (h *Handle) Wait(ctx context.Context) (Completion, error) {
	select {
	case <-h.done:
		return h.completion, nil
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	}
}

// completionBuffer absorbs bursts while the consumer is busy refreshing.
const completionBuffer = 32

// Runner owns the in-flight table.
type Runner struct {
	ctx  context.Context
	fn   Func
	log  zerolog.Logger
	outC chan Completion

	mu       sync.Mutex
	inflight map[models.Group]*Handle
	wg       sync.WaitGroup
}

// New creates a Runner. Tasks run with ctx; cancelling it stops waiting
// inside actions, not the launched commands.
func New(ctx context.Context, fn Func, log zerolog.Logger) *Runner {
	return &Runner{
		ctx:      ctx,
		fn:       fn,
		log:      log,
		outC:     make(chan Completion, completionBuffer),
		inflight: make(map[models.Group]*Handle),
	}
}

// Completions yields finished tasks.
func (r *Runner) Completions() <-chan Completion { return r.outC }

// Submit starts a on its own goroutine, or returns a *BusyError if its
// group already has a task in flight. Submissions are never queued.
func (r *Runner) Submit(a models.Action) (*Handle, error) {
	group := a.Group()

	r.mu.Lock()
	if cur, ok := r.inflight[group]; ok {
		r.mu.Unlock()
		return nil, &BusyError{Group: group, Running: cur.Action}
	}
	h := &Handle{
		ID:        uuid.New(),
		Action:    a,
		Group:     group,
		Submitted: time.Now(),
		done:      make(chan struct{}),
	}
	r.inflight[group] = h
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(h)
	return h, nil
}

// InFlight lists the actions currently running.
func (r *Runner) InFlight() []models.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Action, 0, len(r.inflight))
	for _, h := range r.inflight {
		out = append(out, h.Action)
	}
	return out
}

// Wait blocks until every submitted task has finished.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(h *Handle) {
	defer r.wg.Done()

	c := Completion{ID: h.ID, Action: h.Action, Started: time.Now()}
	c.Outcome, c.Err = r.call(h.Action)
	c.Finished = time.Now()

	r.log.Debug().
		Str("task", h.ID.String()).
		Str("action", string(h.Action)).
		Dur("took", c.Finished.Sub(c.Started)).
		AnErr("error", c.Err).
		Msg("task finished")

	r.mu.Lock()
	delete(r.inflight, h.Group)
	r.mu.Unlock()

	h.completion = c
	close(h.done)

	// Each completion drives a follow-up refresh, so a full buffer waits for
	// the consumer instead of dropping. Only shutdown gives up.
	select {
	case r.outC <- c:
		return
	default:
	}
	r.log.Warn().Str("action", string(h.Action)).Msg("completion buffer full, waiting for consumer")
	select {
	case r.outC <- c:
	case <-r.ctx.Done():
		r.log.Warn().Str("action", string(h.Action)).Msg("completion dropped at shutdown")
	}
}

func (r *Runner) call(a models.Action) (out *controller.Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action %s panicked: %v", a, p)
		}
	}()
	return r.fn(r.ctx, a)
}
