package executor

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProc struct{ ch chan Exit }

func (p fakeProc) Done() <-chan Exit { return p.ch }

func exited(code int, out string) fakeProc {
	ch := make(chan Exit, 1)
	ch <- Exit{Code: code, Output: out}
	return fakeProc{ch: ch}
}

func hanging() fakeProc { return fakeProc{ch: make(chan Exit)} }

type fakeLauncher struct {
	mu       sync.Mutex
	results  map[string]fakeProc
	errs     map[string]error
	launched []string
}

func (f *fakeLauncher) Launch(_ context.Context, inv Invocation) (Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, inv.String())
	if err := f.errs[inv.String()]; err != nil {
		return nil, err
	}
	return f.results[inv.String()], nil
}

func daemonUpSpec() CommandSpec {
	var spec CommandSpec
	spec.Op = "start-daemon"
	spec.Add("/home/u/.lmstudio/bin/lms", "daemon", "up")
	spec.Add("/usr/local/bin/llmster", "daemon", "up")
	return spec
}

func always(v bool) Predicate {
	return func(context.Context) bool { return v }
}

func TestExecuteFallsBackOnNonZeroExit(t *testing.T) {
	l := &fakeLauncher{results: map[string]fakeProc{
		"lms daemon up":     exited(1, "boom"),
		"llmster daemon up": exited(0, "started"),
	}}
	e := New(l, zerolog.Nop())

	res, err := e.Execute(context.Background(), daemonUpSpec(), always(false), time.Second)
	require.NoError(t, err)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, 1, res.Attempts[0].ExitCode)
	assert.Equal(t, "started", res.Output())
	assert.Equal(t, []string{"lms daemon up", "llmster daemon up"}, l.launched)
}

func TestExecuteStopsAtFirstSuccess(t *testing.T) {
	l := &fakeLauncher{results: map[string]fakeProc{
		"lms daemon up": exited(0, ""),
	}}
	res, err := New(l, zerolog.Nop()).Execute(context.Background(), daemonUpSpec(), nil, time.Second)
	require.NoError(t, err)
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, []string{"lms daemon up"}, l.launched)
}

func TestExecuteExhausted(t *testing.T) {
	l := &fakeLauncher{results: map[string]fakeProc{
		"lms daemon up":     exited(2, ""),
		"llmster daemon up": exited(1, ""),
	}}
	res, err := New(l, zerolog.Nop()).Execute(context.Background(), daemonUpSpec(), always(false), time.Second)
	require.Error(t, err)
	assert.True(t, IsExhausted(err))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Len(t, exhausted.Attempts, 2)
	assert.Len(t, res.Attempts, 2)
	assert.Contains(t, err.Error(), "lms daemon up (exit 2)")
	assert.Contains(t, err.Error(), "llmster daemon up (exit 1)")
}

func TestExecuteTimeoutConfirmedByProbe(t *testing.T) {
	l := &fakeLauncher{results: map[string]fakeProc{
		"lms daemon up": hanging(),
	}}
	res, err := New(l, zerolog.Nop()).Execute(context.Background(), daemonUpSpec(), always(true), 20*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, res.Attempts, 1)
	a := res.Attempts[0]
	assert.True(t, a.TimedOut)
	assert.True(t, a.Confirmed)
	assert.Equal(t, "confirmed", a.Outcome())
}

func TestExecuteTimeoutUnconfirmedTriesNext(t *testing.T) {
	l := &fakeLauncher{results: map[string]fakeProc{
		"lms daemon up":     hanging(),
		"llmster daemon up": exited(0, ""),
	}}
	res, err := New(l, zerolog.Nop()).Execute(context.Background(), daemonUpSpec(), always(false), 20*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, "timeout", res.Attempts[0].Outcome())
	assert.True(t, res.Attempts[1].Succeeded)
}

func TestExecuteRejectsRelativePath(t *testing.T) {
	spec := CommandSpec{Op: "stop-daemon", Candidates: []Invocation{
		{Path: "lms", Args: []string{"daemon", "down"}},
		{Path: "/usr/bin/llmster", Args: []string{"daemon", "down"}},
	}}
	l := &fakeLauncher{results: map[string]fakeProc{"llmster daemon down": exited(0, "")}}

	res, err := New(l, zerolog.Nop()).Execute(context.Background(), spec, nil, time.Second)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Attempts[0].Err, ErrRelativePath)
	assert.Equal(t, []string{"llmster daemon down"}, l.launched)
}

func TestExecuteLaunchErrorTriesNext(t *testing.T) {
	l := &fakeLauncher{
		errs:    map[string]error{"lms daemon up": errors.New("permission denied")},
		results: map[string]fakeProc{"llmster daemon up": exited(0, "")},
	}
	res, err := New(l, zerolog.Nop()).Execute(context.Background(), daemonUpSpec(), nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "error", res.Attempts[0].Outcome())
}

func TestExecuteEmptySpec(t *testing.T) {
	_, err := New(&fakeLauncher{}, zerolog.Nop()).Execute(context.Background(), CommandSpec{Op: "launch-desktop"}, nil, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command variants available")
}

func TestExecuteConfirmByProbe(t *testing.T) {
	spec := CommandSpec{Op: "launch-desktop", ConfirmByProbe: true, Settle: 20 * time.Millisecond}
	spec.Add("/opt/lm-studio/lm-studio")
	spec.Add("/usr/bin/gtk-launch", "lm-studio")

	t.Run("exit code ignored when app appears", func(t *testing.T) {
		l := &fakeLauncher{results: map[string]fakeProc{"lm-studio": exited(1, "")}}
		res, err := New(l, zerolog.Nop()).Execute(context.Background(), spec, always(true), time.Second)
		require.NoError(t, err)
		assert.Len(t, res.Attempts, 1)
	})

	t.Run("still running launcher judged after settle", func(t *testing.T) {
		l := &fakeLauncher{results: map[string]fakeProc{"lm-studio": hanging()}}
		res, err := New(l, zerolog.Nop()).Execute(context.Background(), spec, always(true), time.Second)
		require.NoError(t, err)
		assert.False(t, res.Attempts[0].TimedOut)
		assert.True(t, res.Attempts[0].Confirmed)
	})

	t.Run("app never appears", func(t *testing.T) {
		l := &fakeLauncher{results: map[string]fakeProc{
			"lm-studio":            exited(0, ""),
			"gtk-launch lm-studio": exited(0, ""),
		}}
		_, err := New(l, zerolog.Nop()).Execute(context.Background(), spec, always(false), time.Second)
		assert.True(t, IsExhausted(err))
	})
}

func TestExecuteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&fakeLauncher{}, zerolog.Nop()).Execute(ctx, daemonUpSpec(), nil, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecLauncher(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	e := New(ExecLauncher{}, zerolog.Nop())
	spec := CommandSpec{Op: "probe", Candidates: []Invocation{
		{Path: sh, Args: []string{"-c", "echo nope; exit 3"}},
		{Path: sh, Args: []string{"-c", "echo ok"}},
	}}
	res, err := e.Execute(context.Background(), spec, nil, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, 3, res.Attempts[0].ExitCode)
	assert.Equal(t, "nope", res.Attempts[0].Output)
	assert.Equal(t, "ok", res.Output())
}

func TestRunOnce(t *testing.T) {
	l := &fakeLauncher{results: map[string]fakeProc{
		"lms ps": exited(0, "  Identifier: qwen  \n"),
	}}
	a := New(l, zerolog.Nop()).RunOnce(context.Background(), Invocation{Path: "/usr/bin/lms", Args: []string{"ps"}}, time.Second)
	assert.True(t, a.Succeeded)
	assert.Equal(t, "Identifier: qwen", a.Output)

	a = New(l, zerolog.Nop()).RunOnce(context.Background(), Invocation{Path: "lms", Args: []string{"ps"}}, time.Second)
	assert.False(t, a.Succeeded)
	assert.ErrorIs(t, a.Err, ErrRelativePath)
}
