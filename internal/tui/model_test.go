package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
	"github.com/lmtray/lmtray/internal/status"
)

type fakeEngine struct {
	snap      engine.Snapshot
	triggered []models.Action
	err       error
}

func (f *fakeEngine) Status() engine.Snapshot { return f.snap }

func (f *fakeEngine) Subscribe() (<-chan engine.Snapshot, func()) {
	return make(chan engine.Snapshot), func() {}
}

func (f *fakeEngine) Trigger(a models.Action) (*runner.Handle, error) {
	f.triggered = append(f.triggered, a)
	if f.err != nil {
		return nil, f.err
	}
	return &runner.Handle{ID: uuid.New(), Action: a}, nil
}

func (f *fakeEngine) ShowStatus(context.Context) (string, error) {
	return "Identifier: qwen", nil
}

func stoppedSnapshot() engine.Snapshot {
	s := models.RuntimeState{DaemonInstalled: true, DesktopInstalled: true}
	return engine.Snapshot{State: s, Presentation: status.Describe(s, models.UpdateInfo{CurrentVersion: "dev", DevBuild: true}, "qwen")}
}

func press(m Model, r rune) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(Model), cmd
}

func TestKeyTriggersAction(t *testing.T) {
	eng := &fakeEngine{snap: stoppedSnapshot()}
	m := NewModel(eng)

	m, cmd := press(m, 'd')
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, ActionResultMsg{Action: models.ActionStartDaemon}, msg)
	assert.Equal(t, []models.Action{models.ActionStartDaemon}, eng.triggered)

	next, _ := m.Update(msg)
	assert.Equal(t, "start-daemon submitted", next.(Model).message)
}

func TestDisabledActionNotTriggered(t *testing.T) {
	eng := &fakeEngine{snap: stoppedSnapshot()}
	m := NewModel(eng)

	m, _ = press(m, 'D') // stop daemon while stopped
	assert.Empty(t, eng.triggered)
	assert.Contains(t, m.message, "not available")
}

func TestBusyAndDebouncedResults(t *testing.T) {
	eng := &fakeEngine{snap: stoppedSnapshot()}
	m := NewModel(eng)

	next, _ := m.Update(ActionResultMsg{Action: models.ActionStartDaemon, Err: &runner.BusyError{Group: models.GroupRuntime}})
	assert.Equal(t, "Already working, please wait", next.(Model).message)

	next, cmd := m.Update(ActionResultMsg{Action: models.ActionStartDaemon, Err: engine.ErrDebounced})
	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).message)
	assert.NoError(t, next.(Model).err)

	next, _ = m.Update(ActionResultMsg{Action: models.ActionStartDaemon, Err: errors.New("exit status 1")})
	assert.Contains(t, next.(Model).View(), "exit status 1")
}

func TestViewRendersSnapshot(t *testing.T) {
	eng := &fakeEngine{snap: stoppedSnapshot()}
	m := NewModel(eng)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	ready := models.RuntimeState{DaemonInstalled: true, DaemonRunning: true, ModelLoaded: true, ActiveModelID: "qwen", LoadedModels: []string{"qwen"}}
	next, _ = next.Update(SnapshotMsg{Snapshot: engine.Snapshot{
		State:        ready,
		Presentation: status.Describe(ready, models.UpdateInfo{}, "qwen"),
		InFlight:     []models.Action{models.ActionLoadModel},
	}})

	view := next.(Model).View()
	assert.Contains(t, view, "Ready")
	assert.Contains(t, view, "Daemon: Running")
	assert.Contains(t, view, "Model: qwen")
	assert.Contains(t, view, "working: load-model")
}

func TestShowStatusReport(t *testing.T) {
	m := NewModel(&fakeEngine{snap: stoppedSnapshot()})
	m, cmd := press(m, 's')
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	assert.Contains(t, next.(Model).View(), "Identifier: qwen")
}
