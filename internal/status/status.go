// Package status maps a RuntimeState to what the user sees. Everything here
// is pure: the same state always gives the same presentation.
package status

import (
	"fmt"
	"strings"

	"github.com/lmtray/lmtray/internal/models"
)

// Level is the overall status, ordered from worst to best.
type Level int

// Levels.
const (
	NotInstalled Level = iota
	BothStopped
	RunningNoModel
	Ready
)

func (l Level) String() string {
	switch l {
	case NotInstalled:
		return "not-installed"
	case BothStopped:
		return "stopped"
	case RunningNoModel:
		return "running-no-model"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Label is the human-readable form.
func (l Level) Label() string {
	switch l {
	case NotInstalled:
		return "Not installed"
	case BothStopped:
		return "Stopped"
	case RunningNoModel:
		return "No model loaded"
	case Ready:
		return "Ready"
	}
	return "Unknown"
}

// Indicator is a glyph for text surfaces.
func (l Level) Indicator() string {
	switch l {
	case NotInstalled:
		return "🔴"
	case BothStopped:
		return "🟡"
	case RunningNoModel:
		return "🟠"
	default:
		return "🟢"
	}
}

// IconName is the freedesktop icon name for the level.
func (l Level) IconName() string {
	switch l {
	case NotInstalled:
		return "emblem-unreadable"
	case BothStopped:
		return "dialog-warning"
	case RunningNoModel:
		return "help-info"
	default:
		return "emblem-default"
	}
}

// MenuEnablement says which actions are offered.
type MenuEnablement struct {
	StartDaemon  bool `json:"start_daemon"`
	StopDaemon   bool `json:"stop_daemon"`
	StartDesktop bool `json:"start_desktop"`
	StopDesktop  bool `json:"stop_desktop"`
	LoadModel    bool `json:"load_model"`
	Reload       bool `json:"reload"`
	CheckUpdate  bool `json:"check_update"`
}

// Allows reports whether the action is enabled.
func (m MenuEnablement) Allows(a models.Action) bool {
	switch a {
	case models.ActionStartDaemon:
		return m.StartDaemon
	case models.ActionStopDaemon:
		return m.StopDaemon
	case models.ActionStartDesktop:
		return m.StartDesktop
	case models.ActionStopDesktop:
		return m.StopDesktop
	case models.ActionLoadModel:
		return m.LoadModel
	case models.ActionReload:
		return m.Reload
	case models.ActionCheckUpdate:
		return m.CheckUpdate
	}
	return false
}

// LevelOf applies the precedence rule: not installed, then stopped, then
// running without a model, then ready.
func LevelOf(s models.RuntimeState) Level {
	switch {
	case !s.DaemonInstalled && !s.DesktopInstalled:
		return NotInstalled
	case !s.DaemonRunning && !s.DesktopRunning:
		return BothStopped
	case !s.ModelLoaded:
		return RunningNoModel
	default:
		return Ready
	}
}

// Present returns the level and menu enablement for a state. Start actions
// stay enabled while the other runtime runs; the controller stops it first.
func Present(s models.RuntimeState) (Level, MenuEnablement) {
	return LevelOf(s), MenuEnablement{
		StartDaemon:  s.DaemonInstalled && !s.DaemonRunning,
		StopDaemon:   s.DaemonRunning,
		StartDesktop: s.DesktopInstalled && !s.DesktopRunning,
		StopDesktop:  s.DesktopRunning,
		LoadModel:    s.AnyRunning(),
		Reload:       true,
		CheckUpdate:  true,
	}
}

// Runtime states for a single subsystem.
const (
	RuntimeRunning      = "Running"
	RuntimeStopped      = "Stopped"
	RuntimeNotInstalled = "Not Installed"
)

// RuntimeStatus describes one subsystem.
func RuntimeStatus(installed, running bool) string {
	switch {
	case running:
		return RuntimeRunning
	case installed:
		return RuntimeStopped
	default:
		return RuntimeNotInstalled
	}
}

// RuntimeIndicator is the glyph for a RuntimeStatus value.
func RuntimeIndicator(status string) string {
	switch status {
	case RuntimeRunning:
		return "🟢"
	case RuntimeStopped:
		return "🟡"
	default:
		return "🔴"
	}
}

// Presentation is everything a UI layer needs to render one state.
type Presentation struct {
	Level   Level          `json:"-"`
	Status  string         `json:"status"`
	Menu    MenuEnablement `json:"menu"`
	Title   string         `json:"title"`
	Tooltip string         `json:"tooltip"`
	Daemon  string         `json:"daemon"`
	Desktop string         `json:"desktop"`
	Model   string         `json:"model"`
	Version string         `json:"version"`
}

// Describe builds the full presentation. expectedModel is the configured
// model, if any; a different loaded model is flagged.
func Describe(s models.RuntimeState, u models.UpdateInfo, expectedModel string) Presentation {
	level, menu := Present(s)
	if expectedModel == "" {
		menu.LoadModel = false
	}

	daemon := RuntimeStatus(s.DaemonInstalled, s.DaemonRunning)
	desktop := RuntimeStatus(s.DesktopInstalled, s.DesktopRunning)

	p := Presentation{
		Level:   level,
		Status:  level.String(),
		Menu:    menu,
		Title:   fmt.Sprintf("%s LM Studio: %s", level.Indicator(), level.Label()),
		Daemon:  fmt.Sprintf("%s Daemon: %s", RuntimeIndicator(daemon), daemon),
		Desktop: fmt.Sprintf("%s Desktop App: %s", RuntimeIndicator(desktop), desktop),
		Model:   describeModel(s, expectedModel),
		Version: describeVersion(u),
	}

	lines := []string{"LM Studio: " + level.Label()}
	if p.Model != "" {
		lines = append(lines, p.Model)
	}
	lines = append(lines, "Daemon: "+daemon, "Desktop App: "+desktop)
	p.Tooltip = strings.Join(lines, "\n")
	return p
}

func describeModel(s models.RuntimeState, expected string) string {
	switch {
	case !s.AnyRunning():
		return ""
	case !s.ModelLoaded:
		if expected != "" {
			return fmt.Sprintf("No model loaded (expected %s)", expected)
		}
		return "No model loaded"
	case expected != "" && !s.HasModel(expected):
		return fmt.Sprintf("Model: %s (expected %s)", s.ActiveModelID, expected)
	case expected != "":
		return "Model: " + expected
	default:
		return "Model: " + s.ActiveModelID
	}
}

func describeVersion(u models.UpdateInfo) string {
	v := u.CurrentVersion
	if v == "" {
		v = "dev"
	}
	if !strings.HasPrefix(v, "v") && v != "dev" {
		v = "v" + v
	}
	label := fmt.Sprintf("%s (%s)", v, u.Status())
	if u.Available && u.LatestVersion != "" {
		label = fmt.Sprintf("%s (%s: v%s)", v, u.Status(), strings.TrimPrefix(u.LatestVersion, "v"))
	}
	return label
}
