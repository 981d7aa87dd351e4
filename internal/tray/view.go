package tray

import (
	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/status"
)

// Menu labels.
var actionLabels = map[models.Action]string{
	models.ActionStartDaemon:  "Start Daemon (Headless)",
	models.ActionStopDaemon:   "Stop Daemon",
	models.ActionStartDesktop: "Start Desktop App",
	models.ActionStopDesktop:  "Stop Desktop App",
	models.ActionLoadModel:    "Reload Model",
	models.ActionReload:       "Refresh Status",
	models.ActionCheckUpdate:  "Check for Updates",
}

// view is what one snapshot looks like in the menu.
type view struct {
	Level   status.Level
	Title   string
	Tooltip string
	Daemon  string
	Desktop string
	Model   string
	Version string
	Enabled map[models.Action]bool
}

func buildView(s engine.Snapshot) view {
	p := s.Presentation
	v := view{
		Level:   p.Level,
		Title:   p.Title,
		Tooltip: p.Tooltip,
		Daemon:  p.Daemon,
		Desktop: p.Desktop,
		Model:   p.Model,
		Version: p.Version,
		Enabled: make(map[models.Action]bool, len(models.Actions)),
	}
	busy := make(map[models.Group]bool)
	for _, a := range s.InFlight {
		busy[a.Group()] = true
	}
	for _, a := range models.Actions {
		v.Enabled[a] = p.Menu.Allows(a) && !busy[a.Group()]
	}
	if v.Model == "" {
		v.Model = "No model information"
	}
	return v
}
