package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/lmtray/lmtray/internal/models"
)

// KeyMap holds every binding of the status view.
type KeyMap struct {
	StartDaemon  key.Binding
	StopDaemon   key.Binding
	StartDesktop key.Binding
	StopDesktop  key.Binding
	LoadModel    key.Binding
	Refresh      key.Binding
	CheckUpdate  key.Binding
	ShowStatus   key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var keys = KeyMap{
	StartDaemon: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "start daemon"),
	),
	StopDaemon: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "stop daemon"),
	),
	StartDesktop: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "start desktop app"),
	),
	StopDesktop: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "stop desktop app"),
	),
	LoadModel: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "reload model"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	CheckUpdate: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "check updates"),
	),
	ShowStatus: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "show models"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.StartDaemon, k.StartDesktop, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.StartDaemon, k.StopDaemon, k.StartDesktop, k.StopDesktop},
		{k.LoadModel, k.Refresh, k.CheckUpdate, k.ShowStatus},
		{k.Help, k.Quit},
	}
}

// actionFor maps a binding to the action it triggers.
func (k KeyMap) actionFor() []struct {
	binding key.Binding
	action  models.Action
} {
	return []struct {
		binding key.Binding
		action  models.Action
	}{
		{k.StartDaemon, models.ActionStartDaemon},
		{k.StopDaemon, models.ActionStopDaemon},
		{k.StartDesktop, models.ActionStartDesktop},
		{k.StopDesktop, models.ActionStopDesktop},
		{k.LoadModel, models.ActionLoadModel},
		{k.Refresh, models.ActionReload},
		{k.CheckUpdate, models.ActionCheckUpdate},
	}
}
