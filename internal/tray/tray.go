package tray

import (
	"context"
	"errors"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
)

// Tray renders engine snapshots into the system tray.
type Tray struct {
	eng     Engine
	log     zerolog.Logger
	onStart func()
	onExit  func()

	header  *systray.MenuItem
	daemon  *systray.MenuItem
	desktop *systray.MenuItem
	model   *systray.MenuItem
	version *systray.MenuItem
	show    *systray.MenuItem
	quit    *systray.MenuItem
	actions map[models.Action]*systray.MenuItem

	stop func()
}

// New creates a Tray. onStart runs once the menu exists; onExit runs when the
// tray shuts down.
func New(eng Engine, log zerolog.Logger, onStart, onExit func()) *Tray {
	return &Tray{eng: eng, log: log, onStart: onStart, onExit: onExit}
}

// Run starts the system tray. This blocks the calling goroutine (must be main).
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	snap := t.eng.Status()
	systray.SetIcon(iconFor(snap.Level()))
	systray.SetTitle("")

	t.header = systray.AddMenuItem("LM Studio", "")
	t.header.Disable()
	t.daemon = systray.AddMenuItem("Daemon", "")
	t.daemon.Disable()
	t.desktop = systray.AddMenuItem("Desktop App", "")
	t.desktop.Disable()
	t.model = systray.AddMenuItem("", "")
	t.model.Disable()

	systray.AddSeparator()

	t.actions = make(map[models.Action]*systray.MenuItem, len(actionLabels))
	for _, a := range []models.Action{models.ActionStartDaemon, models.ActionStopDaemon, models.ActionStartDesktop, models.ActionStopDesktop} {
		t.actions[a] = systray.AddMenuItem(actionLabels[a], "")
	}

	systray.AddSeparator()

	t.actions[models.ActionLoadModel] = systray.AddMenuItem(actionLabels[models.ActionLoadModel], "Load the configured model")
	t.show = systray.AddMenuItem("Show Status", "Show loaded models")
	t.actions[models.ActionReload] = systray.AddMenuItem(actionLabels[models.ActionReload], "")

	systray.AddSeparator()

	t.version = systray.AddMenuItem("", "")
	t.version.Disable()
	t.actions[models.ActionCheckUpdate] = systray.AddMenuItem(actionLabels[models.ActionCheckUpdate], "")

	systray.AddSeparator()
	t.quit = systray.AddMenuItem("Quit", "Quit lmtray")

	t.render(buildView(snap))

	updates, unsubscribe := t.eng.Subscribe()
	t.stop = unsubscribe
	go func() {
		for s := range updates {
			t.render(buildView(s))
		}
	}()

	if t.onStart != nil {
		t.onStart()
	}

	for a, item := range t.actions {
		go t.forward(a, item)
	}
	go t.handleClicks()
}

func (t *Tray) onQuit() {
	if t.stop != nil {
		t.stop()
	}
	if t.onExit != nil {
		t.onExit()
	}
}

func (t *Tray) forward(a models.Action, item *systray.MenuItem) {
	for range item.ClickedCh {
		_, err := t.eng.Trigger(a)
		switch {
		case err == nil:
			t.render(buildView(t.eng.Status()))
		case errors.Is(err, engine.ErrDebounced):
		default:
			t.log.Debug().Err(err).Str("action", string(a)).Msg("menu action rejected")
		}
	}
}

func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.show.ClickedCh:
			go func() {
				if _, err := t.eng.ShowStatus(context.Background()); err != nil {
					t.log.Warn().Err(err).Msg("show status failed")
				}
			}()
		case <-t.quit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (t *Tray) render(v view) {
	systray.SetIcon(iconFor(v.Level))
	systray.SetTooltip(v.Tooltip)
	t.header.SetTitle(v.Title)
	t.daemon.SetTitle(v.Daemon)
	t.desktop.SetTitle(v.Desktop)
	t.model.SetTitle(v.Model)
	t.version.SetTitle("Version: " + v.Version)
	for a, item := range t.actions {
		if v.Enabled[a] {
			item.Enable()
		} else {
			item.Disable()
		}
	}
}
