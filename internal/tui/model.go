package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lmtray/lmtray/internal/engine"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/runner"
)

// Model is the root Bubbletea model for the TUI.
type Model struct {
	eng  Engine
	snap engine.Snapshot

	width  int
	height int

	spinner spinner.Model
	help    help.Model

	message string
	err     error
	report  string
}

// NewModel creates the initial TUI model.
func NewModel(eng Engine) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle
	return Model{
		eng:     eng,
		snap:    eng.Status(),
		spinner: sp,
		help:    help.New(),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case SnapshotMsg:
		m.snap = msg.Snapshot
		return m, nil

	case ActionResultMsg:
		m.snap = m.eng.Status()
		switch {
		case msg.Err == nil:
			m.err = nil
			m.message = fmt.Sprintf("%s submitted", msg.Action)
		case errors.Is(msg.Err, engine.ErrDebounced):
			return m, nil
		case errors.Is(msg.Err, runner.ErrBusy):
			m.err = nil
			m.message = "Already working, please wait"
		default:
			m.err = msg.Err
		}
		return m, clearMessageAfter(3 * time.Second)

	case ReportMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.report = msg.Text
		return m, nil

	case clearMessageMsg:
		m.message = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, keys.ShowStatus):
		return showStatusCmd(m.eng)
	}
	for _, b := range keys.actionFor() {
		if key.Matches(msg, b.binding) {
			if !m.snap.Presentation.Menu.Allows(b.action) {
				m.message = fmt.Sprintf("%s is not available right now", b.action)
				return clearMessageAfter(3 * time.Second)
			}
			return triggerCmd(m.eng, b.action)
		}
	}
	return nil
}

func triggerCmd(eng Engine, a models.Action) tea.Cmd {
	return func() tea.Msg {
		_, err := eng.Trigger(a)
		return ActionResultMsg{Action: a, Err: err}
	}
}

func showStatusCmd(eng Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		text, err := eng.ShowStatus(ctx)
		return ReportMsg{Text: text, Err: err}
	}
}

func clearMessageAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearMessageMsg{} })
}

// View renders the status view.
func (m Model) View() string {
	p := m.snap.Presentation
	var b strings.Builder

	b.WriteString(headerStyle.Render("lmtray") + "  " + levelStyle(p.Level).Render(p.Level.Indicator()+" "+p.Level.Label()))
	b.WriteString("\n\n")

	rows := []string{
		row("Daemon", p.Daemon),
		row("Desktop", p.Desktop),
	}
	if p.Model != "" {
		rows = append(rows, row("Model", p.Model))
	}
	rows = append(rows, row("Version", p.Version))
	if !m.snap.UpdatedAt.IsZero() {
		rows = append(rows, row("Updated", m.snap.UpdatedAt.Format(time.TimeOnly)))
	}
	b.WriteString(panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	b.WriteString("\n")

	if len(m.snap.InFlight) > 0 {
		names := make([]string, len(m.snap.InFlight))
		for i, a := range m.snap.InFlight {
			names[i] = string(a)
		}
		b.WriteString(m.spinner.View() + busyStyle.Render(" working: "+strings.Join(names, ", ")))
		b.WriteString("\n")
	}

	if m.report != "" {
		b.WriteString(reportStyle.Render(m.report))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStatusBar(&m, m.width))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-8s ", label)) + valueStyle.Render(value)
}
