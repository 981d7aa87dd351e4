package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lmtray/lmtray/internal/status"
)

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	labelStyle  = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(colorGreen)
	busyStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	reportStyle = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
)

func levelStyle(l status.Level) lipgloss.Style {
	switch l {
	case status.Ready:
		return lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	case status.RunningNoModel:
		return lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
	case status.BothStopped:
		return lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	}
}
