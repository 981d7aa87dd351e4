package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/lmtray/lmtray/internal/status"
)

// Adaptive colors matching the TUI palette.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
	styleUpdate  = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
)

// Status level badge styles.
var levelBadges = map[status.Level]lipgloss.Style{
	status.NotInstalled:   lipgloss.NewStyle().Bold(true).Foreground(colorRed),
	status.BothStopped:    lipgloss.NewStyle().Bold(true).Foreground(colorYellow),
	status.RunningNoModel: lipgloss.NewStyle().Bold(true).Foreground(colorOrange),
	status.Ready:          lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
}

// styled reports whether stdout is a terminal worth styling.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// render applies s only when stdout is a terminal.
func render(s lipgloss.Style, text string) string {
	if !styled() {
		return text
	}
	return s.Render(text)
}
