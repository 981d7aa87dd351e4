package tui

import (
	"github.com/charmbracelet/x/ansi"
)

func renderStatusBar(m *Model, width int) string {
	var text string
	switch {
	case m.err != nil:
		text = errorStyle.Render("Error: " + m.err.Error())
	case m.message != "":
		text = noticeStyle.Render(m.message)
	default:
		text = m.snap.Presentation.Title
	}
	text = " " + text
	if width > 0 {
		text = ansi.Truncate(text, width, "…")
		return statusBarStyle.Width(width).Render(text)
	}
	return statusBarStyle.Render(text)
}
