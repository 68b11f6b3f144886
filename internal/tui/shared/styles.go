package shared

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Layout.
const (
	ProgressBarWidth    = 40
	MaxProgressBarWidth = 100
	ActivityLogEntries  = 8

	KeyCtrlC = "ctrl+c"

	boxPadding = 2
)

// ANSI 256 palette.
const (
	colorAccent    = "62"
	colorDim       = "240"
	colorError     = "196"
	colorHighlight = "86"
	colorPrimary   = "205"
	colorSuccess   = "42"
	colorWarning   = "226"
)

//nolint:gochecknoglobals // Read once from the environment
var colorsDisabled = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"

// GetColorsDisabled reports whether NO_COLOR or TERM=dumb turned styling off.
func GetColorsDisabled() bool {
	return colorsDisabled
}

// SetColorsDisabledForTesting overrides the environment.
func SetColorsDisabledForTesting(disabled bool) {
	colorsDisabled = disabled
}

func fg(code string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(code))
}

// SpinnerStyle colors the busy spinner.
func SpinnerStyle() lipgloss.Style {
	return fg(colorPrimary)
}

func RenderTitle(text string) string   { return fg(colorPrimary).Bold(true).MarginBottom(1).Render(text) }
func RenderLabel(text string) string   { return fg(colorHighlight).Bold(true).Render(text) }
func RenderDim(text string) string     { return fg(colorDim).Render(text) }
func RenderSuccess(text string) string { return fg(colorSuccess).Bold(true).Render(text) }
func RenderWarning(text string) string { return fg(colorWarning).Bold(true).Render(text) }
func RenderError(text string) string   { return fg(colorError).Bold(true).Render(text) }

// RenderBox frames content in a rounded border.
func RenderBox(content string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorAccent)).
		Padding(0, boxPadding).
		Render(content)
}
