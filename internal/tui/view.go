package tui

import (
	"strings"

	"github.com/joe/tiff-splitter/internal/tui/shared"
)

// View implements tea.Model.
func (m Model) View() string {
	var builder strings.Builder

	builder.WriteString(shared.RenderTitle("Splitting TIFFs in " + m.folder))
	builder.WriteString("\n")

	if m.phase == PhaseDone {
		builder.WriteString(m.renderDone())
	} else {
		builder.WriteString(m.renderRunning())
	}

	builder.WriteString("\n")

	return builder.String()
}

func (m Model) renderRunning() string {
	var builder strings.Builder

	status := m.current
	if status == "" {
		status = "Listing " + m.folder + "..."
	}

	builder.WriteString(m.spinner.View())
	builder.WriteString(" ")
	builder.WriteString(shared.TruncateLeft(status, m.statusWidth()))
	builder.WriteString("\n")

	if m.phase != PhaseListing {
		builder.WriteString(shared.RenderProgress(m.progress, m.finished, m.total))
		builder.WriteString("\n")
	}

	if len(m.entries) > 0 {
		builder.WriteString("\n")
		builder.WriteString(shared.RenderActivityLog("Recent", m.entries, shared.ActivityLogEntries))
		builder.WriteString("\n")
	}

	builder.WriteString("\n")

	if m.phase == PhaseCancelling {
		builder.WriteString(shared.RenderWarning("Stopping after the current file..."))
	} else {
		builder.WriteString(shared.RenderDim("ctrl+c or q: stop after the current file"))
	}

	return builder.String()
}

func (m Model) renderDone() string {
	var builder strings.Builder

	switch {
	case m.err != nil && m.summary.Cancelled:
		builder.WriteString(shared.RenderWarning(m.complete))
	case m.err != nil:
		builder.WriteString(shared.RenderError(m.err.Error()))
	case m.summary.Failed > 0:
		builder.WriteString(shared.RenderWarning(m.complete))
	default:
		builder.WriteString(shared.RenderSuccess(m.complete))
	}

	builder.WriteString("\n")
	builder.WriteString(shared.RenderDim(shared.FormatCounts(m.summary) + " in " + shared.FormatDuration(m.summary.Duration)))
	builder.WriteString("\n")

	if len(m.entries) > 0 {
		builder.WriteString("\n")
		builder.WriteString(shared.RenderBox(shared.RenderActivityLog("", m.entries, 0)))
	}

	return builder.String()
}

func (m Model) statusWidth() int {
	if m.width <= 0 {
		return 0
	}

	return m.width - statusMargin
}

// unexported constants.
const (
	statusMargin = 4
)
