// Package tui shows a running batch in the terminal: a spinner with the
// latest status line, a progress bar over the listed files, and an activity
// log of finished files. Ctrl+C or q cancels between files.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/tiff-splitter/internal/splitter"
	"github.com/joe/tiff-splitter/internal/tui/shared"
)

// Phase is where the batch is.
type Phase int

// Phase values.
const (
	PhaseListing Phase = iota
	PhaseSplitting
	PhaseCancelling
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseListing:
		return "listing"
	case PhaseSplitting:
		return "splitting"
	case PhaseCancelling:
		return "cancelling"
	case PhaseDone:
		return "done"
	default:
		return "listing"
	}
}

// BatchFunc runs the batch. It is called once, off the UI goroutine.
type BatchFunc func() (splitter.Summary, error)

// Model is the bubbletea model for one batch.
type Model struct {
	folder string
	run    BatchFunc
	cancel context.CancelFunc
	bridge *shared.EventBridge

	spinner  spinner.Model
	progress progress.Model
	phase    Phase

	total    int
	finished int
	current  string
	entries  []shared.LogEntry

	summary  splitter.Summary
	err      error
	complete string
	width    int
}

// NewModel returns a model that starts run on Init and renders the events
// arriving on bridge. cancel is called when the user asks to stop.
func NewModel(folder string, run BatchFunc, cancel context.CancelFunc, bridge *shared.EventBridge) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = shared.SpinnerStyle()

	return Model{
		folder:   folder,
		run:      run,
		cancel:   cancel,
		bridge:   bridge,
		spinner:  spin,
		progress: shared.NewProgressModel(shared.ProgressBarWidth),
		phase:    PhaseListing,
	}
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Summary returns the batch summary once the batch has returned.
func (m Model) Summary() splitter.Summary {
	return m.summary
}

// Err returns the error ProcessDirectory returned, if any.
func (m Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	run := m.run

	return tea.Batch(
		m.spinner.Tick,
		m.bridge.ListenCmd(),
		func() tea.Msg {
			summary, err := run()
			return shared.BatchDoneMsg{Summary: summary, Err: err}
		},
	)
}
