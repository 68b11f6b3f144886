package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/tiff-splitter/internal/splitter"
	"github.com/joe/tiff-splitter/internal/tui/shared"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-progressMargin, minProgressWidth), shared.MaxProgressBarWidth)

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.phase == PhaseDone {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case shared.EngineEventMsg:
		m = m.apply(msg.Event)
		if m.phase == PhaseDone {
			return m, nil
		}

		return m, m.bridge.ListenCmd()

	case shared.BatchDoneMsg:
		for _, pending := range m.bridge.Drain() {
			m = m.apply(pending.Event)
		}

		m.summary = msg.Summary
		m.err = msg.Err
		m.phase = PhaseDone

		if m.complete == "" {
			m.complete = splitter.BatchComplete{Summary: msg.Summary}.Status()
		}

		return m, tea.Quit
	}

	return m, nil
}

// handleKey cancels on ctrl+c, q or esc. Every other key is ignored while
// the batch runs.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case shared.KeyCtrlC, "q", "esc":
	default:
		return m, nil
	}

	if m.phase == PhaseDone || m.phase == PhaseCancelling {
		return m, nil
	}

	m.phase = PhaseCancelling
	if m.cancel != nil {
		m.cancel()
	}

	return m, nil
}

// apply folds one engine event into the model.
func (m Model) apply(event splitter.Event) Model {
	switch e := event.(type) {
	case splitter.BatchStarted:
		m.total = e.Total
		if m.phase == PhaseListing {
			m.phase = PhaseSplitting
		}
	case splitter.BatchComplete:
		m.complete = e.Status()
		return m
	}

	if entry, ok := shared.EntryFor(event); ok {
		m.finished++
		m.entries = append(m.entries, entry)
	}

	m.current = event.Status()

	return m
}

// unexported constants.
const (
	progressMargin   = 20
	minProgressWidth = 10
)
