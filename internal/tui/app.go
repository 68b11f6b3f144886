package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/tiff-splitter/internal/splitter"
	"github.com/joe/tiff-splitter/internal/tui/shared"
)

// ErrUnexpectedModel is returned when the program exits with a model this
// package did not create.
var ErrUnexpectedModel = errors.New("unexpected final model")

// Run processes folder with engine while showing progress. The engine's
// event emitter is replaced for the duration of the run. Extra options are
// passed to tea.NewProgram.
func Run(ctx context.Context, engine *splitter.Engine, folder string, opts ...tea.ProgramOption) (splitter.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := shared.NewEventBridge()
	defer bridge.Close()

	previous := engine.GetEventEmitter()
	engine.SetEventEmitter(bridge)

	defer engine.SetEventEmitter(previous)

	batch := func() (splitter.Summary, error) {
		return engine.ProcessDirectory(ctx, folder)
	}

	program := tea.NewProgram(NewModel(folder, batch, cancel, bridge), opts...)

	final, err := program.Run()
	if err != nil {
		return splitter.Summary{}, fmt.Errorf("failed to run progress display: %w", err)
	}

	model, ok := final.(Model)
	if !ok {
		return splitter.Summary{}, fmt.Errorf("%w: %T", ErrUnexpectedModel, final)
	}

	return model.Summary(), model.Err()
}
