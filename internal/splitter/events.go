package splitter

import (
	"fmt"
)

// Event is the interface implemented by all splitter events. Every event
// renders a one-line status for display.
type Event interface {
	isEvent()
	Status() string
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// StatusFunc adapts a function taking status lines to an EventEmitter.
type StatusFunc func(status string)

// Emit passes the event's status line to f.
func (f StatusFunc) Emit(event Event) {
	f(event.Status())
}

// Batch events

// BatchStarted is emitted once the folder has been listed.
type BatchStarted struct {
	Dir   string
	Total int
}

func (BatchStarted) isEvent() {}

// Status renders the event.
func (e BatchStarted) Status() string {
	if e.Total == 1 {
		return "Found 1 file in " + e.Dir
	}

	return fmt.Sprintf("Found %d files in %s", e.Total, e.Dir)
}

// BatchComplete is emitted when every file has been processed, or when the
// batch was cancelled between files.
type BatchComplete struct {
	Summary Summary
}

func (BatchComplete) isEvent() {}

// Status renders the event.
func (e BatchComplete) Status() string {
	if e.Summary.Cancelled {
		return "Cancelled. " + ResultMessage(e.Summary.Split)
	}

	return ResultMessage(e.Summary.Split)
}

// File events

// FileStarted is emitted before a file is looked at.
type FileStarted struct {
	Path string
	Name string
}

func (FileStarted) isEvent() {}

// Status renders the event.
func (e FileStarted) Status() string {
	return fmt.Sprintf("Processing %s...", e.Name)
}

// FileSkipped is emitted when a file is left untouched.
type FileSkipped struct {
	Path   string
	Name   string
	Reason SkipReason
}

func (FileSkipped) isEvent() {}

// Status renders the event.
func (e FileSkipped) Status() string {
	switch e.Reason {
	case SkipNotAFile:
		return fmt.Sprintf("Processing %s Failed (Bad Param).", e.Name)
	case SkipNotTiffExtension:
		return fmt.Sprintf("Ignore %s - not a TIFF.", e.Name)
	case SkipSinglePage:
		return fmt.Sprintf("Ignore %s - does not contain multiple images.", e.Name)
	case SkipExcluded:
		return fmt.Sprintf("Ignore %s - excluded by pattern.", e.Name)
	case SkipNone:
		return fmt.Sprintf("Ignore %s.", e.Name)
	default:
		return fmt.Sprintf("Ignore %s - %s.", e.Name, e.Reason)
	}
}

// SplitStarted is emitted when a multi-page file is about to be split.
type SplitStarted struct {
	Path  string
	Name  string
	Pages int
}

func (SplitStarted) isEvent() {}

// Status renders the event.
func (e SplitStarted) Status() string {
	return fmt.Sprintf("Splitting %s...", e.Name)
}

// PageStarted is emitted before page Index is written.
type PageStarted struct {
	Path  string
	Name  string
	Index int
	Pages int
}

func (PageStarted) isEvent() {}

// Status renders the event.
func (e PageStarted) Status() string {
	return fmt.Sprintf("Splitting %s (%d)...", e.Name, e.Index)
}

// PageWritten is emitted after page Index has been written to Output.
type PageWritten struct {
	Path   string
	Name   string
	Index  int
	Pages  int
	Output string
	Bytes  int
}

func (PageWritten) isEvent() {}

// Status renders the event.
func (e PageWritten) Status() string {
	return fmt.Sprintf("Wrote %s", e.Output)
}

// MoveStarted is emitted before the original is moved aside.
type MoveStarted struct {
	Path string
	Name string
}

func (MoveStarted) isEvent() {}

// Status renders the event.
func (e MoveStarted) Status() string {
	return fmt.Sprintf("Moving %s...", e.Name)
}

// FileDone is emitted when a file was split and its original relocated.
type FileDone struct {
	Outcome Outcome
}

func (FileDone) isEvent() {}

// Status renders the event.
func (e FileDone) Status() string {
	return fmt.Sprintf("Successfully processed %s", e.Outcome.Name)
}

// FileFailed is emitted when a file could not be processed.
type FileFailed struct {
	Outcome Outcome
}

func (FileFailed) isEvent() {}

// Status renders the event.
func (e FileFailed) Status() string {
	return fmt.Sprintf("Processing %s failed - %v.", e.Outcome.Name, e.Outcome.Err)
}
