package splitter

import (
	"time"
)

// State is a position in the per-file state machine:
// Start -> Validated -> Inspected -> (Skipped | Splitting -> Relocating -> Done) | Failed.
type State int

// States of a file, in the order they are reached.
const (
	StateStart State = iota
	StateValidated
	StateInspected
	StateSplitting
	StateRelocating
	StateDone
	StateSkipped
	StateFailed
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateValidated:
		return "validated"
	case StateInspected:
		return "inspected"
	case StateSplitting:
		return "splitting"
	case StateRelocating:
		return "relocating"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateSkipped || s == StateFailed
}

// SkipReason says why a file was left alone. Skips are not errors.
type SkipReason int

// Skip reasons.
const (
	SkipNone SkipReason = iota
	SkipNotAFile
	SkipNotTiffExtension
	SkipExcluded
	SkipSinglePage
)

// String returns a short description of the reason.
func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return ""
	case SkipNotAFile:
		return "not a file"
	case SkipNotTiffExtension:
		return "not a tiff"
	case SkipExcluded:
		return "excluded by pattern"
	case SkipSinglePage:
		return "single page"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of processing one file.
type Outcome struct {
	Path string
	Name string

	State State
	// FailedAt is the state the file was in when it failed. Only set when
	// State is StateFailed.
	FailedAt State
	Skip     SkipReason

	Pages     int
	Outputs   []string
	Relocated string
	Err       error

	Duration time.Duration
}

// Split reports whether every page was written and the original relocated.
// A file whose pages were written but whose original could not be moved is
// not split.
func (o Outcome) Split() bool {
	return o.State == StateDone
}

// Summary totals the outcomes of a batch.
type Summary struct {
	Dir       string
	Processed int
	Split     int
	Skipped   int
	Failed    int
	Outcomes  []Outcome
	Duration  time.Duration
	Cancelled bool
}

func (s *Summary) add(outcome Outcome) {
	s.Processed++
	s.Outcomes = append(s.Outcomes, outcome)

	switch outcome.State {
	case StateDone:
		s.Split++
	case StateSkipped:
		s.Skipped++
	case StateFailed:
		s.Failed++
	default:
	}
}
