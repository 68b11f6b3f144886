package shared

import (
	"strings"

	"github.com/joe/tiff-splitter/internal/splitter"
)

// EntryKind selects how an activity log entry is styled.
type EntryKind int

// EntryKind values.
const (
	EntryInfo EntryKind = iota
	EntrySplit
	EntrySkipped
	EntryFailed
)

// LogEntry is one line of the activity log.
type LogEntry struct {
	Kind EntryKind
	Text string
}

// EntryFor turns a per-file terminal event into a log entry. ok is false for
// events that do not finish a file.
func EntryFor(event splitter.Event) (LogEntry, bool) {
	switch e := event.(type) {
	case splitter.FileDone:
		return LogEntry{Kind: EntrySplit, Text: e.Status()}, true
	case splitter.FileSkipped:
		return LogEntry{Kind: EntrySkipped, Text: e.Status()}, true
	case splitter.FileFailed:
		return LogEntry{Kind: EntryFailed, Text: e.Status()}, true
	default:
		return LogEntry{}, false
	}
}

// RenderActivityLog renders entries oldest first under an optional title.
// If maxEntries > 0, only the most recent maxEntries are shown.
func RenderActivityLog(title string, entries []LogEntry, maxEntries int) string {
	var builder strings.Builder

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle != "" {
		builder.WriteString(RenderLabel(trimmedTitle))
		builder.WriteString("\n")

		if len(entries) > 0 {
			builder.WriteString("\n")
		}
	}

	if len(entries) == 0 {
		return builder.String()
	}

	startIdx := 0
	if maxEntries > 0 && maxEntries < len(entries) {
		startIdx = len(entries) - maxEntries
	}

	for i := startIdx; i < len(entries); i++ {
		builder.WriteString("  ")
		builder.WriteString(renderEntry(entries[i]))

		if i < len(entries)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func renderEntry(entry LogEntry) string {
	switch entry.Kind {
	case EntrySplit:
		return SuccessSymbol() + " " + entry.Text
	case EntrySkipped:
		return RenderDim("- " + entry.Text)
	case EntryFailed:
		return ErrorSymbol() + " " + RenderError(entry.Text)
	case EntryInfo:
		return entry.Text
	default:
		return entry.Text
	}
}

// ErrorSymbol returns the styled marker for failed files.
func ErrorSymbol() string {
	return RenderError("✗")
}

// SuccessSymbol returns the styled marker for split files.
func SuccessSymbol() string {
	return RenderSuccess("✓")
}
