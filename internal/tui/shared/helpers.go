package shared

import (
	"fmt"
	"time"

	"github.com/joe/tiff-splitter/internal/splitter"
)

// FormatDuration formats duration into human-readable format (e.g., "2m 30s").
// Durations under a second keep millisecond precision.
func FormatDuration(duration time.Duration) string {
	if duration < time.Second {
		return duration.Round(time.Millisecond).String()
	}

	duration = duration.Round(time.Second)
	hours := duration / time.Hour
	duration %= time.Hour
	minutes := duration / time.Minute
	duration %= time.Minute
	seconds := duration / time.Second

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// FormatCounts renders the per-result totals of a summary on one line.
func FormatCounts(summary splitter.Summary) string {
	return fmt.Sprintf("%d processed, %d split, %d skipped, %d failed",
		summary.Processed, summary.Split, summary.Skipped, summary.Failed)
}

// TruncateLeft shortens text to width runes by dropping its start, which
// keeps the file name of a long path visible.
func TruncateLeft(text string, width int) string {
	runes := []rune(text)
	if width <= len(ellipsis) || len(runes) <= width {
		return text
	}

	return ellipsis + string(runes[len(runes)-(width-len(ellipsis)):])
}

// unexported constants.
const (
	ellipsis = "..."
)
