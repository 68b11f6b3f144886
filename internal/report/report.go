// Package report renders splitter progress and results for a plain terminal
// or a log: one status line per event, and a table summarising the batch.
package report

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joe/tiff-splitter/internal/journal"
	"github.com/joe/tiff-splitter/internal/splitter"
)

const (
	detailWidth       = 60
	durationPrecision = 10 * time.Millisecond
	runIDWidth        = 8
	historyTimeLayout = "2006-01-02 15:04:05"
)

// Lines writes the status line of every event to a writer. Write errors are
// kept and reported by Err; reporting never stops a batch.
type Lines struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	err     error
}

// NewLines returns an emitter writing to w. Unless verbose, per-page "Wrote"
// lines are left out.
func NewLines(w io.Writer, verbose bool) *Lines {
	return &Lines{w: w, verbose: verbose}
}

// Emit implements splitter.EventEmitter.
func (l *Lines) Emit(event splitter.Event) {
	if _, ok := event.(splitter.PageWritten); ok && !l.verbose {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return
	}

	_, err := fmt.Fprintln(l.w, event.Status())
	if err != nil {
		l.err = fmt.Errorf("failed to write status: %w", err)
	}
}

// Err returns the first write error, if any.
func (l *Lines) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

// SummaryTable renders one row per processed file and a footer with the
// totals.
func SummaryTable(summary splitter.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Result", "Pages", "Detail"})

	for _, outcome := range summary.Outcomes {
		tw.AppendRow(table.Row{outcome.Name, Result(outcome), pages(outcome), Detail(outcome)})
	}

	tw.AppendFooter(table.Row{
		"Total " + strconv.Itoa(summary.Processed),
		fmt.Sprintf("%d split, %d skipped, %d failed", summary.Split, summary.Skipped, summary.Failed),
		"",
		summary.Duration.Round(durationPrecision).String(),
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: detailWidth},
	})

	return tw.Render()
}

// WriteSummary writes the table followed by the result line.
func WriteSummary(w io.Writer, summary splitter.Summary) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", SummaryTable(summary), splitter.ResultMessage(summary.Split))
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

// HistoryTable renders journal entries, one row each, in the order given.
func HistoryTable(entries []journal.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Run", "File", "Result", "Pages", "Detail"})

	for _, entry := range entries {
		pageCount := ""
		if entry.Pages > 0 {
			pageCount = strconv.Itoa(entry.Pages)
		}

		tw.AppendRow(table.Row{
			entry.StartedAt.Local().Format(historyTimeLayout),
			shortRunID(entry.RunID),
			entry.Source,
			entry.State,
			pageCount,
			historyDetail(entry),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: detailWidth},
	})

	return tw.Render()
}

// WriteHistory writes the entries as a table, or a note when there are none.
func WriteHistory(w io.Writer, entries []journal.Entry) error {
	out := "No journal entries"
	if len(entries) > 0 {
		out = HistoryTable(entries)
	}

	_, err := fmt.Fprintln(w, out)
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	return nil
}

func historyDetail(entry journal.Entry) string {
	switch {
	case entry.Error != "":
		return entry.Error
	case entry.SkipReason != "":
		return entry.SkipReason
	case entry.Relocated != "":
		return fmt.Sprintf("%d files, original in %s", len(entry.Outputs), entry.Relocated)
	default:
		return ""
	}
}

func shortRunID(id string) string {
	if len(id) <= runIDWidth {
		return id
	}

	return id[:runIDWidth]
}

// Result names the terminal state of an outcome for display.
func Result(outcome splitter.Outcome) string {
	switch outcome.State {
	case splitter.StateDone:
		return "split"
	case splitter.StateSkipped:
		return "skipped"
	case splitter.StateFailed:
		return "failed (" + outcome.FailedAt.String() + ")"
	default:
		return outcome.State.String()
	}
}

// Detail explains an outcome in a few words.
func Detail(outcome splitter.Outcome) string {
	switch outcome.State {
	case splitter.StateDone:
		return fmt.Sprintf("%d files, original in %s", len(outcome.Outputs), outcome.Relocated)
	case splitter.StateSkipped:
		return outcome.Skip.String()
	case splitter.StateFailed:
		if len(outcome.Outputs) > 0 {
			return fmt.Sprintf("%v (%d files written)", outcome.Err, len(outcome.Outputs))
		}

		return fmt.Sprint(outcome.Err)
	default:
		return ""
	}
}

func pages(outcome splitter.Outcome) string {
	if outcome.Pages == 0 {
		return ""
	}

	return strconv.Itoa(outcome.Pages)
}
