// Package main is the entry point for the tiff-splitter application.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/tiff-splitter/internal/config"
	"github.com/joe/tiff-splitter/internal/dirlock"
	"github.com/joe/tiff-splitter/internal/journal"
	"github.com/joe/tiff-splitter/internal/logging"
	"github.com/joe/tiff-splitter/internal/report"
	"github.com/joe/tiff-splitter/internal/splitter"
	"github.com/joe/tiff-splitter/internal/tui"
	apperrors "github.com/joe/tiff-splitter/pkg/errors"
	"github.com/joe/tiff-splitter/pkg/filesystem"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	interactive := !cfg.Plain && term.IsTerminal(int(os.Stdout.Fd()))

	code := run(ctx, cfg, interactive, os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

// run splits cfg.Folder and returns the process exit code. Status goes to
// stdout, problems to stderr.
func run(ctx context.Context, cfg *config.Config, interactive bool, stdout, stderr io.Writer) int {
	if cfg.ShowHistory() {
		return showHistory(ctx, cfg, stdout, stderr)
	}

	loc, err := filesystem.ParseLocation(cfg.Folder)
	if err != nil {
		return fail(stderr, err, cfg.Folder)
	}

	fsys, release, err := filesystem.Mount(loc)
	if err != nil {
		return fail(stderr, err, cfg.Folder)
	}

	defer func() { _ = release() }()

	folder := loc.Path

	err = config.CheckFolder(fsys, folder)
	if err != nil {
		return fail(stderr, err, folder)
	}

	// Remote folders may be reached from other machines, so a local lock
	// would not exclude anything.
	if !cfg.NoLock && !loc.Remote {
		lock, err := acquireLock(folder)
		if err != nil {
			return fail(stderr, err, folder)
		}

		defer func() { _ = lock.Release() }()
	}

	runID := uuid.NewString()

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Path:   cfg.LogFile,
	})
	if err != nil {
		return fail(stderr, err, cfg.LogFile)
	}

	defer func() { _ = logCloser.Close() }()

	logger = logging.WithRun(logger, runID, cfg.Folder)

	opts := splitter.Options{
		Codec:   cfg.Codec,
		Include: cfg.Include,
		Logger:  logger,
	}

	if cfg.Journal != "" {
		jrnl, err := journal.Open(cfg.Journal, runID)
		if err != nil {
			return fail(stderr, err, cfg.Journal)
		}

		defer func() { _ = jrnl.Close() }()

		opts.Recorder = jrnl
	}

	engine, err := splitter.NewEngine(fsys, opts)
	if err != nil {
		return fail(stderr, err, "")
	}

	summary, err := process(ctx, engine, folder, cfg, interactive, stdout)
	if err != nil && summary.Processed == 0 && !summary.Cancelled {
		return fail(stderr, err, folder)
	}

	if summary.Processed > 0 {
		if writeErr := report.WriteSummary(stdout, summary); writeErr != nil {
			logger.Warn("failed to print summary", "error", writeErr)
		}
	}

	if interactive {
		_, _ = fmt.Fprintln(stdout, splitter.BatchComplete{Summary: summary}.Status())
	}

	printFailures(stderr, summary)

	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	if summary.Failed > 0 {
		return exitFailed
	}

	return exitOK
}

// process runs the batch behind the TUI or with plain status lines.
func process(
	ctx context.Context,
	engine *splitter.Engine,
	folder string,
	cfg *config.Config,
	interactive bool,
	stdout io.Writer,
) (splitter.Summary, error) {
	if interactive {
		return tui.Run(ctx, engine, folder, tea.WithAltScreen()) //nolint:wrapcheck // Already wrapped by the engine
	}

	lines := report.NewLines(stdout, cfg.Verbose)
	engine.SetEventEmitter(lines)

	summary, err := engine.ProcessDirectory(ctx, folder)
	if err != nil {
		return summary, fmt.Errorf("failed to process %s: %w", folder, err)
	}

	return summary, lines.Err() //nolint:wrapcheck // Already wrapped by Lines
}

// showHistory prints journal entries instead of splitting anything.
func showHistory(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	jrnl, err := journal.Open(cfg.Journal, uuid.NewString())
	if err != nil {
		return fail(stderr, err, cfg.Journal)
	}

	defer func() { _ = jrnl.Close() }()

	var entries []journal.Entry
	if cfg.HistoryRun != "" {
		entries, err = jrnl.Run(ctx, cfg.HistoryRun)
	} else {
		entries, err = jrnl.Recent(ctx, cfg.History)
	}

	if err != nil {
		return fail(stderr, err, cfg.Journal)
	}

	err = report.WriteHistory(stdout, entries)
	if err != nil {
		return fail(stderr, err, "")
	}

	return exitOK
}

func acquireLock(folder string) (*dirlock.Lock, error) {
	dir, err := dirlock.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", folder, err)
	}

	lock, err := dirlock.Acquire(dir, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", folder, err)
	}

	return lock, nil
}

// fail prints err with suggestions and returns the failure exit code.
func fail(stderr io.Writer, err error, path string) int {
	diagnosis := apperrors.Diagnose(err, path)

	_, _ = fmt.Fprintf(stderr, "Error: %v\n", diagnosis)
	if bullets := diagnosis.Bullets(); bullets != "" {
		_, _ = fmt.Fprintln(stderr, bullets)
	}

	return exitFailed
}

// printFailures lists every failed file with suggestions for fixing it.
func printFailures(stderr io.Writer, summary splitter.Summary) {
	for _, outcome := range summary.Outcomes {
		if outcome.State != splitter.StateFailed || outcome.Err == nil {
			continue
		}

		diagnosis := apperrors.Diagnose(outcome.Err, outcome.Path)

		_, _ = fmt.Fprintf(stderr, "%s (%s): %v\n", outcome.Name, diagnosis.Category, diagnosis)
		if bullets := diagnosis.Bullets(); bullets != "" {
			_, _ = fmt.Fprintln(stderr, bullets)
		}
	}
}
