// Package splitter implements the file-splitting engine: for each file in a
// folder it decides whether the file is a multi-page TIFF, writes every page
// to its own file next to the source, and moves the source into the originals
// subfolder.
//
// The engine is synchronous. It processes one file at a time and one page at
// a time, in enumeration order, and reports progress through an
// EventEmitter.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joe/tiff-splitter/internal/codec"
	"github.com/joe/tiff-splitter/internal/tiff"
	"github.com/joe/tiff-splitter/pkg/fileops"
	"github.com/joe/tiff-splitter/pkg/filesystem"
)

// Exported variables.
var (
	ErrInvalidPattern = errors.New("invalid include pattern")
)

// Recorder receives the outcome of every processed file, for example to keep
// a journal of runs.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome) error
}

// Options configures an Engine. The zero value splits with the default codec,
// includes every file and logs nowhere.
type Options struct {
	// Codec names the page encoder (see codec.Names).
	Codec string
	// Include is an optional glob matched against base names.
	Include string
	// Logger receives structured diagnostics. Nil discards them.
	Logger *slog.Logger
	// Recorder, when set, is given every outcome of ProcessDirectory.
	Recorder Recorder
}

// Engine splits multi-page TIFF files.
type Engine struct {
	// FileOps provides naming and relocation on top of the filesystem.
	FileOps *fileops.FileOps

	// TimeProvider measures durations (injected for testing).
	TimeProvider TimeProvider

	fs       filesystem.FileSystem
	encoder  codec.Encoder
	filter   FileFilter
	logger   *slog.Logger
	recorder Recorder

	emitter EventEmitter
	mu      sync.Mutex
}

// NewEngine creates an engine working on fs. It fails when the codec is not
// available or the include pattern is malformed; no file is touched in
// either case.
func NewEngine(fs filesystem.FileSystem, opts Options) (*Engine, error) {
	encoder, err := codec.Lookup(opts.Codec)
	if err != nil {
		return nil, fmt.Errorf("failed to set up splitter: %w", err)
	}

	if !ValidatePattern(opts.Include) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, opts.Include)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		FileOps:      fileops.NewFileOps(fs),
		TimeProvider: RealTimeProvider{},
		fs:           fs,
		encoder:      encoder,
		filter:       NewGlobFilter(opts.Include),
		logger:       logger,
		recorder:     opts.Recorder,
	}, nil
}

// Codec returns the name of the encoder pages are written with.
func (e *Engine) Codec() string {
	return e.encoder.Name()
}

// SetEventEmitter sets the event emitter for the engine.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.emitter = emitter
}

// GetEventEmitter returns the current event emitter.
func (e *Engine) GetEventEmitter() EventEmitter {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.emitter
}

// ProcessDirectory runs SplitFile over every direct child of dir, in listing
// order. The listing is taken once up front, so files written during the run
// are never picked up.
//
// Per-file failures are reported in the summary, not returned. The error is
// non-nil only when dir cannot be listed, when ctx is done (checked between
// files, with the partial summary returned), or when the recorder fails.
func (e *Engine) ProcessDirectory(ctx context.Context, dir string) (Summary, error) {
	start := e.TimeProvider.Now()
	summary := Summary{Dir: dir}

	files, err := e.list(dir)
	if err != nil {
		return summary, err
	}

	e.logger.Info("processing folder", "dir", dir, "files", len(files), "codec", e.encoder.Name())
	e.emit(BatchStarted{Dir: dir, Total: len(files)})

	var recordErr error

	for _, file := range files {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		outcome := e.SplitFile(file.Path)
		summary.add(outcome)

		if e.recorder == nil {
			continue
		}

		// The file is done whatever happens to ctx, so its record must land.
		err := e.recorder.Record(context.WithoutCancel(ctx), outcome)
		if err != nil && recordErr == nil {
			e.logger.Warn("failed to record outcome", "file", file.Path, "error", err)
			recordErr = fmt.Errorf("failed to record outcome of %s: %w", file.Path, err)
		}
	}

	summary.Duration = e.TimeProvider.Now().Sub(start)

	e.logger.Info("folder processed",
		"dir", dir,
		"processed", summary.Processed,
		"split", summary.Split,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"duration", summary.Duration,
	)
	e.emit(BatchComplete{Summary: summary})

	if summary.Cancelled {
		return summary, fmt.Errorf("stopped after %d files: %w", summary.Processed, context.Cause(ctx))
	}

	return summary, recordErr
}

// SplitFile takes one path through the per-file state machine and returns
// its terminal outcome. It never panics on bad input and never returns a
// non-terminal state.
func (e *Engine) SplitFile(path string) Outcome {
	start := e.TimeProvider.Now()
	_, name := e.fs.Split(path)

	outcome := e.splitFile(Outcome{Path: path, Name: name, State: StateStart})
	outcome.Duration = e.TimeProvider.Now().Sub(start)

	switch outcome.State {
	case StateDone:
		e.logger.Info("split file",
			"file", path,
			"pages", outcome.Pages,
			"relocated", outcome.Relocated,
			"duration", outcome.Duration,
		)
		e.emit(FileDone{Outcome: outcome})
	case StateFailed:
		e.logger.Warn("failed to split file",
			"file", path,
			"stage", outcome.FailedAt.String(),
			"written", len(outcome.Outputs),
			"error", outcome.Err,
		)
		e.emit(FileFailed{Outcome: outcome})
	case StateSkipped:
		e.logger.Debug("skipped file", "file", path, "reason", outcome.Skip.String())
		e.emit(FileSkipped{Path: path, Name: name, Reason: outcome.Skip})
	default:
	}

	return outcome
}

func (e *Engine) splitFile(outcome Outcome) Outcome {
	path := outcome.Path
	e.emit(FileStarted{Path: path, Name: outcome.Name})

	info, err := e.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return skip(outcome, SkipNotAFile)
	}

	if !IsTiffName(outcome.Name) {
		return skip(outcome, SkipNotTiffExtension)
	}

	if !e.filter.ShouldInclude(outcome.Name) {
		return skip(outcome, SkipExcluded)
	}

	outcome.State = StateValidated

	doc, err := tiff.Open(e.fs, path)
	if err != nil {
		return fail(outcome, err)
	}

	outcome.State = StateInspected
	outcome.Pages = doc.Len()

	if doc.Len() < 2 {
		return skip(outcome, SkipSinglePage)
	}

	outcome.State = StateSplitting
	e.emit(SplitStarted{Path: path, Name: outcome.Name, Pages: doc.Len()})

	for i := range doc.Len() {
		e.emit(PageStarted{Path: path, Name: outcome.Name, Index: i, Pages: doc.Len()})

		output, size, err := e.writePage(path, doc.Page(i))
		if err != nil {
			return fail(outcome, err)
		}

		outcome.Outputs = append(outcome.Outputs, output)

		e.logger.Debug("wrote page", "file", path, "page", i, "output", output, "bytes", size)
		e.emit(PageWritten{
			Path:   path,
			Name:   outcome.Name,
			Index:  i,
			Pages:  doc.Len(),
			Output: output,
			Bytes:  size,
		})
	}

	outcome.State = StateRelocating
	e.emit(MoveStarted{Path: path, Name: outcome.Name})

	relocated, err := e.FileOps.MoveToOriginals(path)
	if err != nil {
		return fail(outcome, err)
	}

	outcome.Relocated = relocated
	outcome.State = StateDone

	return outcome
}

// writePage writes one page to the next free indexed name. A file that was
// created but not completely written is removed again.
func (e *Engine) writePage(src string, page *tiff.Page) (string, int, error) {
	output, err := e.FileOps.IndexedName(src, page.Index)
	if err != nil {
		return "", 0, fmt.Errorf("failed to name page %d of %s: %w", page.Index, src, err)
	}

	file, err := e.fs.Create(output)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", output, err)
	}

	counter := &countingWriter{w: file}
	encodeErr := e.encoder.Encode(counter, page)
	closeErr := file.Close()

	if encodeErr == nil && closeErr == nil {
		return output, counter.n, nil
	}

	removeErr := e.FileOps.Remove(output)
	if removeErr != nil {
		e.logger.Warn("failed to remove partial page", "output", output, "error", removeErr)
	}

	if encodeErr != nil {
		return "", 0, fmt.Errorf("%s: %w", src, encodeErr)
	}

	return "", 0, fmt.Errorf("failed to close %s: %w", output, closeErr)
}

func (e *Engine) list(dir string) ([]filesystem.FileInfo, error) {
	files, err := filesystem.Collect(e.fs.List(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	return files, nil
}

// emit sends an event if an emitter is configured.
func (e *Engine) emit(event Event) {
	emitter := e.GetEventEmitter()
	if emitter != nil {
		emitter.Emit(event)
	}
}

func skip(outcome Outcome, reason SkipReason) Outcome {
	outcome.State = StateSkipped
	outcome.Skip = reason

	return outcome
}

func fail(outcome Outcome, err error) Outcome {
	outcome.FailedAt = outcome.State
	outcome.State = StateFailed
	outcome.Err = err

	return outcome
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n

	return n, err //nolint:wrapcheck // Pass-through writer
}
