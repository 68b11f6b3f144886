//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package splitter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joe/tiff-splitter/internal/splitter"
	"github.com/joe/tiff-splitter/pkg/filesystem"
)

// testEventEmitter is a simple test double for capturing events.
type testEventEmitter struct {
	mu      sync.Mutex
	events  []splitter.Event
	onEvent func(splitter.Event)
}

func (e *testEventEmitter) Emit(event splitter.Event) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()

	if e.onEvent != nil {
		e.onEvent(event)
	}
}

func (e *testEventEmitter) statuses() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.events))
	for _, event := range e.events {
		out = append(out, event.Status())
	}

	return out
}

// testRecorder keeps every outcome it is given.
type testRecorder struct {
	outcomes []splitter.Outcome
	err      error
}

// Record fails like a database call would when ctx is already done.
func (r *testRecorder) Record(ctx context.Context, outcome splitter.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.outcomes = append(r.outcomes, outcome)

	return r.err
}

// stepClock advances by step on every call to Now.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

var errDenied = errors.New("permission denied")

func newEngine(t *testing.T, fs filesystem.FileSystem, opts splitter.Options) *splitter.Engine {
	t.Helper()

	engine, err := splitter.NewEngine(fs, opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	return engine
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()

	err := os.WriteFile(path, data, 0o600)
	if err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// names returns the base names of the entries of dir.
func names(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Name())
	}

	return out
}

func originals(dir string) string {
	return filepath.Join(dir, "Multi-Image TIFF Originals")
}
