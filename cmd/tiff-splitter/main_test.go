//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/tiff-splitter/internal/config"
	"github.com/joe/tiff-splitter/internal/dirlock"
	"github.com/joe/tiff-splitter/internal/journal"
	"github.com/joe/tiff-splitter/internal/tiff/tifftest"
	"github.com/joe/tiff-splitter/pkg/fileops"
)

func plainConfig(folder string) *config.Config {
	cfg := config.Default()
	cfg.Folder = folder
	cfg.Plain = true
	cfg.NoLock = true

	return &cfg
}

func TestRun_SplitsFolder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "scan.tif"), tifftest.Pages(t, 3), 0o600)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "single.tif"), tifftest.Pages(t, 1), 0o600)).To(Succeed())

	var stdout, stderr bytes.Buffer

	code := run(context.Background(), plainConfig(dir), false, &stdout, &stderr)

	g.Expect(code).To(Equal(exitOK))
	g.Expect(stderr.String()).To(BeEmpty())
	g.Expect(stdout.String()).To(ContainSubstring("Successfully processed scan.tif"))
	g.Expect(stdout.String()).To(ContainSubstring("Ignore single.tif - does not contain multiple images."))
	g.Expect(stdout.String()).To(ContainSubstring("1 file was split"))

	for _, name := range []string{"scan.0.tif", "scan.1.tif", "scan.2.tif", "single.tif"} {
		g.Expect(filepath.Join(dir, name)).To(BeAnExistingFile())
	}

	g.Expect(filepath.Join(dir, fileops.OriginalsDirName, "scan.tif")).To(BeAnExistingFile())
}

func TestRun_MissingFolder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var stdout, stderr bytes.Buffer

	code := run(context.Background(), plainConfig(filepath.Join(t.TempDir(), "nowhere")), false, &stdout, &stderr)

	g.Expect(code).To(Equal(exitFailed))
	g.Expect(stdout.String()).To(BeEmpty())
	g.Expect(stderr.String()).To(ContainSubstring("must specify a folder that already exists"))
}

func TestRun_FailedFileSetsExitCode(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "broken.tif"), []byte("not a tiff at all"), 0o600)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "scan.tif"), tifftest.Pages(t, 2), 0o600)).To(Succeed())

	var stdout, stderr bytes.Buffer

	code := run(context.Background(), plainConfig(dir), false, &stdout, &stderr)

	g.Expect(code).To(Equal(exitFailed))
	g.Expect(stdout.String()).To(ContainSubstring("Processing broken.tif failed - "))
	g.Expect(stdout.String()).To(ContainSubstring("Successfully processed scan.tif"))
	g.Expect(stderr.String()).To(ContainSubstring("broken.tif (decode)"))
}

func TestRun_JournalRecordsRun(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "scan.tif"), tifftest.Pages(t, 2), 0o600)).To(Succeed())

	cfg := plainConfig(dir)
	cfg.Journal = filepath.Join(t.TempDir(), "journal.db")

	var stdout, stderr bytes.Buffer

	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitOK))

	jrnl, err := journal.Open(cfg.Journal, "reader")
	g.Expect(err).ToNot(HaveOccurred())

	defer func() { _ = jrnl.Close() }()

	entries, err := jrnl.Recent(context.Background(), 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entries).To(HaveLen(1))
	g.Expect(entries[0].Source).To(Equal(filepath.Join(dir, "scan.tif")))
}

func TestRun_HistoryPrintsJournal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "scan.tif"), tifftest.Pages(t, 2), 0o600)).To(Succeed())

	cfg := plainConfig(dir)
	cfg.Journal = filepath.Join(t.TempDir(), "journal.db")

	var stdout, stderr bytes.Buffer

	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitOK))

	// A new multi-page file must be left alone by a history run.
	pending := filepath.Join(dir, "pending.tif")
	g.Expect(os.WriteFile(pending, tifftest.Pages(t, 2), 0o600)).To(Succeed())

	stdout.Reset()
	cfg.History = 5
	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitOK))
	g.Expect(stderr.String()).To(BeEmpty())
	g.Expect(stdout.String()).To(ContainSubstring(filepath.Join(dir, "scan.tif")))
	g.Expect(stdout.String()).ToNot(ContainSubstring("was split"))
	g.Expect(pending).To(BeAnExistingFile())
	g.Expect(filepath.Join(dir, "pending.0.tif")).ToNot(BeAnExistingFile())

	jrnl, err := journal.Open(cfg.Journal, "reader")
	g.Expect(err).ToNot(HaveOccurred())

	entries, err := jrnl.Recent(context.Background(), 1)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(jrnl.Close()).To(Succeed())
	g.Expect(entries).To(HaveLen(1))

	stdout.Reset()
	cfg.History = 0
	cfg.HistoryRun = entries[0].RunID
	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitOK))
	g.Expect(stdout.String()).To(ContainSubstring(filepath.Join(dir, "scan.tif")))

	stdout.Reset()
	cfg.HistoryRun = "no-such-run"
	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitOK))
	g.Expect(stdout.String()).To(Equal("No journal entries\n"))
}

func TestRun_HistoryJournalUnreadable(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg := plainConfig(t.TempDir())
	cfg.Journal = filepath.Join(t.TempDir(), "missing", "journal.db")
	cfg.History = 5

	var stdout, stderr bytes.Buffer

	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitFailed))
	g.Expect(stderr.String()).To(ContainSubstring("Error:"))
	g.Expect(stdout.String()).To(BeEmpty())
}

func TestRun_UnknownCodec(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg := plainConfig(t.TempDir())
	cfg.Codec = "jpeg2000"

	var stdout, stderr bytes.Buffer

	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitFailed))
	g.Expect(stderr.String()).To(ContainSubstring(`unknown codec "jpeg2000"`))
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "scan.tif"), tifftest.Pages(t, 2), 0o600)).To(Succeed())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer

	g.Expect(run(ctx, plainConfig(dir), false, &stdout, &stderr)).To(Equal(exitFailed))
	g.Expect(stdout.String()).To(ContainSubstring("Cancelled. No files were split"))
	g.Expect(filepath.Join(dir, "scan.tif")).To(BeAnExistingFile())
}

//nolint:paralleltest // Sets XDG_CACHE_HOME
func TestRun_LockedFolder(t *testing.T) {
	g := NewWithT(t)

	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir := t.TempDir()
	lockDir, err := dirlock.DefaultDir()
	g.Expect(err).ToNot(HaveOccurred())

	held, err := dirlock.Acquire(lockDir, dir)
	g.Expect(err).ToNot(HaveOccurred())

	defer func() { _ = held.Release() }()

	cfg := plainConfig(dir)
	cfg.NoLock = false

	var stdout, stderr bytes.Buffer

	g.Expect(run(context.Background(), cfg, false, &stdout, &stderr)).To(Equal(exitFailed))
	g.Expect(stderr.String()).To(ContainSubstring("folder is being split by another process"))
}
