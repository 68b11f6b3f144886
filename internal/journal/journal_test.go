//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/tiff-splitter/internal/journal"
	"github.com/joe/tiff-splitter/internal/splitter"
)

func openJournal(t *testing.T, path, runID string) *journal.Journal {
	t.Helper()

	j, err := journal.Open(path, runID)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	t.Cleanup(func() {
		_ = j.Close()
	})

	return j
}

func TestJournal_RecordAndRun(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "journal.db")
	j := openJournal(t, path, "run-1")
	ctx := context.Background()

	g.Expect(j.Record(ctx, splitter.Outcome{
		Path:      "/scans/photo.tif",
		State:     splitter.StateDone,
		Pages:     2,
		Outputs:   []string{"/scans/photo.0.tif", "/scans/photo.1.tif"},
		Relocated: "/scans/Multi-Image TIFF Originals/photo.tif",
		Duration:  1500 * time.Millisecond,
	})).To(Succeed())
	g.Expect(j.Record(ctx, splitter.Outcome{
		Path:  "/scans/notes.txt",
		State: splitter.StateSkipped,
		Skip:  splitter.SkipNotTiffExtension,
	})).To(Succeed())
	g.Expect(j.Record(ctx, splitter.Outcome{
		Path:     "/scans/broken.tif",
		State:    splitter.StateFailed,
		FailedAt: splitter.StateValidated,
		Err:      errors.New("not a decodable tiff"),
	})).To(Succeed())

	entries, err := j.Run(ctx, "run-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(entries).To(HaveLen(3))

	done := entries[0]
	g.Expect(done.RunID).To(Equal("run-1"))
	g.Expect(done.Source).To(Equal("/scans/photo.tif"))
	g.Expect(done.State).To(Equal("done"))
	g.Expect(done.Pages).To(Equal(2))
	g.Expect(done.Outputs).To(Equal([]string{"/scans/photo.0.tif", "/scans/photo.1.tif"}))
	g.Expect(done.Relocated).To(Equal("/scans/Multi-Image TIFF Originals/photo.tif"))
	g.Expect(done.Duration).To(Equal(1500 * time.Millisecond))
	g.Expect(done.StartedAt).ToNot(BeZero())

	g.Expect(entries[1].SkipReason).To(Equal("not a tiff"))
	g.Expect(entries[1].Outputs).To(BeEmpty())
	g.Expect(entries[2].State).To(Equal("failed"))
	g.Expect(entries[2].Error).To(Equal("not a decodable tiff"))
}

func TestJournal_RecentAcrossRuns(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	first := openJournal(t, path, "run-1")
	g.Expect(first.Record(ctx, splitter.Outcome{Path: "/a.tif", State: splitter.StateDone})).To(Succeed())
	g.Expect(first.Close()).To(Succeed())

	second := openJournal(t, path, "run-2")
	g.Expect(second.Record(ctx, splitter.Outcome{Path: "/b.tif", State: splitter.StateDone})).To(Succeed())
	g.Expect(second.Record(ctx, splitter.Outcome{Path: "/c.tif", State: splitter.StateDone})).To(Succeed())

	recent, err := second.Recent(ctx, 2)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(recent).To(HaveLen(2))
	g.Expect(recent[0].Source).To(Equal("/c.tif"))
	g.Expect(recent[1].Source).To(Equal("/b.tif"))

	all, err := second.Recent(ctx, 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(all).To(HaveLen(3))
	g.Expect(all[2].RunID).To(Equal("run-1"))

	runOne, err := second.Run(ctx, "run-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(runOne).To(HaveLen(1))
}

func TestJournal_RequiresRunID(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), "")
	g.Expect(errors.Is(err, journal.ErrNoRunID)).To(BeTrue())
}

func TestJournal_OpenFailsInMissingFolder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := journal.Open(filepath.Join(t.TempDir(), "missing", "journal.db"), "run-1")
	g.Expect(err).To(HaveOccurred())
}

func TestJournal_RecordAfterClose(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), "run-1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(j.Close()).To(Succeed())

	err = j.Record(context.Background(), splitter.Outcome{Path: "/a.tif"})
	g.Expect(err).To(MatchError(ContainSubstring("/a.tif")))
}

// Journal is handed to the engine as its recorder.
func TestJournal_IsRecorder(t *testing.T) {
	t.Parallel()

	var _ splitter.Recorder = (*journal.Journal)(nil)
}
