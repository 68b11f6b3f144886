package filesystem_test

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/tiff-splitter/pkg/filesystem"
)

func TestParseLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		folder string
		want   filesystem.Location
	}{
		{"/scans", filesystem.Location{Path: "/scans"}},
		{"scans/2024", filesystem.Location{Path: "scans/2024"}},
		{`C:\scans`, filesystem.Location{Path: `C:\scans`}},
		{
			"sftp://joe@nas/scans",
			filesystem.Location{Remote: true, User: "joe", Host: "nas", Port: 22, Path: "scans"},
		},
		{
			"sftp://joe@nas//srv/scans",
			filesystem.Location{Remote: true, User: "joe", Host: "nas", Port: 22, Path: "/srv/scans"},
		},
		{
			"sftp://joe@nas:2222",
			filesystem.Location{Remote: true, User: "joe", Host: "nas", Port: 2222, Path: "."},
		},
		{
			"sftp://joe@nas/",
			filesystem.Location{Remote: true, User: "joe", Host: "nas", Port: 22, Path: "."},
		},
		{
			"sftp://joe@[::1]:2022/scans/inbox",
			filesystem.Location{Remote: true, User: "joe", Host: "::1", Port: 2022, Path: "scans/inbox"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			loc, err := filesystem.ParseLocation(tt.folder)

			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(loc).To(Equal(tt.want))
		})
	}
}

func TestParseLocation_Invalid(t *testing.T) {
	t.Parallel()

	for _, folder := range []string{
		"sftp://nas/scans",
		"sftp://joe@/scans",
		"sftp://joe@nas:port/scans",
		"sftp://joe@nas:0/scans",
		"sftp://joe@nas:70000/scans",
		"sftp://joe@nas/%zz",
	} {
		t.Run(folder, func(t *testing.T) {
			t.Parallel()

			_, err := filesystem.ParseLocation(folder)
			NewWithT(t).Expect(errors.Is(err, filesystem.ErrBadSFTPURL)).To(BeTrue(), "got %v", err)
		})
	}
}

func TestLocation_StringRoundTrips(t *testing.T) {
	t.Parallel()

	for _, folder := range []string{
		"/scans",
		"sftp://joe@nas:22/scans",
		"sftp://joe@nas:2222//srv/scans",
		"sftp://joe@nas:22/",
	} {
		t.Run(folder, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			loc, err := filesystem.ParseLocation(folder)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(loc.String()).To(Equal(folder))
		})
	}
}

func TestMount_Local(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fsys, release, err := filesystem.Mount(filesystem.Location{Path: t.TempDir()})

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(fsys).To(BeAssignableToTypeOf(&filesystem.RealFileSystem{}))
	g.Expect(release()).To(Succeed())
}
