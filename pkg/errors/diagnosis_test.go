package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	apperrors "github.com/joe/tiff-splitter/pkg/errors"
)

func TestDiagnose_Category(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want apperrors.Category
	}{
		{"folder is being split by another process: /scans", apperrors.CategoryLocked},
		{
			"could not move original /s/a.tif: cannot move /s/a.tif to /s/originals/a.tif across devices: " +
				"invalid cross-device link",
			apperrors.CategoryCrossDevice,
		},
		{
			"could not move original /s/a.tif: failed to rename /s/a.tif to /s/originals/a.tif: permission denied",
			apperrors.CategoryRelocation,
		},
		{"failed to encode page 2 (JPEG): tiff encoder unavailable", apperrors.CategoryEncoder},
		{`tiff encoder unavailable: unknown codec "jpeg2000" (available: copy, deflate, none)`, apperrors.CategoryEncoder},
		{"not a decodable tiff: bad magic number", apperrors.CategoryDecode},
		{"schema version mismatch: j.db has version 0, expected 1", apperrors.CategoryJournal},
		{"record /s/a.tif: database is locked (5) (SQLITE_BUSY)", apperrors.CategoryJournal},
		{"failed to connect to joe@nas:22: SSH connection failed: ssh: handshake failed", apperrors.CategoryRemote},
		{"knownhosts: key mismatch", apperrors.CategoryRemote},
		{"open /scans/a.tif: PERMISSION DENIED", apperrors.CategoryPermission},
		{"write /scans/a.0.tif: No Space Left On Device", apperrors.CategoryDiskSpace},
		{"must specify a folder that already exists: /nowhere", apperrors.CategoryPath},
		{"failed to list /scans/a.tif: not a directory", apperrors.CategoryPath},
		{"write /scans/a.0.tif: input/output error", apperrors.CategoryWrite},
		{"something odd happened", apperrors.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			d := apperrors.Diagnose(errors.New(tt.msg), "")

			g.Expect(d.Category).To(Equal(tt.want))
			g.Expect(d.Error()).To(Equal(tt.msg))
			g.Expect(d.Suggestions).ToNot(BeEmpty())
		})
	}
}

func TestDiagnose_Nil(t *testing.T) {
	t.Parallel()

	NewWithT(t).Expect(apperrors.Diagnose(nil, "/scans")).To(BeNil())
}

func TestDiagnose_KeepsWrappedError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cause := &fs.PathError{Op: "open", Path: "/scans/a.tif", Err: fs.ErrPermission}
	d := apperrors.Diagnose(fmt.Errorf("split a.tif: %w", cause), "")

	g.Expect(errors.Is(d, fs.ErrPermission)).To(BeTrue())
	g.Expect(d.Path).To(Equal("/scans/a.tif"))
	g.Expect(d.Category).To(Equal(apperrors.CategoryPermission))
	g.Expect(d.Suggestions).To(ContainElement("Check permissions with 'ls -la /scans/a.tif'"))
}

func TestDiagnose_ExplicitPathWins(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	d := apperrors.Diagnose(errors.New("open /elsewhere: not a decodable tiff"), "/scans/a.tif")

	g.Expect(d.Path).To(Equal("/scans/a.tif"))
	g.Expect(d.Suggestions).To(ContainElement("Rename /scans/a.tif if it is not a TIFF so it is ignored next time"))
}

func TestDiagnose_AlreadyDiagnosed(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	first := apperrors.Diagnose(errors.New("not a decodable tiff"), "/scans/a.tif")
	again := apperrors.Diagnose(fmt.Errorf("retry: %w", first), "")

	g.Expect(again).To(BeIdenticalTo(first))
}

func TestDiagnose_FallbackAdviceWithoutPath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	d := apperrors.Diagnose(errors.New("could not move original"), "")

	g.Expect(d.Path).To(BeEmpty())
	g.Expect(d.Suggestions).To(ContainElement("Move the original into the originals folder by hand"))
	g.Expect(d.Suggestions[len(d.Suggestions)-1]).To(ContainSubstring("split it a second time"))
}

func TestPathOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "path error",
			err:  &fs.PathError{Op: "stat", Path: "/scans/a.tif", Err: fs.ErrNotExist},
			want: "/scans/a.tif",
		},
		{
			name: "wrapped link error",
			err: fmt.Errorf("relocate: %w",
				&os.LinkError{Op: "rename", Old: "/scans/a.tif", New: "/scans/originals/a.tif", Err: fs.ErrExist}),
			want: "/scans/a.tif",
		},
		{
			name: "relocation message",
			err:  errors.New("could not move original /scans/a.tif: boom"),
			want: "/scans/a.tif",
		},
		{
			name: "windows path",
			err:  errors.New(`failed to create directory C:\scans\originals: access denied`),
			want: `C:\scans\originals`,
		},
		{
			name: "relative path",
			err:  errors.New("failed to list ./scans: not a directory"),
			want: "./scans",
		},
		{
			name: "remote file",
			err:  errors.New("failed to open remote file /home/joe/a.tif: permission denied"),
			want: "/home/joe/a.tif",
		},
		{
			name: "no path",
			err:  errors.New("tiff encoder unavailable"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			NewWithT(t).Expect(apperrors.PathOf(tt.err)).To(Equal(tt.want))
		})
	}
}

func TestDiagnosis_Bullets(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var none *apperrors.Diagnosis

	g.Expect(none.Bullets()).To(BeEmpty())
	g.Expect((&apperrors.Diagnosis{Err: errors.New("x")}).Bullets()).To(BeEmpty())

	d := &apperrors.Diagnosis{Err: errors.New("x"), Suggestions: []string{"first", "second"}}
	g.Expect(d.Bullets()).To(Equal("  • first\n  • second"))
}
