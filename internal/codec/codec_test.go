//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package codec_test

import (
	"bytes"
	"errors"
	"image"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	xtiff "golang.org/x/image/tiff"

	"github.com/joe/tiff-splitter/internal/codec"
	"github.com/joe/tiff-splitter/internal/tiff"
	"github.com/joe/tiff-splitter/internal/tiff/tifftest"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty selects default", input: "", expected: codec.Copy},
		{name: "copy", input: "copy", expected: codec.Copy},
		{name: "none", input: "none", expected: codec.None},
		{name: "deflate", input: "deflate", expected: codec.Deflate},
		{name: "case insensitive", input: "  Deflate ", expected: codec.Deflate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			encoder, err := codec.Lookup(tt.input)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(encoder.Name()).To(Equal(tt.expected))
		})
	}
}

func TestLookup_Unavailable(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"lzw", "jpeg", "ccitt4", "png"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := codec.Lookup(name)
			g.Expect(errors.Is(err, codec.ErrEncoderUnavailable)).To(BeTrue())
			g.Expect(err.Error()).To(ContainSubstring("copy, deflate, none"))
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(codec.Names()).To(Equal([]string{"copy", "deflate", "none"}))
}

func TestCopy_IsVerbatim(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	doc, err := tiff.Parse(tifftest.Pages(t, 3))
	g.Expect(err).ToNot(HaveOccurred())

	encoder, err := codec.Lookup(codec.Copy)
	g.Expect(err).ToNot(HaveOccurred())

	var got, want bytes.Buffer
	g.Expect(encoder.Encode(&got, doc.Page(2))).To(Succeed())
	g.Expect(tiff.WritePages(&want, doc.Page(2))).To(Succeed())
	g.Expect(got.Bytes()).To(Equal(want.Bytes()))
}

func TestReencoders_KeepPixels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       xtiff.CompressionType
		compression uint16
	}{
		{name: codec.None, input: xtiff.Deflate, compression: tiff.CompressionNone},
		{name: codec.Deflate, input: xtiff.Uncompressed, compression: tiff.CompressionDeflate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			first, second := tifftest.Gray(12, 10, 1), tifftest.Gray(12, 10, 99)
			doc, err := tiff.Parse(tifftest.MultiPage(t, tt.input, first, second))
			g.Expect(err).ToNot(HaveOccurred())

			encoder, err := codec.Lookup(tt.name)
			g.Expect(err).ToNot(HaveOccurred())

			var buf bytes.Buffer
			g.Expect(encoder.Encode(&buf, doc.Page(1))).To(Succeed())

			out, err := tiff.Parse(buf.Bytes())
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(out.Len()).To(Equal(1))
			g.Expect(out.Page(0).Compression).To(Equal(tt.compression))

			img, err := xtiff.Decode(bytes.NewReader(buf.Bytes()))
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(img.(*image.Gray).Pix).To(Equal(second.Pix))
		})
	}
}

func TestReencoder_UnsupportedSourceCompression(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	data := tifftest.Pages(t, 2)
	tifftest.PatchShort(t, data, 1, tiff.TagCompression, tiff.CompressionJPEG)

	doc, err := tiff.Parse(data)
	g.Expect(err).ToNot(HaveOccurred())

	encoder, err := codec.Lookup(codec.Deflate)
	g.Expect(err).ToNot(HaveOccurred())

	var buf bytes.Buffer
	err = encoder.Encode(&buf, doc.Page(1))
	g.Expect(errors.Is(err, codec.ErrEncodeFailed)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("jpeg"))
	g.Expect(buf.Len()).To(BeZero(), "nothing is written when encoding fails")

	// The copy codec does not look at the pixels, so it still works
	copier, err := codec.Lookup(codec.Copy)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(copier.Encode(&buf, doc.Page(1))).To(Succeed())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("no space left on device") }

func TestEncode_WriteFailure(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	doc, err := tiff.Parse(tifftest.Pages(t, 2))
	g.Expect(err).ToNot(HaveOccurred())

	encoder, err := codec.Lookup(codec.Copy)
	g.Expect(err).ToNot(HaveOccurred())

	err = encoder.Encode(failingWriter{}, doc.Page(0))
	g.Expect(err).To(MatchError(ContainSubstring("failed to write page 0")))
	g.Expect(errors.Is(err, codec.ErrEncodeFailed)).To(BeFalse())
}

// recordingWriter keeps every slice handed to Write.
type recordingWriter struct {
	writes [][]byte
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	r.writes = append(r.writes, p)

	return len(p), nil
}

func TestCopy_WritesPageOnceToDestination(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	doc, err := tiff.Parse(tifftest.Pages(t, 2))
	g.Expect(err).ToNot(HaveOccurred())

	encoder, err := codec.Lookup(codec.Copy)
	g.Expect(err).ToNot(HaveOccurred())

	var dest recordingWriter
	g.Expect(encoder.Encode(&dest, doc.Page(1))).To(Succeed())

	var want bytes.Buffer
	g.Expect(tiff.WritePages(&want, doc.Page(1))).To(Succeed())

	g.Expect(dest.writes).To(HaveLen(1))
	g.Expect(dest.writes[0]).To(Equal(want.Bytes()))
}
