// Package tifftest builds TIFF fixtures for tests: pages are encoded with
// golang.org/x/image/tiff and stitched into multi-page files with
// tiff.WritePages.
package tifftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	xtiff "golang.org/x/image/tiff"

	"github.com/joe/tiff-splitter/internal/tiff"
)

// Gray returns a w x h grayscale image whose pixels depend on seed, so pages
// built from different seeds are distinguishable.
func Gray(w, h int, seed uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = seed + uint8(i%251) //nolint:gosec // Wraps on purpose
	}

	return img
}

// Encode returns img as a single-page TIFF file.
func Encode(tb testing.TB, img image.Image, compression xtiff.CompressionType) []byte {
	tb.Helper()

	var buf bytes.Buffer

	err := xtiff.Encode(&buf, img, &xtiff.Options{Compression: compression})
	if err != nil {
		tb.Fatalf("failed to encode fixture page: %v", err)
	}

	return buf.Bytes()
}

// MultiPage returns one TIFF file holding every image as a page, in order.
func MultiPage(tb testing.TB, compression xtiff.CompressionType, imgs ...image.Image) []byte {
	tb.Helper()

	pages := make([]*tiff.Page, 0, len(imgs))
	for _, img := range imgs {
		doc, err := tiff.Parse(Encode(tb, img, compression))
		if err != nil {
			tb.Fatalf("failed to parse fixture page: %v", err)
		}

		pages = append(pages, doc.Page(0))
	}

	var buf bytes.Buffer

	err := tiff.WritePages(&buf, pages...)
	if err != nil {
		tb.Fatalf("failed to write fixture: %v", err)
	}

	return buf.Bytes()
}

// Pages returns an uncompressed TIFF with n distinct 8x6 gray pages. Page i
// is Gray(8, 6, i*40).
func Pages(tb testing.TB, n int) []byte {
	tb.Helper()

	imgs := make([]image.Image, n)
	for i := range imgs {
		imgs[i] = PageImage(i)
	}

	return MultiPage(tb, xtiff.Uncompressed, imgs...)
}

// PageImage returns the image Pages uses for page i.
func PageImage(i int) *image.Gray {
	return Gray(8, 6, uint8(i*40)) //nolint:gosec // Wraps on purpose
}

// PatchShort overwrites the inline SHORT value of tag in the IFD of page
// (0-based) of a little-endian TIFF, in place. The tag must already exist.
func PatchShort(tb testing.TB, data []byte, page int, tag, value uint16) {
	tb.Helper()

	order := binary.LittleEndian
	ifd := int(order.Uint32(data[4:]))

	for range page {
		count := int(order.Uint16(data[ifd:]))
		ifd = int(order.Uint32(data[ifd+2+12*count:]))
		if ifd == 0 {
			tb.Fatalf("fixture has no page %d", page)
		}
	}

	count := int(order.Uint16(data[ifd:]))
	for i := range count {
		entry := data[ifd+2+12*i:]
		if order.Uint16(entry) == tag {
			order.PutUint16(entry[8:], value)
			return
		}
	}

	tb.Fatalf("page %d has no tag %d", page, tag)
}
