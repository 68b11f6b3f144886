package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	exiftiff "github.com/rwcarlsen/goexif/tiff"
)

// Exported variables.
var (
	ErrNoPages         = errors.New("no pages to write")
	ErrMixedByteOrder  = errors.New("pages use different byte orders")
	ErrTooLargeForTIFF = errors.New("output exceeds 4 GiB")
	ErrWrite           = errors.New("failed to write tiff")
)

// unexported constants.
const (
	headerSize   = 8
	entrySize    = 12
	inlineSize   = 4
	tiffMagic    = 42
	littleEndian = "II"
	bigEndian    = "MM"
)

// WritePages writes pages, in order, as one TIFF file. A single page gives a
// standalone single-page TIFF. IFD entries and segment bytes are copied as
// they are; only the segment offset and byte count tags are regenerated to
// match the new layout.
func WritePages(w io.Writer, pages ...*Page) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	order := pages[0].order
	for _, page := range pages[1:] {
		if page.order != order {
			return ErrMixedByteOrder
		}
	}

	out, err := layout(order, pages)
	if err != nil {
		return err
	}

	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

// layout builds the whole file in memory: header, then per page its IFD,
// out-of-line entry values and segment data, each block on a word boundary.
func layout(order binary.ByteOrder, pages []*Page) ([]byte, error) {
	buf := make([]byte, headerSize)
	if order == binary.BigEndian {
		copy(buf, bigEndian)
	} else {
		copy(buf, littleEndian)
	}

	order.PutUint16(buf[2:], tiffMagic)
	order.PutUint32(buf[4:], headerSize)

	var err error
	for i, page := range pages {
		buf, err = appendPage(buf, order, page, i == len(pages)-1)
		if err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func appendPage(buf []byte, order binary.ByteOrder, page *Page, last bool) ([]byte, error) {
	entries := pageEntries(order, page)

	ifdStart := len(buf)
	ifdSize := 2 + entrySize*len(entries) + 4
	valuesStart := ifdStart + ifdSize

	// Out-of-line values follow the IFD.
	valueOffsets := make([]int, len(entries))
	cursor := valuesStart
	for i, entry := range entries {
		if len(entry.Value) > inlineSize {
			cursor = align(cursor)
			valueOffsets[i] = cursor
			cursor += len(entry.Value)
		}
	}

	// Segment data follows the values; patch the offsets entry now that the
	// position of every segment is known.
	segmentOffsets := make([]uint32, len(page.segments))
	for i, segment := range page.segments {
		cursor = align(cursor)
		if int64(cursor) > math.MaxUint32 {
			return nil, ErrTooLargeForTIFF
		}

		segmentOffsets[i] = uint32(cursor)
		cursor += len(segment)
	}

	end := align(cursor)
	if int64(end) > math.MaxUint32 {
		return nil, ErrTooLargeForTIFF
	}

	offsetsTag := TagStripOffsets
	if page.tiled {
		offsetsTag = TagTileOffsets
	}

	for i := range entries {
		if entries[i].Tag == offsetsTag {
			entries[i].Value = longs(order, segmentOffsets)
		}
	}

	out := append(buf, make([]byte, end-len(buf))...)

	// IFD
	p := out[ifdStart:]
	order.PutUint16(p, uint16(len(entries))) //nolint:gosec // Entry count bounded by source IFD
	p = p[2:]

	for i, entry := range entries {
		order.PutUint16(p[0:], entry.Tag)
		order.PutUint16(p[2:], uint16(entry.Type))
		order.PutUint32(p[4:], entry.Count)

		if len(entry.Value) > inlineSize {
			order.PutUint32(p[8:], uint32(valueOffsets[i])) //nolint:gosec // Checked against MaxUint32 above
			copy(out[valueOffsets[i]:], entry.Value)
		} else {
			copy(p[8:12], entry.Value)
		}

		p = p[entrySize:]
	}

	if !last {
		order.PutUint32(p, uint32(end)) //nolint:gosec // Checked against MaxUint32 above
	}

	for i, segment := range page.segments {
		copy(out[segmentOffsets[i]:], segment)
	}

	return out, nil
}

// pageEntries returns the page's entries plus freshly built offset and byte
// count entries, sorted by tag. Offset values are placeholders until the
// layout is known.
func pageEntries(order binary.ByteOrder, page *Page) []Entry {
	offsetsTag, countsTag := TagStripOffsets, TagStripByteCounts
	if page.tiled {
		offsetsTag, countsTag = TagTileOffsets, TagTileByteCounts
	}

	counts := make([]uint32, len(page.segments))
	for i, segment := range page.segments {
		counts[i] = uint32(len(segment)) //nolint:gosec // Segments come from a classic TIFF, so < 4 GiB
	}

	n := uint32(len(counts)) //nolint:gosec // Bounded by the source IFD

	entries := make([]Entry, 0, len(page.entries)+2)
	entries = append(entries, page.entries...)
	entries = append(entries,
		Entry{Tag: offsetsTag, Type: exiftiff.DTLong, Count: n, Value: longs(order, make([]uint32, n))},
		Entry{Tag: countsTag, Type: exiftiff.DTLong, Count: n, Value: longs(order, counts)},
	)

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return int(a.Tag) - int(b.Tag)
	})

	return entries
}

func longs(order binary.ByteOrder, values []uint32) []byte {
	out := make([]byte, inlineSize*len(values))
	for i, value := range values {
		order.PutUint32(out[inlineSize*i:], value)
	}

	return out
}

func align(n int) int {
	return n + n&1
}
