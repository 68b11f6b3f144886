// Package tiff reads a TIFF container into its pages and writes pages back out
// as standalone TIFF files without touching the image data.
//
// Decoding of the IFD chain is delegated to github.com/rwcarlsen/goexif/tiff.
// This package adds what a splitter needs on top: the pixel segments of every
// page, checked against the file bounds, and a writer that lays a page out in
// a new file.
package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	exiftiff "github.com/rwcarlsen/goexif/tiff"

	"github.com/joe/tiff-splitter/pkg/filesystem"
)

// Baseline tag IDs the splitter reads or rewrites.
const (
	TagImageWidth      uint16 = 256
	TagImageLength     uint16 = 257
	TagBitsPerSample   uint16 = 258
	TagCompression     uint16 = 259
	TagPhotometric     uint16 = 262
	TagStripOffsets    uint16 = 273
	TagSamplesPerPixel uint16 = 277
	TagRowsPerStrip    uint16 = 278
	TagStripByteCounts uint16 = 279
	TagTileOffsets     uint16 = 324
	TagTileByteCounts  uint16 = 325
)

// Compression values from TIFF 6.0 plus the common extensions.
const (
	CompressionNone       uint16 = 1
	CompressionCCITTRLE   uint16 = 2
	CompressionCCITTG3    uint16 = 3
	CompressionCCITTG4    uint16 = 4
	CompressionLZW        uint16 = 5
	CompressionOldJPEG    uint16 = 6
	CompressionJPEG       uint16 = 7
	CompressionDeflate    uint16 = 8
	CompressionPackBits   uint16 = 32773
	CompressionDeflateOld uint16 = 32946
)

// Exported variables.
var (
	ErrDecode = errors.New("not a decodable tiff")
)

// unexported variables.
var (
	// droppedTags point at data elsewhere in the source file that a standalone
	// page cannot carry: sub-IFDs, Exif/GPS/Interop IFDs, old-style JPEG
	// interchange streams and free-space lists.
	//
	//nolint:gochecknoglobals // Fixed lookup table
	droppedTags = map[uint16]bool{
		288:   true, // FreeOffsets
		289:   true, // FreeByteCounts
		330:   true, // SubIFDs
		513:   true, // JPEGInterchangeFormat
		514:   true, // JPEGInterchangeFormatLength
		34665: true, // ExifIFD
		34853: true, // GPSIFD
		40965: true, // InteroperabilityIFD
	}

	//nolint:gochecknoglobals // Fixed lookup table
	compressionNames = map[uint16]string{
		CompressionNone:       "none",
		CompressionCCITTRLE:   "ccitt-rle",
		CompressionCCITTG3:    "ccitt-g3",
		CompressionCCITTG4:    "ccitt-g4",
		CompressionLZW:        "lzw",
		CompressionOldJPEG:    "jpeg-old",
		CompressionJPEG:       "jpeg",
		CompressionDeflate:    "deflate",
		CompressionPackBits:   "packbits",
		CompressionDeflateOld: "deflate",
	}
)

// Document is a decoded TIFF container: its byte order and its pages in IFD
// chain order. It holds the whole file in memory and no open handle.
type Document struct {
	order binary.ByteOrder
	pages []*Page
}

// Len returns the number of pages. A document can be split when Len() >= 2.
func (d *Document) Len() int {
	return len(d.pages)
}

// Order returns the byte order of the source file.
func (d *Document) Order() binary.ByteOrder {
	return d.order
}

// Page returns page i. It panics if i is out of range, like a slice index.
func (d *Document) Page(i int) *Page {
	return d.pages[i]
}

// Entry is one IFD entry with its value bytes in the source byte order.
type Entry struct {
	Tag   uint16
	Type  exiftiff.DataType
	Count uint32
	Value []byte
}

// Page is one image of a document: its IFD entries (without the segment
// offset and byte count tags, which the writer regenerates) and the raw bytes
// of each strip or tile.
type Page struct {
	Index       int
	Width       int
	Height      int
	Compression uint16

	order    binary.ByteOrder
	entries  []Entry
	segments [][]byte
	tiled    bool
}

// CompressionName returns a short name for the page's compression scheme.
func (p *Page) CompressionName() string {
	return CompressionName(p.Compression)
}

// Entries returns the page's IFD entries sorted by tag.
func (p *Page) Entries() []Entry {
	return p.entries
}

// Order returns the byte order the entry values are stored in.
func (p *Page) Order() binary.ByteOrder {
	return p.order
}

// Segments returns the raw strip or tile data of the page.
func (p *Page) Segments() [][]byte {
	return p.segments
}

// Size returns the number of bytes of segment data.
func (p *Page) Size() int {
	size := 0
	for _, segment := range p.segments {
		size += len(segment)
	}

	return size
}

// Tiled reports whether the segments are tiles rather than strips.
func (p *Page) Tiled() bool {
	return p.tiled
}

// CompressionName returns a short name for a TIFF compression value.
func CompressionName(compression uint16) string {
	if name, ok := compressionNames[compression]; ok {
		return name
	}

	return fmt.Sprintf("compression-%d", compression)
}

// Open reads path from fsys and parses it. The file is closed before Open
// returns, whatever the outcome.
func Open(fsys filesystem.FileSystem, path string) (*Document, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	data, err := io.ReadAll(file)
	closeErr := file.Close()

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if closeErr != nil {
		return nil, fmt.Errorf("failed to close %s: %w", path, closeErr)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return doc, nil
}

// Parse decodes a TIFF file held in data. Every failure wraps ErrDecode.
// Segment slices alias data.
func Parse(data []byte) (*Document, error) {
	err := checkChain(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	decoded, err := exiftiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if len(decoded.Dirs) == 0 {
		return nil, fmt.Errorf("%w: no image directories", ErrDecode)
	}

	doc := &Document{
		order: decoded.Order,
		pages: make([]*Page, 0, len(decoded.Dirs)),
	}

	for i, dir := range decoded.Dirs {
		page, err := newPage(i, dir, decoded.Order, data)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrDecode, i, err)
		}

		doc.pages = append(doc.pages, page)
	}

	return doc, nil
}

// maxPages bounds the IFD chain of one file.
const maxPages = 1 << 16

// checkChain follows the next-IFD offsets from the header and fails on an
// offset seen before or a chain longer than maxPages. goexif only notices an
// IFD that points at itself, so a longer loop would never end. Structural
// problems other than loops are left for goexif to report.
func checkChain(data []byte) error {
	const headerLen = 8

	if len(data) < headerLen {
		return nil
	}

	var order binary.ByteOrder

	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil
	}

	seen := make(map[uint32]bool)

	for offset := order.Uint32(data[4:]); offset != 0; {
		if seen[offset] {
			return fmt.Errorf("cyclic IFD chain: IFD at %d is listed twice", offset) //nolint:err113 // Wrapped into ErrDecode
		}

		if len(seen) == maxPages {
			return fmt.Errorf("more than %d IFDs", maxPages) //nolint:err113 // Wrapped into ErrDecode
		}

		seen[offset] = true

		start := int64(offset)
		if start+2 > int64(len(data)) {
			return nil
		}

		next := start + 2 + entrySize*int64(order.Uint16(data[start:]))
		if next+4 > int64(len(data)) {
			return nil
		}

		offset = order.Uint32(data[next:])
	}

	return nil
}

func newPage(index int, dir *exiftiff.Dir, order binary.ByteOrder, data []byte) (*Page, error) {
	tags := make(map[uint16]*exiftiff.Tag, len(dir.Tags))
	for _, tag := range dir.Tags {
		tags[tag.Id] = tag
	}

	width, err := firstValue(tags, TagImageWidth)
	if err != nil {
		return nil, err
	}

	height, err := firstValue(tags, TagImageLength)
	if err != nil {
		return nil, err
	}

	compression := int64(CompressionNone)
	if _, ok := tags[TagCompression]; ok {
		compression, err = firstValue(tags, TagCompression)
		if err != nil {
			return nil, err
		}
	}

	page := &Page{
		Index:       index,
		Width:       int(width),
		Height:      int(height),
		Compression: uint16(compression), //nolint:gosec // TIFF compression is a SHORT
		order:       order,
	}

	offsetTag, countTag := TagStripOffsets, TagStripByteCounts
	if _, ok := tags[TagTileOffsets]; ok {
		offsetTag, countTag = TagTileOffsets, TagTileByteCounts
		page.tiled = true
	}

	page.segments, err = segments(tags, offsetTag, countTag, data)
	if err != nil {
		return nil, err
	}

	for _, tag := range dir.Tags {
		if droppedTags[tag.Id] || isSegmentTag(tag.Id) {
			continue
		}

		page.entries = append(page.entries, Entry{
			Tag:   tag.Id,
			Type:  tag.Type,
			Count: tag.Count,
			Value: tag.Val,
		})
	}

	slices.SortStableFunc(page.entries, func(a, b Entry) int {
		return int(a.Tag) - int(b.Tag)
	})

	return page, nil
}

// segments slices the strip or tile data of a page out of the file.
func segments(tags map[uint16]*exiftiff.Tag, offsetTag, countTag uint16, data []byte) ([][]byte, error) {
	offsets, err := allValues(tags, offsetTag)
	if err != nil {
		return nil, err
	}

	counts, err := allValues(tags, countTag)
	if err != nil {
		return nil, err
	}

	if len(offsets) != len(counts) {
		return nil, fmt.Errorf("tag %d has %d values but tag %d has %d", //nolint:err113 // Wrapped into ErrDecode
			offsetTag, len(offsets), countTag, len(counts))
	}

	result := make([][]byte, len(offsets))
	for i := range offsets {
		start, size := offsets[i], counts[i]
		if start < 0 || size < 0 || start+size > int64(len(data)) {
			return nil, fmt.Errorf("segment %d (%d bytes at %d) lies outside the file", //nolint:err113 // Wrapped into ErrDecode
				i, size, start)
		}

		result[i] = data[start : start+size]
	}

	return result, nil
}

func firstValue(tags map[uint16]*exiftiff.Tag, id uint16) (int64, error) {
	values, err := allValues(tags, id)
	if err != nil {
		return 0, err
	}

	return values[0], nil
}

func allValues(tags map[uint16]*exiftiff.Tag, id uint16) ([]int64, error) {
	tag, ok := tags[id]
	if !ok || tag.Count == 0 {
		return nil, fmt.Errorf("missing required tag %d", id) //nolint:err113 // Wrapped into ErrDecode
	}

	values := make([]int64, tag.Count)
	for i := range values {
		value, err := tag.Int64(i)
		if err != nil {
			return nil, fmt.Errorf("tag %d: %w", id, err)
		}

		values[i] = value
	}

	return values, nil
}

func isSegmentTag(id uint16) bool {
	switch id {
	case TagStripOffsets, TagStripByteCounts, TagTileOffsets, TagTileByteCounts:
		return true
	}

	return false
}
