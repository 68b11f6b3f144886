// Package codec writes a single TIFF page as a standalone file.
//
// The default "copy" codec carries the page's bytes over unchanged. The
// "none" and "deflate" codecs decode the page with golang.org/x/image/tiff
// and write the same pixels back with a different compression.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	xtiff "golang.org/x/image/tiff"

	"github.com/joe/tiff-splitter/internal/tiff"
)

// Codec names accepted by Lookup.
const (
	Copy    = "copy"
	None    = "none"
	Deflate = "deflate"

	Default = Copy
)

// Exported variables.
var (
	ErrEncoderUnavailable = errors.New("tiff encoder unavailable")
	ErrEncodeFailed       = errors.New("failed to encode page")
)

// unexported variables.
var (
	//nolint:gochecknoglobals // Registry of built-in encoders
	encoders = map[string]Encoder{
		Copy:    copyEncoder{},
		None:    reencoder{name: None, compression: xtiff.Uncompressed},
		Deflate: reencoder{name: Deflate, compression: xtiff.Deflate},
	}
)

// Encoder writes one page as a complete single-page TIFF file.
type Encoder interface {
	Name() string
	Encode(w io.Writer, page *tiff.Page) error
}

// Lookup returns the encoder registered under name (case-insensitive). An
// empty name selects Default. Unknown names wrap ErrEncoderUnavailable.
func Lookup(name string) (Encoder, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = Default
	}

	encoder, ok := encoders[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q (available: %s)",
			ErrEncoderUnavailable, name, strings.Join(Names(), ", "))
	}

	return encoder, nil
}

// Names returns the registered codec names, sorted.
func Names() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// copyEncoder writes the page verbatim.
type copyEncoder struct{}

func (copyEncoder) Name() string { return Copy }

func (copyEncoder) Encode(w io.Writer, page *tiff.Page) error {
	err := tiff.WritePages(w, page)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, tiff.ErrWrite):
		return fmt.Errorf("failed to write page %d: %w", page.Index, err)
	default:
		return fmt.Errorf("%w %d: %w", ErrEncodeFailed, page.Index, err)
	}
}

// reencoder decodes the page pixels and encodes them again.
type reencoder struct {
	name        string
	compression xtiff.CompressionType
}

func (r reencoder) Name() string { return r.name }

func (r reencoder) Encode(w io.Writer, page *tiff.Page) error {
	var src bytes.Buffer

	err := tiff.WritePages(&src, page)
	if err != nil {
		return fmt.Errorf("%w %d: %w", ErrEncodeFailed, page.Index, err)
	}

	img, err := xtiff.Decode(&src)
	if err != nil {
		return fmt.Errorf("%w %d (%s): %w", ErrEncodeFailed, page.Index, page.CompressionName(), err)
	}

	var out bytes.Buffer

	err = xtiff.Encode(&out, img, &xtiff.Options{Compression: r.compression})
	if err != nil {
		return fmt.Errorf("%w %d: %w", ErrEncodeFailed, page.Index, err)
	}

	return writeAll(w, out.Bytes(), page)
}

func writeAll(w io.Writer, data []byte, page *tiff.Page) error {
	_, err := w.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write page %d: %w", page.Index, err)
	}

	return nil
}
