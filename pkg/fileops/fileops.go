// Package fileops provides the file naming and relocation rules used when a
// multi-page TIFF is split: collision-free names for the page files and the
// move of the original into its subfolder.
package fileops

import (
	"errors"
	"fmt"

	"github.com/joe/tiff-splitter/pkg/filesystem"
)

const (
	// OriginalsDirName is the folder, beside the scans, that split originals
	// are moved into. Listing never descends into it, so they are not split
	// again.
	OriginalsDirName = "Multi-Image TIFF Originals"

	// DefaultDirPermissions applies when OriginalsDirName has to be created.
	DefaultDirPermissions = 0o750
)

// ErrRelocation wraps every failure to move an original aside.
var ErrRelocation = errors.New("could not move original")

// FileOps names page files and relocates originals on FS.
type FileOps struct {
	FS filesystem.FileSystem
}

func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return &FileOps{FS: fs}
}

// NewRealFileOps works on the local disk.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// Remove deletes a partially written page.
func (fo *FileOps) Remove(path string) error {
	if err := fo.FS.Remove(path); err != nil {
		return fmt.Errorf("failed to remove partial page %s: %w", path, err)
	}

	return nil
}
