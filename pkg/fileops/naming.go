package fileops

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/joe/tiff-splitter/pkg/filesystem"
)

// IndexedName returns a free path for page index of src, next to src:
// "{base}.{index}{ext}", or "{base}.{index} ({n}){ext}" for the first n >= 1
// that does not exist yet. Existence is checked now, not cached, so call it
// immediately before creating the file.
func (fo *FileOps) IndexedName(src string, index int) (string, error) {
	dir, base, ext := fo.splitName(src)
	stem := base + "." + strconv.Itoa(index)

	return fo.firstFree(dir, stem, ext)
}

// OriginalsTarget returns a free path for src inside the originals subfolder:
// "{base}{ext}", or "{base} ({n}){ext}" on collision. The subfolder is not
// created.
func (fo *FileOps) OriginalsTarget(src string) (string, error) {
	dir, base, ext := fo.splitName(src)

	return fo.firstFree(fo.FS.Join(dir, OriginalsDirName), base, ext)
}

// MoveToOriginals creates the originals subfolder if needed and moves src into
// it under a free name. The returned path is where src now lives.
// Every failure wraps ErrRelocation; src is left in place.
func (fo *FileOps) MoveToOriginals(src string) (string, error) {
	dir, _ := fo.FS.Split(src)

	err := fo.FS.MkdirAll(fo.FS.Join(dir, OriginalsDirName), DefaultDirPermissions)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrRelocation, src, err)
	}

	target, err := fo.OriginalsTarget(src)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrRelocation, src, err)
	}

	err = fo.FS.Rename(src, target)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrRelocation, src, err)
	}

	return target, nil
}

// firstFree tries stem+ext, then "stem (1)"+ext, "stem (2)"+ext, ...
func (fo *FileOps) firstFree(dir, stem, ext string) (string, error) {
	candidate := fo.FS.Join(dir, stem+ext)

	for n := 1; ; n++ {
		exists, err := filesystem.Exists(fo.FS, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}

		if !exists {
			return candidate, nil
		}

		candidate = fo.FS.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}

// splitName breaks src into directory, base name without extension, and
// extension (with its dot, case preserved).
func (fo *FileOps) splitName(src string) (string, string, string) {
	dir, file := fo.FS.Split(src)
	ext := path.Ext(file)

	return dir, strings.TrimSuffix(file, ext), ext
}
