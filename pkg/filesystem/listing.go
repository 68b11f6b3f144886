package filesystem

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	kfs "github.com/kr/fs"
)

// ErrNotDirectory is returned when a listed path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileScanner iterates over the files directly inside a directory, sorted by
// name. When Next reports false, Err tells a finished listing from a failed one.
type FileScanner interface {
	Next() (FileInfo, bool)
	Err() error
}

// FileInfo describes one listed file. Path can be passed back to the
// FileSystem that listed it.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Collect drains scanner.
func Collect(scanner FileScanner) ([]FileInfo, error) {
	var files []FileInfo

	for {
		file, ok := scanner.Next()
		if !ok {
			return files, scanner.Err()
		}

		files = append(files, file)
	}
}

// listing is the FileScanner every FileSystem hands out. The directory is
// read on the first call to Next.
type listing struct {
	read    func() ([]FileInfo, error)
	pending []FileInfo
	err     error
	started bool
}

func newListing(read func() ([]FileInfo, error)) *listing {
	return &listing{read: read}
}

func (l *listing) Next() (FileInfo, bool) {
	if !l.started {
		l.started = true
		l.pending, l.err = l.read()

		slices.SortFunc(l.pending, func(a, b FileInfo) int { return strings.Compare(a.Name, b.Name) })
	}

	if l.err != nil || len(l.pending) == 0 {
		return FileInfo{}, false
	}

	next := l.pending[0]
	l.pending = l.pending[1:]

	return next, true
}

func (l *listing) Err() error {
	return l.err
}

// walkChildren steps a kr/fs walker (local or sftp.Client.Walk) through the
// files directly under root. Subdirectories are skipped before the walker
// descends into them, and children that cannot be read are left out.
func walkChildren(walker *kfs.Walker, root string) ([]FileInfo, error) {
	var files []FileInfo

	for walker.Step() {
		err := walker.Err()
		atRoot := walker.Path() == root

		switch {
		case err != nil && atRoot:
			return nil, fmt.Errorf("failed to list %s: %w", root, err)
		case err != nil:
			continue
		case atRoot && !walker.Stat().IsDir():
			return nil, fmt.Errorf("failed to list %s: %w", root, ErrNotDirectory)
		case atRoot:
			continue
		case walker.Stat().IsDir():
			walker.SkipDir()
			continue
		}

		files = append(files, infoOf(walker.Path(), walker.Stat()))
	}

	return files, nil
}

func infoOf(p string, info os.FileInfo) FileInfo {
	return FileInfo{Path: p, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}
}
