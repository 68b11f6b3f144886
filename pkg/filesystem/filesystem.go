// Package filesystem provides an abstraction layer for filesystem operations
// to enable dependency injection and testing without actual filesystem I/O.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	kfs "github.com/kr/fs"
)

// renameFunc is swapped in tests to simulate EXDEV and similar failures.
//
//nolint:gochecknoglobals // Test seam for rename failures
var renameFunc = os.Rename

// File is an interface that abstracts file operations.
// This allows us to work with both real files and mock files.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// FileSystem is an interface that abstracts filesystem operations.
// This allows for dependency injection and testing with mock implementations.
type FileSystem interface {
	// List returns an iterator over the immediate children of a directory.
	// Subdirectories are neither returned nor descended into.
	List(path string) FileScanner

	Open(path string) (File, error)
	Create(path string) (File, error)
	MkdirAll(path string, perm os.FileMode) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	Stat(path string) (os.FileInfo, error)

	// Join and Split follow the path conventions of the filesystem
	// (OS separators locally, forward slashes over SFTP).
	Join(elem ...string) string
	Split(path string) (dir, file string)
}

// CrossDeviceError reports a rename that failed because source and target
// live on different devices. The file is left where it was.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot move %s to %s across devices: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is (or wraps) a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Exists reports whether path exists on fsys.
// Errors other than "not found" are returned so callers never mistake an
// unreadable path for a free one.
func Exists(fsys FileSystem, path string) (bool, error) {
	_, err := fsys.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// RealFileSystem implements FileSystem using actual os/filepath functions.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem instance.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// Create creates a file for writing.
func (fs *RealFileSystem) Create(path string) (File, error) {
	file, err := os.Create(path) // #nosec G304 - file path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	return file, nil
}

// Join joins path elements with the OS separator.
func (fs *RealFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// List returns an iterator over the files directly inside path.
func (fs *RealFileSystem) List(path string) FileScanner {
	return newListing(func() ([]FileInfo, error) {
		return walkChildren(kfs.Walk(path), path)
	})
}

// MkdirAll creates a directory and all necessary parents.
func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	err := os.MkdirAll(path, perm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return nil
}

// Open opens a file for reading.
func (fs *RealFileSystem) Open(path string) (File, error) {
	file, err := os.Open(path) // #nosec G304 - file path is controlled by caller
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return file, nil
}

// Remove removes a file or empty directory.
func (fs *RealFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

// Rename moves oldPath to newPath. A cross-device move is reported as a
// CrossDeviceError; no copy+delete fallback is attempted.
func (fs *RealFileSystem) Rename(oldPath, newPath string) error {
	err := renameFunc(oldPath, newPath)
	if err == nil {
		return nil
	}
	if isEXDEV(err) {
		return &CrossDeviceError{Src: oldPath, Dst: newPath, Err: err}
	}

	return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
}

// Split splits path into its directory and file name.
func (fs *RealFileSystem) Split(path string) (string, string) {
	dir, file := filepath.Split(path)

	return filepath.Clean(dir), file
}

// Stat returns file information.
func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, nil
}
