// Package filesystem provides an abstraction layer for filesystem operations.
package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"
	"time"
)

// Mock operations that can be made to fail with InjectError.
const (
	OpCreate = "create"
	OpList   = "list"
	OpMkdir  = "mkdir"
	OpOpen   = "open"
	OpRename = "rename"
	OpStat   = "stat"
	OpWrite  = "write"
)

// MockFileSystem is an in-memory filesystem implementation for testing.
// Paths use forward slashes and are cleaned with path.Clean.
type MockFileSystem struct {
	mu       sync.RWMutex
	files    map[string]*mockFile
	failures map[string]error
}

// mockFile represents a file or directory in the mock filesystem.
type mockFile struct {
	path    string
	data    []byte
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

// mockFileInfo implements os.FileInfo for mock files.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	mode    os.FileMode
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

func (f *mockFile) info() *mockFileInfo {
	mode := f.perm
	if f.isDir {
		mode |= os.ModeDir
	}

	return &mockFileInfo{
		name:    path.Base(f.path),
		size:    int64(len(f.data)),
		modTime: f.modTime,
		mode:    mode,
	}
}

// mockFileHandle implements the File interface for reading/writing.
type mockFileHandle struct {
	fs       *MockFileSystem
	path     string
	reader   *bytes.Reader
	writer   *bytes.Buffer
	writeErr error
	closed   bool
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.reader == nil {
		return 0, io.EOF
	}
	return f.reader.Read(p)
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.writer == nil {
		f.writer = &bytes.Buffer{}
	}
	return f.writer.Write(p)
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true

	// If we were writing, save the data
	if f.writer != nil {
		f.fs.mu.Lock()
		defer f.fs.mu.Unlock()

		if file, exists := f.fs.files[f.path]; exists {
			file.data = f.writer.Bytes()
			file.modTime = time.Now()
		}
	}

	return nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	file, exists := f.fs.files[f.path]
	if !exists {
		return nil, os.ErrNotExist
	}

	return file.info(), nil
}

// NewMockFileSystem creates a new in-memory filesystem containing only "/".
func NewMockFileSystem() *MockFileSystem {
	fs := &MockFileSystem{
		files:    make(map[string]*mockFile),
		failures: make(map[string]error),
	}
	fs.files["/"] = &mockFile{path: "/", isDir: true, perm: 0o755, modTime: time.Now()}

	return fs
}

// InjectError makes every later op on p fail with err. A nil err clears it.
func (fs *MockFileSystem) InjectError(op, p string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := op + ":" + path.Clean(p)
	if err == nil {
		delete(fs.failures, key)
		return
	}
	fs.failures[key] = err
}

// failure must be called with mu held.
func (fs *MockFileSystem) failure(op, p string) error {
	return fs.failures[op+":"+p]
}

// AddFile adds a file with the given content, creating parent directories.
func (fs *MockFileSystem) AddFile(p string, content []byte, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = path.Clean(p)
	fs.mkdirAllLocked(path.Dir(p), 0o755)
	fs.files[p] = &mockFile{
		path:    p,
		data:    append([]byte(nil), content...),
		modTime: modTime,
		perm:    0o644,
	}
}

// AddDir adds a directory and its parents.
func (fs *MockFileSystem) AddDir(p string, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mkdirAllLocked(path.Clean(p), 0o755)
	fs.files[path.Clean(p)].modTime = modTime
}

// Create creates (or truncates) a file. The parent directory must exist.
func (fs *MockFileSystem) Create(p string) (File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = path.Clean(p)
	if err := fs.failure(OpCreate, p); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", p, err)
	}

	parent, ok := fs.files[path.Dir(p)]
	if !ok || !parent.isDir {
		return nil, fmt.Errorf("failed to create %s: %w", p, os.ErrNotExist)
	}
	if existing, ok := fs.files[p]; ok && existing.isDir {
		return nil, fmt.Errorf("failed to create %s: is a directory", p) //nolint:err113 // Mirrors os error text
	}

	fs.files[p] = &mockFile{path: p, modTime: time.Now(), perm: 0o644}

	return &mockFileHandle{
		fs:       fs,
		path:     p,
		writer:   &bytes.Buffer{},
		writeErr: fs.failure(OpWrite, p),
	}, nil
}

// Exists checks if a file or directory exists.
func (fs *MockFileSystem) Exists(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, ok := fs.files[path.Clean(p)]
	return ok
}

// GetFile returns the content of a file.
func (fs *MockFileSystem) GetFile(p string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, ok := fs.files[path.Clean(p)]
	if !ok || file.isDir {
		return nil, os.ErrNotExist
	}

	return append([]byte(nil), file.data...), nil
}

// Join joins path elements with forward slashes.
func (fs *MockFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// List returns an iterator over the files directly inside p.
func (fs *MockFileSystem) List(p string) FileScanner {
	root := path.Clean(p)

	return newListing(func() ([]FileInfo, error) { return fs.children(root) })
}

func (fs *MockFileSystem) children(root string) ([]FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.failure(OpList, root); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	dir, ok := fs.files[root]
	switch {
	case !ok:
		return nil, fmt.Errorf("failed to list %s: %w", root, os.ErrNotExist)
	case !dir.isDir:
		return nil, fmt.Errorf("failed to list %s: %w", root, ErrNotDirectory)
	}

	var files []FileInfo

	for p, file := range fs.files {
		if file.isDir || path.Dir(p) != root {
			continue
		}

		files = append(files, infoOf(p, file.info()))
	}

	return files, nil
}

// ListFiles returns every regular file path, sorted.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p, file := range fs.files {
		if !file.isDir {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	return paths
}

// MkdirAll creates a directory and all necessary parents.
func (fs *MockFileSystem) MkdirAll(p string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = path.Clean(p)
	if err := fs.failure(OpMkdir, p); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p, err)
	}
	if existing, ok := fs.files[p]; ok && !existing.isDir {
		return fmt.Errorf("failed to create directory %s: file exists", p) //nolint:err113 // Mirrors os error text
	}
	fs.mkdirAllLocked(p, perm)

	return nil
}

func (fs *MockFileSystem) mkdirAllLocked(p string, perm os.FileMode) {
	for dir := p; ; dir = path.Dir(dir) {
		if _, ok := fs.files[dir]; !ok {
			fs.files[dir] = &mockFile{path: dir, isDir: true, perm: perm, modTime: time.Now()}
		}
		if dir == "/" || dir == "." {
			return
		}
	}
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(p string) (File, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	p = path.Clean(p)
	if err := fs.failure(OpOpen, p); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}

	file, ok := fs.files[p]
	if !ok {
		return nil, fmt.Errorf("failed to open %s: %w", p, os.ErrNotExist)
	}

	return &mockFileHandle{
		fs:     fs,
		path:   p,
		reader: bytes.NewReader(file.data),
	}, nil
}

// Remove removes a file or empty directory.
func (fs *MockFileSystem) Remove(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p = path.Clean(p)
	file, ok := fs.files[p]
	if !ok {
		return fmt.Errorf("failed to remove %s: %w", p, os.ErrNotExist)
	}

	if file.isDir {
		for other := range fs.files {
			if other != p && path.Dir(other) == p {
				return fmt.Errorf("failed to remove %s: directory not empty", p) //nolint:err113 // Mirrors os error text
			}
		}
	}
	delete(fs.files, p)

	return nil
}

// Rename moves a file. Like POSIX rename, an existing target file is replaced.
func (fs *MockFileSystem) Rename(oldPath, newPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	oldPath, newPath = path.Clean(oldPath), path.Clean(newPath)
	if err := fs.failure(OpRename, oldPath); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, err)
	}

	file, ok := fs.files[oldPath]
	if !ok || file.isDir {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, os.ErrNotExist)
	}
	if parent, ok := fs.files[path.Dir(newPath)]; !ok || !parent.isDir {
		return fmt.Errorf("failed to rename %s to %s: %w", oldPath, newPath, os.ErrNotExist)
	}

	delete(fs.files, oldPath)
	file.path = newPath
	fs.files[newPath] = file

	return nil
}

// Split splits p into its directory and file name.
func (fs *MockFileSystem) Split(p string) (string, string) {
	p = path.Clean(p)

	return path.Dir(p), path.Base(p)
}

// Stat returns file information.
func (fs *MockFileSystem) Stat(p string) (os.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	p = path.Clean(p)
	if err := fs.failure(OpStat, p); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}

	file, exists := fs.files[p]
	if !exists {
		return nil, fmt.Errorf("failed to stat %s: %w", p, os.ErrNotExist)
	}

	return file.info(), nil
}
