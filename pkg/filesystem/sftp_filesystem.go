package filesystem

import (
	"fmt"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// SFTPFileSystem implements FileSystem over a single SFTP session.
// The splitter works on one file at a time, so one client is enough.
type SFTPFileSystem struct {
	client *sftp.Client
}

// NewSFTPFileSystem creates a new SFTP filesystem using an established connection.
func NewSFTPFileSystem(conn *SFTPConnection) *SFTPFileSystem {
	return NewSFTPFileSystemWithClient(conn.Client())
}

// NewSFTPFileSystemWithClient wraps an already open SFTP client.
func NewSFTPFileSystemWithClient(client *sftp.Client) *SFTPFileSystem {
	return &SFTPFileSystem{client: client}
}

// Create creates a remote file for writing.
func (fs *SFTPFileSystem) Create(p string) (File, error) {
	file, err := fs.client.Create(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote file %s: %w", p, err)
	}

	return file, nil
}

// Join joins path elements with forward slashes.
func (fs *SFTPFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// List returns an iterator over the files directly inside a remote directory.
func (fs *SFTPFileSystem) List(p string) FileScanner {
	return newListing(func() ([]FileInfo, error) {
		return walkChildren(fs.client.Walk(p), p)
	})
}

// MkdirAll creates a remote directory and all necessary parents.
func (fs *SFTPFileSystem) MkdirAll(p string, perm os.FileMode) error { //nolint:revive,lll // perm unused - SFTP uses server defaults, parameter required by FileSystem interface
	err := fs.client.MkdirAll(p)
	if err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", p, err)
	}

	return nil
}

// Open opens a remote file for reading.
func (fs *SFTPFileSystem) Open(p string) (File, error) {
	file, err := fs.client.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote file %s: %w", p, err)
	}

	return file, nil
}

// Remove removes a remote file or empty directory.
func (fs *SFTPFileSystem) Remove(p string) error {
	err := fs.client.Remove(p)
	if err != nil {
		return fmt.Errorf("failed to remove remote file %s: %w", p, err)
	}

	return nil
}

// Rename moves a remote file. SFTP servers refuse to replace an existing target.
func (fs *SFTPFileSystem) Rename(oldPath, newPath string) error {
	err := fs.client.Rename(oldPath, newPath)
	if err != nil {
		return fmt.Errorf("failed to rename remote file %s to %s: %w", oldPath, newPath, err)
	}

	return nil
}

// Split splits p into its directory and file name.
func (fs *SFTPFileSystem) Split(p string) (string, string) {
	p = path.Clean(p)

	return path.Dir(p), path.Base(p)
}

// Stat returns file information for a remote file.
func (fs *SFTPFileSystem) Stat(p string) (os.FileInfo, error) {
	info, err := fs.client.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote file %s: %w", p, err)
	}

	return info, nil
}
