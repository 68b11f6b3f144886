// Package dirlock keeps two splitter processes from working on the same
// folder at once. Locks are advisory files under a per-user directory, named
// after the folder's absolute path.
package dirlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Exported variables.
var (
	ErrLocked = errors.New("folder is being split by another process")
)

// Lock is a held folder lock.
type Lock struct {
	folder string
	path   string
	lock   *flock.Flock
}

// DefaultDir returns the directory lock files live in.
func DefaultDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache directory: %w", err)
	}

	return filepath.Join(cache, "tiff-splitter", "locks"), nil
}

// Acquire takes the lock for folder, creating baseDir if needed. It does not
// wait: if another process holds the lock it returns ErrLocked.
func Acquire(baseDir, folder string) (*Lock, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", folder, err)
	}

	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}

	path := filepath.Join(baseDir, Name(abs))
	lock := flock.New(path)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, abs)
	}

	return &Lock{folder: abs, path: path, lock: lock}, nil
}

// Name returns the lock file name for an absolute folder path. The same
// folder always maps to the same name.
func Name(absFolder string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(absFolder))).String() + ".lock"
}

// Folder returns the absolute path of the locked folder.
func (l *Lock) Folder() string {
	return l.folder
}

// Path returns the lock file.
func (l *Lock) Path() string {
	return l.path
}

// Release gives the lock up. The lock file is left in place for reuse.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}

	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}
