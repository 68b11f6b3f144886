package filesystem

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	sftpScheme      = "sftp"
	defaultSFTPPort = 22
)

// ErrBadSFTPURL is wrapped by every error ParseLocation returns.
var ErrBadSFTPURL = errors.New("invalid sftp url (want sftp://user@host[:port]/path)")

// Location is the folder a run works on: a local path, or a path on an SFTP
// server.
//
// Remote paths follow scp: sftp://joe@nas/scans is scans under joe's home,
// sftp://joe@nas//srv/scans is /srv/scans and sftp://joe@nas is the home
// folder itself.
type Location struct {
	Path string

	Remote bool
	User   string
	Host   string
	Port   int
}

// ParseLocation reads a folder argument. Anything not starting with sftp://
// is a local path and is returned untouched.
func ParseLocation(folder string) (Location, error) {
	if !strings.HasPrefix(folder, sftpScheme+"://") {
		return Location{Path: folder}, nil
	}

	u, err := url.Parse(folder) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrBadSFTPURL, err)
	}

	loc := Location{
		Remote: true,
		Host:   u.Hostname(),
		Port:   defaultSFTPPort,
		Path:   remotePath(u.Path),
	}

	if u.User != nil {
		loc.User = u.User.Username()
	}

	switch {
	case loc.User == "":
		return Location{}, fmt.Errorf("%w: %s has no user", ErrBadSFTPURL, folder)
	case loc.Host == "":
		return Location{}, fmt.Errorf("%w: %s has no host", ErrBadSFTPURL, folder)
	}

	if raw := u.Port(); raw != "" {
		loc.Port, err = strconv.Atoi(raw)
		if err != nil || loc.Port < 1 || loc.Port > 65535 {
			return Location{}, fmt.Errorf("%w: bad port %q", ErrBadSFTPURL, raw)
		}
	}

	return loc, nil
}

// remotePath drops the slash separating host and path, which leaves a path
// relative to the home folder unless a second slash follows.
func remotePath(p string) string {
	if p == "" || p == "/" {
		return "."
	}

	return p[1:]
}

// Address is the host:port to dial.
func (l Location) Address() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

func (l Location) String() string {
	if !l.Remote {
		return l.Path
	}

	p := l.Path
	if p == "." {
		p = ""
	}

	return fmt.Sprintf("sftp://%s@%s/%s", l.User, l.Address(), p)
}

// Mount returns the FileSystem that holds l and a func releasing it. Local
// folders need no release; remote ones hold an SSH connection until then.
func Mount(l Location) (FileSystem, func() error, error) {
	if !l.Remote {
		return NewRealFileSystem(), func() error { return nil }, nil
	}

	conn, err := Dial(l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s@%s: %w", l.User, l.Address(), err)
	}

	return NewSFTPFileSystem(conn), conn.Close, nil
}
