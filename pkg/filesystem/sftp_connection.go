package filesystem

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// ErrNoSSHAuth means neither an agent nor an unencrypted default key was found.
var ErrNoSSHAuth = errors.New("no ssh authentication available (tried SSH_AUTH_SOCK and ~/.ssh keys)")

// Keys tried in ~/.ssh when no agent offers one. Passphrase-protected keys
// are skipped.
//
//nolint:gochecknoglobals // Read-only list
var defaultKeyFiles = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// SFTPConnection is an SFTP session and the SSH connection carrying it.
type SFTPConnection struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	loc  Location
}

// Dial connects to the server named by loc as loc.User, authenticating with
// the SSH agent and then the default keys. Host keys are checked against
// ~/.ssh/known_hosts when that file exists.
func Dial(loc Location) (*SFTPConnection, error) {
	home, _ := os.UserHomeDir()

	auth := authMethods(home)
	if len(auth) == 0 {
		return nil, ErrNoSSHAuth
	}

	hostKeys, err := hostKeyCallback(home)
	if err != nil {
		return nil, err
	}

	sshClient, err := ssh.Dial("tcp", loc.Address(), &ssh.ClientConfig{
		User:            loc.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh connection failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("sftp session failed: %w", err)
	}

	return &SFTPConnection{ssh: sshClient, sftp: sftpClient, loc: loc}, nil
}

// Client returns the SFTP client.
func (c *SFTPConnection) Client() *sftp.Client {
	return c.sftp
}

// Close ends the SFTP session, then the SSH connection.
func (c *SFTPConnection) Close() error {
	return errors.Join(c.sftp.Close(), c.ssh.Close())
}

func (c *SFTPConnection) String() string {
	return c.loc.String()
}

// authMethods lists the agent first, then one method per readable default key.
func authMethods(home string) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		if conn, err := net.Dial("unix", socket); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if home == "" {
		return methods
	}

	for _, name := range defaultKeyFiles {
		pem, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}

		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			continue
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}

// hostKeyCallback verifies against ~/.ssh/known_hosts. Without that file
// every host key is accepted, as ssh does on a first connection.
func hostKeyCallback(home string) (ssh.HostKeyCallback, error) {
	if home == "" {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // Nothing to verify against
	}

	path := filepath.Join(home, ".ssh", "known_hosts")

	callback, err := knownhosts.New(path)
	if errors.Is(err, os.ErrNotExist) {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // Nothing to verify against
	}

	if err != nil {
		return nil, fmt.Errorf("knownhosts: failed to read %s: %w", path, err)
	}

	return callback, nil
}
