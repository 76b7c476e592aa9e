package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ruffel/shipit/fileutil"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var errHostKeyCaptured = errors.New("host key captured")

// ScanHostKey performs the key-exchange half of an SSH handshake against addr and returns
// the host key the server presented. No authentication is attempted.
func ScanHostKey(ctx context.Context, addr string, timeout time.Duration) (ssh.PublicKey, error) {
	conn, err := (&net.Dialer{Timeout: timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("keyscan %s: %w", addr, err)
	}

	defer func() { _ = conn.Close() }()

	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	var captured ssh.PublicKey

	cfg := &ssh.ClientConfig{
		User: "keyscan",
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			captured = key

			return errHostKeyCaptured
		},
		Timeout: timeout,
	}

	_, _, _, err = ssh.NewClientConn(conn, addr, cfg)
	if captured != nil {
		return captured, nil
	}

	if err == nil {
		return nil, fmt.Errorf("keyscan %s: server presented no host key", addr)
	}

	return nil, fmt.Errorf("keyscan %s: %w", addr, err)
}

// AppendKnownHost appends a hashed known_hosts line for addr and key to path.
func AppendKnownHost(path, addr string, key ssh.PublicKey) error {
	hashed := knownhosts.HashHostname(knownhosts.Normalize(addr))
	line := knownhosts.Line([]string{hashed}, key)

	return fileutil.AppendPrivateFile(path, []byte(line+"\n"))
}
