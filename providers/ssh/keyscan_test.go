package ssh

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func TestScanHostKey(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)

	key, err := ScanHostKey(t.Context(), srv.addr(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, srv.hostKey.PublicKey().Marshal(), key.Marshal())
}

func TestScanHostKey_Unreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = ScanHostKey(t.Context(), addr, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyscan")
}

func TestAppendKnownHost(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)
	path := filepath.Join(t.TempDir(), "known_hosts")

	key := srv.hostKey.PublicKey()
	require.NoError(t, AppendKnownHost(path, srv.addr(), key))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "|1|"), "hostnames are hashed")
	assert.NotContains(t, string(raw), srv.host)

	cb, err := knownhosts.New(path)
	require.NoError(t, err)

	remote := &net.TCPAddr{IP: net.ParseIP(srv.host), Port: srv.port}
	require.NoError(t, cb(srv.addr(), remote, key))

	other, err := ssh.NewPublicKey(mustEd25519Pub(t))
	require.NoError(t, err)
	require.Error(t, cb(srv.addr(), remote, other))
}

func TestNativeTransport_UsesScannedKnownHosts(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)
	path := filepath.Join(t.TempDir(), "known_hosts")

	key, err := ScanHostKey(t.Context(), srv.addr(), 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, AppendKnownHost(path, srv.addr(), key))

	cfg := NewConfig(srv.host, "deploy")
	cfg.Port = srv.port
	cfg.KnownHostsPath = path

	env, err := New(WithConfig(cfg))
	require.NoError(t, err)
	require.NoError(t, env.Close())
}
