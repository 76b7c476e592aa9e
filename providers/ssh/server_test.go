package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"strconv"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// execHandler serves one exec request and returns the exit status to report.
type execHandler func(command string, ch ssh.Channel) uint32

// testServer is an in-process sshd that accepts any client, runs exec requests through
// a handler and serves the sftp subsystem from the local filesystem.
type testServer struct {
	host    string
	port    int
	hostKey ssh.Signer
}

func newTestServer(t *testing.T, handler execHandler) *testServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go serveConn(conn, cfg, handler)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &testServer{host: host, port: port, hostKey: signer}
}

func (s *testServer) addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

func (s *testServer) config() Config {
	c := NewConfig(s.host, "deploy")
	c.Port = s.port
	c.HostKeyCheck = ssh.FixedHostKey(s.hostKey.PublicKey())

	return c
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig, handler execHandler) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		_ = conn.Close()

		return
	}

	defer func() { _ = sconn.Close() }()

	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")

			continue
		}

		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}

		go serveSession(ch, requests, handler)
	}
}

func serveSession(ch ssh.Channel, requests <-chan *ssh.Request, handler execHandler) {
	defer func() { _ = ch.Close() }()

	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)

				return
			}

			_ = req.Reply(true, nil)

			status := handler(payload.Command, ch)
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(&struct{ Status uint32 }{status}))

			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)

				return
			}

			_ = req.Reply(true, nil)

			go ssh.DiscardRequests(requests)

			server, err := sftp.NewServer(ch)
			if err != nil {
				return
			}

			_ = server.Serve()

			return
		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}
