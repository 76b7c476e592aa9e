package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ruffel/shipit"
	"golang.org/x/crypto/ssh"
)

var _ shipit.Environment = (*Environment)(nil)

// Environment implements shipit.Environment for SSH execution.
type Environment struct {
	config Config
	client *ssh.Client
	mu     sync.Mutex
	closed bool
	stop   chan struct{}
}

// loadPrivateKeyAuth loads a private key from a file and returns an ssh.AuthMethod.
// Returns nil if the path is empty.
func loadPrivateKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	if keyPath == "" {
		return nil, nil //nolint:nilnil // no key path, no auth method
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key file: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// New establishes a new SSH connection.
func New(opts ...Option) (*Environment, error) {
	return NewContext(context.Background(), opts...)
}

// NewContext establishes a new SSH connection, abandoning the dial when ctx ends.
func NewContext(ctx context.Context, opts ...Option) (*Environment, error) {
	var c Config

	for _, opt := range opts {
		opt(&c)
	}

	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	clientConfig, err := c.ToClientConfig()
	if err != nil {
		return nil, err
	}

	if keyAuth, err := loadPrivateKeyAuth(c.PrivateKeyPath); err != nil {
		return nil, err
	} else if keyAuth != nil {
		clientConfig.Auth = append(clientConfig.Auth, keyAuth)
	}

	client, err := dial(ctx, c.Addr(), clientConfig)
	if err != nil {
		return nil, &shipit.TransportError{Err: err}
	}

	return NewFromClient(client, c), nil
}

func dial(ctx context.Context, addr string, clientConfig *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := (&net.Dialer{Timeout: clientConfig.Timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh at %s: %w", addr, err)
	}

	if clientConfig.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(clientConfig.Timeout))
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}

	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

// NewFromClient creates a new SSH environment from an existing client.
// Keep-alives start immediately when config.KeepAlive is set.
func NewFromClient(client *ssh.Client, config Config) *Environment {
	e := &Environment{
		config: config,
		client: client,
		stop:   make(chan struct{}),
	}

	if config.KeepAlive > 0 {
		go e.keepAlive(config.KeepAlive, config.KeepAliveCountMax)
	}

	return e
}

// keepAlive mirrors OpenSSH ServerAliveInterval/ServerAliveCountMax: the connection is
// closed once maxMissed consecutive requests go unanswered.
func (e *Environment) keepAlive(interval time.Duration, maxMissed int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	missed := 0

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if _, _, err := e.client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				missed++
				if maxMissed > 0 && missed >= maxMissed {
					_ = e.Close()

					return
				}

				continue
			}

			missed = 0
		}
	}
}

// Run opens a new SSH session for cmd and waits for it to finish.
func (e *Environment) Run(ctx context.Context, cmd *shipit.Command) (*shipit.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return nil, fmt.Errorf("cannot run command %q: %w", cmd.String(), shipit.ErrEnvironmentClosed)
	}

	sess, err := e.client.NewSession()
	if err != nil {
		return nil, &shipit.TransportError{Command: cmd, Err: fmt.Errorf("failed to create ssh session: %w", err)}
	}

	defer func() { _ = sess.Close() }()

	return runSession(ctx, sess, cmd)
}

// Close stops keep-alives and closes the underlying SSH connection.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true
	close(e.stop)

	if e.client != nil {
		return e.client.Close()
	}

	return nil
}
