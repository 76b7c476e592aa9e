package openssh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ruffel/shipit"
)

// sshFailureExit is the status ssh and scp use for their own errors.
const sshFailureExit = 255

const closeTimeout = 5 * time.Second

var _ shipit.Environment = (*Environment)(nil)

// Environment implements shipit.Environment on top of the OpenSSH client binaries.
type Environment struct {
	local  shipit.Environment
	cfg    Config
	mu     sync.Mutex
	master bool
	closed bool
}

// New creates an environment that runs ssh and scp through local.
func New(local shipit.Environment, opts ...Option) (*Environment, error) {
	cfg := Config{
		SSHBinary: "ssh",
		SCPBinary: "scp",
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if local == nil {
		return nil, errors.New("openssh: a local environment is required")
	}

	if cfg.ConfigPath == "" || cfg.Alias == "" {
		return nil, errors.New("openssh: client config path and host alias are required")
	}

	return &Environment{local: local, cfg: cfg}, nil
}

// Connect starts a background ControlMaster for the alias. Later commands reuse it.
// It is a no-op when multiplexing is disabled.
func (e *Environment) Connect(ctx context.Context) error {
	if !e.cfg.Multiplex {
		return nil
	}

	if err := e.checkOpen(); err != nil {
		return err
	}

	cmd := &shipit.Command{
		Cmd:  e.cfg.SSHBinary,
		Args: []string{"-F", e.cfg.ConfigPath, "-o", "ControlMaster=yes", "-N", "-f", "--", e.cfg.Alias},
	}

	if e.cfg.MasterLog != "" {
		f, err := os.OpenFile(e.cfg.MasterLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("cannot open master log: %w", err)
		}

		defer func() { _ = f.Close() }()

		cmd.Stderr = f
	}

	if _, err := e.local.Run(ctx, cmd); err != nil {
		return &shipit.TransportError{Command: cmd, Err: fmt.Errorf("cannot start control master: %w", err)}
	}

	e.mu.Lock()
	e.master = true
	e.mu.Unlock()

	return nil
}

// Run executes cmd on the remote host.
func (e *Environment) Run(ctx context.Context, cmd *shipit.Command) (*shipit.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if err := e.checkOpen(); err != nil {
		return nil, fmt.Errorf("cannot run command %q: %w", cmd.String(), err)
	}

	res, err := e.local.Run(ctx, e.sshCommand(cmd))

	return res, classify(cmd, err)
}

// Close stops the ControlMaster started by Connect. The local environment is not closed.
func (e *Environment) Close() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil
	}

	e.closed = true
	master := e.master
	e.mu.Unlock()

	if !master {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	cmd := &shipit.Command{
		Cmd:  e.cfg.SSHBinary,
		Args: []string{"-F", e.cfg.ConfigPath, "-O", "exit", "--", e.cfg.Alias},
	}

	if _, err := e.local.Run(ctx, cmd); err != nil {
		return fmt.Errorf("cannot stop control master: %w", err)
	}

	return nil
}

func (e *Environment) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return shipit.ErrEnvironmentClosed
	}

	return nil
}

// baseArgs selects the config file and the multiplexing mode. Commands never become
// a master themselves: a persisted master would keep their output pipes open.
func (e *Environment) baseArgs() []string {
	args := []string{"-F", e.cfg.ConfigPath, "-o", "ControlMaster=no"}
	if !e.cfg.Multiplex {
		args = append(args, "-o", "ControlPath=none")
	}

	return args
}

func (e *Environment) sshCommand(cmd *shipit.Command) *shipit.Command {
	args := append(e.baseArgs(), "--", e.cfg.Alias, shipit.RemoteScript(cmd))

	return &shipit.Command{
		Cmd:    e.cfg.SSHBinary,
		Args:   args,
		Stdin:  cmd.Stdin,
		Stdout: cmd.Stdout,
		Stderr: cmd.Stderr,
	}
}

// classify re-targets errors from the local ssh invocation at the remote command.
func classify(remote *shipit.Command, err error) error {
	if err == nil {
		return nil
	}

	var cmdErr *shipit.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.ExitCode == sshFailureExit {
			return &shipit.TransportError{
				Command: remote,
				Err:     fmt.Errorf("ssh exited with status %d: %w", sshFailureExit, err),
			}
		}

		return &shipit.CommandError{Command: remote, ExitCode: cmdErr.ExitCode, Cause: cmdErr.Cause}
	}

	var transportErr *shipit.TransportError
	if errors.As(err, &transportErr) {
		return &shipit.TransportError{Command: remote, Err: transportErr.Err}
	}

	return err
}
