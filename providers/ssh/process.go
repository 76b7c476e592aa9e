package ssh

import (
	"context"
	"errors"
	"time"

	"github.com/ruffel/shipit"
	"golang.org/x/crypto/ssh"
)

// exitUnknown is reported when the remote side never sent an exit status.
const exitUnknown = 255

// runSession runs cmd on sess and blocks until it exits or ctx ends.
//
// A non-zero remote exit is a *shipit.CommandError; a dropped connection or missing exit
// status is a *shipit.TransportError.
func runSession(ctx context.Context, sess *ssh.Session, cmd *shipit.Command) (*shipit.Result, error) {
	if cmd.Stdout != nil {
		sess.Stdout = cmd.Stdout
	}

	if cmd.Stderr != nil {
		sess.Stderr = cmd.Stderr
	}

	if cmd.Stdin != nil {
		sess.Stdin = cmd.Stdin
	}

	start := time.Now()

	if err := sess.Start(shipit.RemoteScript(cmd)); err != nil {
		return nil, &shipit.TransportError{Command: cmd, Err: err}
	}

	done := make(chan error, 1)

	go func() { done <- sess.Wait() }()

	var err error

	select {
	case err = <-done:
	case <-ctx.Done():
		// Not every sshd honours signal requests; closing the channel is what unblocks Wait.
		_ = sess.Signal(ssh.SIGKILL)
		_ = sess.Close()
		err = <-done
	}

	res := &shipit.Result{Duration: time.Since(start), Error: err}
	if err == nil {
		return res, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()

		return res, &shipit.CommandError{Command: cmd, ExitCode: res.ExitCode, Cause: err}
	}

	res.ExitCode = exitUnknown

	return res, &shipit.TransportError{Command: cmd, Err: err}
}
