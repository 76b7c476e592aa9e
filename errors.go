package shipit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEnvironmentClosed indicates that an operation was attempted on a closed environment.
var ErrEnvironmentClosed = errors.New("environment is closed")

// ErrNotConnected indicates a remote command was attempted before the SSH session was connected.
var ErrNotConnected = errors.New("ssh session is not connected")

// ConfigError reports a missing or invalid deployment setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// KeyWriteError reports that the SSH private key could not be materialized on disk.
type KeyWriteError struct {
	Path string
	Err  error
}

func (e *KeyWriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot write ssh key: %v", e.Err)
	}

	return fmt.Sprintf("cannot write ssh key to %s: %v", e.Path, e.Err)
}

func (e *KeyWriteError) Unwrap() error {
	return e.Err
}

// ConnectionError reports that the connectivity probe against the host failed.
type ConnectionError struct {
	Host   string
	Stderr []byte
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Checklist lists the usual suspects when a probe fails.
func (e *ConnectionError) Checklist() []string {
	return []string{
		"the host " + e.Host + " is reachable from this machine",
		"the SSH port is open and matches the configured port",
		"the username and key are authorized on the server (authorized_keys)",
		"no firewall or security group blocks the connection",
		"the key material is a base64-encoded OpenSSH or PEM private key",
	}
}

// TimeoutError reports that a command exceeded its allotted time.
type TimeoutError struct {
	Command *Command
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("command timed out after %s", e.Timeout)
	}

	return fmt.Sprintf("command %q timed out after %s", e.Command.String(), e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// CommandError represents a completed execution that resulted in a non-zero exit code.
type CommandError struct {
	Command  *Command
	ExitCode int
	Stderr   []byte
	Cause    error
}

func (e *CommandError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("command exited with code %d", e.ExitCode)
	}

	return fmt.Sprintf("command %q exited with code %d", e.Command.String(), e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// TransportError represents a failure in the underlying transport or provider layer
// (e.g. connection lost, binary not found).
type TransportError struct {
	Command *Command
	Err     error
}

func (e *TransportError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}

	return fmt.Sprintf("transport error executing %q: %v", e.Command.String(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Diagnostic renders the verbose form of err: the error chain plus any command text,
// captured stderr and checklists carried by the typed errors along the chain.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(err.Error())

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Command != nil {
			fmt.Fprintf(&b, "\ncommand: %s", cmdErr.Command.String())
		}

		fmt.Fprintf(&b, "\nexit code: %d", cmdErr.ExitCode)
		writeStderr(&b, cmdErr.Stderr)
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) && timeoutErr.Command != nil {
		fmt.Fprintf(&b, "\ncommand: %s\ntimeout: %s", timeoutErr.Command.String(), timeoutErr.Timeout)
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		writeStderr(&b, connErr.Stderr)
		b.WriteString("\ncheck that:")

		for _, item := range connErr.Checklist() {
			b.WriteString("\n  - " + item)
		}
	}

	return b.String()
}

func writeStderr(b *strings.Builder, stderr []byte) {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return
	}

	b.WriteString("\nstderr:\n")
	b.WriteString(s)
}
