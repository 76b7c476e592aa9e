// Package shipit runs a fixed, fail-fast deployment pipeline against a single
// remote host over SSH.
//
// # Core Interfaces
//
// Environment is where commands execute: the local machine for hooks, an SSH transport for the
// host. Every environment runs POSIX shell scripts.
//
// # Output
//
// Environments stream to whatever io.Writer is attached to a Command. The Executor wraps an
// Environment for the common "run it, buffer it, classify it" case and is what the deploy package
// builds on.
//
// # Errors
//
// Failures are typed so the pipeline can report them precisely: ConfigError, KeyWriteError,
// ConnectionError, TimeoutError, CommandError and TransportError. Use errors.As to inspect them and
// Diagnostic to render the verbose form.
package shipit

import (
	"context"
	"io"
)

// Environment abstracts the underlying system where commands are executed (e.g., Local, SSH).
type Environment interface {
	io.Closer

	// Run executes a command synchronously.
	// Returns the result (exit code, error). Output is not captured by default; use Command.Stdout/Stderr.
	Run(ctx context.Context, cmd *Command) (*Result, error)

	// Upload copies a local file or directory to the destination path of the environment.
	//
	// It creates any missing parent directories at the destination.
	Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error
}
