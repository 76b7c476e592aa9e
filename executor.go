package shipit

import (
	"bytes"
	"context"
	"errors"
)

// Executor handles command execution with timeouts and output buffering.
type Executor struct {
	env Environment
}

// NewExecutor creates a new Executor with the given environment.
func NewExecutor(env Environment) *Executor {
	return &Executor{env: env}
}

// Run executes a command once, respecting context cancellation and the configured timeout.
//
// A command that outlives its timeout returns *TimeoutError, a non-zero exit returns *CommandError.
func (e *Executor) Run(ctx context.Context, cmd *Command, opts ...ExecOption) (*Result, error) {
	var cfg ExecConfig

	for _, o := range opts {
		o(&cfg)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	res, err := e.env.Run(ctx, cmd)

	// The deadline wins over whatever the provider reported for the killed process.
	if cfg.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, &TimeoutError{Command: cmd, Timeout: cfg.Timeout, Err: ctx.Err()}
	}

	if err != nil {
		return res, err
	}

	if res != nil && res.ExitCode != 0 {
		return res, &CommandError{
			Command:  cmd,
			ExitCode: res.ExitCode,
		}
	}

	return res, nil
}

// RunBuffered executes a command and captures both Stdout and Stderr.
func (e *Executor) RunBuffered(ctx context.Context, cmd *Command, opts ...ExecOption) (*BufferedResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmdCopy := *cmd
	cmdCopy.Stdout = &stdoutBuf
	cmdCopy.Stderr = &stderrBuf

	result, err := e.Run(ctx, &cmdCopy, opts...)

	bufResult := &BufferedResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
	}
	if result != nil {
		bufResult.Result = *result
	}

	if err != nil {
		if bufResult.Error == nil {
			bufResult.Error = err
		}

		// Attach stderr to CommandError for context
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			cmdErr.Stderr = bufResult.Stderr
			if bufResult.ExitCode == 0 {
				bufResult.ExitCode = cmdErr.ExitCode
			}
		}
	}

	return bufResult, err
}

// RunShell executes script with "sh -c".
func (e *Executor) RunShell(ctx context.Context, script string, opts ...ExecOption) (*BufferedResult, error) {
	return e.RunBuffered(ctx, ShellCommand(script), opts...)
}

// Upload copies a local file or directory to the environment's destination.
// It delegates directly to the underlying Environment.
func (e *Executor) Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error {
	return e.env.Upload(ctx, localPath, remotePath, opts...)
}
