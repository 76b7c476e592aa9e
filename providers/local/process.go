package local

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/ruffel/shipit"
)

// run starts cmd in its own process group and waits for it.
// Cancellation or timeout kills the whole group, not just the shell.
func (e *Environment) run(ctx context.Context, cmd *shipit.Command) (*shipit.Result, error) {
	execCmd := exec.CommandContext(ctx, cmd.Cmd, cmd.Args...)
	execCmd.Dir = cmd.Dir

	if len(cmd.Env) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Env...)
	}

	setProcessGroup(execCmd)

	execCmd.Cancel = func() error {
		return killProcessGroup(execCmd.Process.Pid)
	}
	execCmd.WaitDelay = e.waitDelay

	// Nil streams are connected to the null device; an *os.File is handed to the child
	// directly, so a daemonizing child cannot hold a pipe open.
	if cmd.Stdout != nil {
		execCmd.Stdout = cmd.Stdout
	}

	if cmd.Stderr != nil {
		execCmd.Stderr = cmd.Stderr
	}

	if cmd.Stdin != nil {
		execCmd.Stdin = cmd.Stdin
	}

	start := time.Now()

	if err := execCmd.Start(); err != nil {
		return nil, &shipit.TransportError{Command: cmd, Err: err}
	}

	err := execCmd.Wait()

	res := &shipit.Result{Duration: time.Since(start), Error: err}
	if execCmd.ProcessState != nil {
		res.ExitCode = execCmd.ProcessState.ExitCode()
	}

	if err == nil {
		return res, nil
	}

	// Stderr is attached by the Executor when it buffers Command.Stderr.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &shipit.CommandError{Command: cmd, ExitCode: exitErr.ExitCode(), Cause: err}
	}

	// Wait delay expiry and similar.
	return res, err
}
