package deploy

import (
	"context"
	"time"

	"github.com/ruffel/shipit"
)

// Runner executes the commands of a deployment.
type Runner interface {
	// Local runs a hook on this machine.
	Local(ctx context.Context, script string, timeout time.Duration) (*shipit.BufferedResult, error)
	// Remote runs script on the host.
	Remote(ctx context.Context, script string, timeout time.Duration) (*shipit.BufferedResult, error)
	// Upload copies a local file or directory to the host.
	Upload(ctx context.Context, localPath, remotePath string) error
}

// Target supplies the connected remote environment.
type Target interface {
	Environment() (shipit.Environment, error)
}

// CommandRunner is the Runner backed by shipit environments.
type CommandRunner struct {
	local    shipit.Environment
	remote   Target
	reporter *Reporter
}

var _ Runner = (*CommandRunner)(nil)

// NewCommandRunner runs hooks in local and everything else in the environment remote provides.
// Stdout of every finished command is forwarded to reporter.
func NewCommandRunner(local shipit.Environment, remote Target, reporter *Reporter) *CommandRunner {
	return &CommandRunner{local: local, remote: remote, reporter: reporter}
}

// Local runs script with the local shell.
func (r *CommandRunner) Local(ctx context.Context, script string, timeout time.Duration) (*shipit.BufferedResult, error) {
	return r.run(ctx, r.local, script, timeout)
}

// Remote runs script with sh -c on the host.
func (r *CommandRunner) Remote(ctx context.Context, script string, timeout time.Duration) (*shipit.BufferedResult, error) {
	env, err := r.remote.Environment()
	if err != nil {
		return nil, err
	}

	return r.run(ctx, env, script, timeout)
}

// Upload copies localPath to remotePath on the host.
func (r *CommandRunner) Upload(ctx context.Context, localPath, remotePath string) error {
	env, err := r.remote.Environment()
	if err != nil {
		return err
	}

	return shipit.NewExecutor(env).Upload(ctx, localPath, remotePath)
}

func (r *CommandRunner) run(ctx context.Context, env shipit.Environment, script string, timeout time.Duration) (*shipit.BufferedResult, error) {
	res, err := shipit.NewExecutor(env).RunShell(ctx, script, shipit.WithTimeout(timeout))
	if res != nil && r.reporter != nil {
		r.reporter.Output(res.Lines())
	}

	return res, err
}
