package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/ruffel/shipit/config"
	"github.com/ruffel/shipit/providers/local"
)

// Outcome is the result of a run. Message and Err are empty on success.
type Outcome struct {
	Succeeded bool
	Stage     Stage // the failed stage, or StageSucceeded
	Message   string
	Err       error
	RunID     string
	Duration  time.Duration
}

type stageFunc func(ctx context.Context) error

// Deployer drives the stages of one deployment in order and stops at the first failure.
// Nothing is retried or rolled back.
type Deployer struct {
	cfg      config.Deployment
	session  Session
	runner   Runner
	reporter *Reporter
}

// NewDeployer creates a Deployer. A nil reporter discards progress.
func NewDeployer(cfg config.Deployment, session Session, runner Runner, reporter *Reporter) *Deployer {
	if reporter == nil {
		reporter = NewReporter(nil, nil)
	}

	return &Deployer{cfg: cfg, session: session, runner: runner, reporter: reporter}
}

func (d *Deployer) stages() []struct {
	stage Stage
	run   stageFunc
} {
	return []struct {
		stage Stage
		run   stageFunc
	}{
		{StageValidating, d.validate},
		{StageTestingConnection, d.testConnection},
		{StageRunningBeforeHooks, d.beforeHooks},
		{StagePreparingSSH, d.session.Connect},
		{StageSyncingCode, d.syncCode},
		{StageUploadingFiles, d.uploadFiles},
		{StageRunningSteps, d.runSteps},
		{StageFixingPermissions, d.fixPermissions},
		{StageRunningAfterHooks, d.afterHooks},
	}
}

// Deploy runs every stage and returns the outcome. The session is closed before returning.
func (d *Deployer) Deploy(ctx context.Context) Outcome {
	start := time.Now()

	outcome := d.drive(ctx)
	outcome.RunID = d.reporter.RunID()
	outcome.Duration = time.Since(start)

	if err := d.session.Close(); err != nil {
		d.reporter.Warn("cannot clean up ssh session", err)
	}

	d.reporter.Finished(outcome)

	return outcome
}

func (d *Deployer) drive(ctx context.Context) Outcome {
	for _, s := range d.stages() {
		d.reporter.StageStarted(s.stage)
		began := time.Now()

		err := ctx.Err()
		if err == nil {
			err = s.run(ctx)
		}

		if err != nil {
			d.reporter.StageFailed(s.stage, err)

			return Outcome{
				Stage:   s.stage,
				Message: fmt.Sprintf("%s failed: %v", s.stage, err),
				Err:     err,
			}
		}

		d.reporter.StageSucceeded(s.stage, time.Since(began))
	}

	return Outcome{Succeeded: true, Stage: StageSucceeded}
}

func (d *Deployer) validate(context.Context) error {
	return d.cfg.Validate()
}

func (d *Deployer) testConnection(ctx context.Context) error {
	if err := d.session.Prepare(ctx); err != nil {
		return err
	}

	return d.session.Probe(ctx)
}

func (d *Deployer) beforeHooks(ctx context.Context) error {
	return d.hooks(ctx, d.cfg.BeforeHooks())
}

func (d *Deployer) afterHooks(ctx context.Context) error {
	return d.hooks(ctx, d.cfg.AfterHooks())
}

func (d *Deployer) hooks(ctx context.Context, hooks []string) error {
	if len(hooks) == 0 {
		d.reporter.Info("no hooks configured")

		return nil
	}

	for _, hook := range hooks {
		d.reporter.Info("$ " + hook)

		if _, err := d.runner.Local(ctx, hook, d.cfg.Timeouts().Command); err != nil {
			return err
		}
	}

	return nil
}

func (d *Deployer) syncCode(ctx context.Context) error {
	_, err := d.runner.Remote(ctx, SyncCommand(d.cfg.Path(), d.cfg.Branch()), d.cfg.Timeouts().Command)

	return err
}

func (d *Deployer) uploadFiles(ctx context.Context) error {
	uploads := d.cfg.Uploads()
	if len(uploads) == 0 {
		d.reporter.Info("no uploads configured")

		return nil
	}

	for _, u := range uploads {
		target := u.RemotePath(d.cfg.Path())
		d.reporter.Info(u.Source + " -> " + target)

		if err := d.runner.Upload(ctx, u.Source, target); err != nil {
			return fmt.Errorf("cannot upload %s: %w", u.Source, err)
		}
	}

	return nil
}

func (d *Deployer) runSteps(ctx context.Context) error {
	batch := StepsCommand(d.cfg.Path(), d.cfg.Steps())
	if batch == "" {
		d.reporter.Info("no steps enabled")

		return nil
	}

	_, err := d.runner.Remote(ctx, batch, d.cfg.Timeouts().Command)

	return err
}

func (d *Deployer) fixPermissions(ctx context.Context) error {
	_, err := d.runner.Remote(ctx, PermissionsCommand(d.cfg.Path(), d.cfg.Permissions()), d.cfg.Timeouts().Command)

	return err
}

// Run deploys cfg with the default session and runner: hooks run on this machine and remote
// commands go through the transport cfg selects.
func Run(ctx context.Context, cfg config.Deployment, opts ...Option) Outcome {
	o := newOptions(opts)
	reporter := NewReporter(o.observer, o.logger)

	localEnv, err := local.New()
	if err != nil {
		outcome := Outcome{Stage: StageValidating, Message: err.Error(), Err: err, RunID: reporter.RunID()}
		reporter.StageFailed(StageValidating, err)
		reporter.Finished(outcome)

		return outcome
	}

	defer func() { _ = localEnv.Close() }()

	session := NewSSHSession(cfg, localEnv, reporter, opts...)
	runner := NewCommandRunner(localEnv, session, reporter)

	return NewDeployer(cfg, session, runner, reporter).Deploy(ctx)
}
