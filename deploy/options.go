package deploy

import "log/slog"

type options struct {
	observer  Observer
	logger    *slog.Logger
	runDir    string
	sshBinary string
	scpBinary string
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Option configures Run and NewSSHSession.
type Option func(*options)

// WithObserver receives progress lines, typically for verbose console output.
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithLogger sets the durable log sink.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRunDir sets the parent of the per-run SSH material directory (default: the system temp dir).
func WithRunDir(dir string) Option {
	return func(o *options) {
		o.runDir = dir
	}
}

// WithBinaries overrides the ssh and scp executables used by the openssh transport.
func WithBinaries(ssh, scp string) Option {
	return func(o *options) {
		o.sshBinary = ssh
		o.scpBinary = scp
	}
}
