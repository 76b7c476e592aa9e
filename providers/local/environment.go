package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ruffel/shipit"
)

var _ shipit.Environment = (*Environment)(nil)

const defaultWaitDelay = 2 * time.Second

// Environment implements shipit.Environment for the local operating system.
// Thread-safe wrapper around os/exec.
type Environment struct {
	waitDelay time.Duration
	mu        sync.RWMutex
	closed    bool
}

// New creates a new local environment.
func New(opts ...Option) (*Environment, error) {
	cfg := Config{
		waitDelay: defaultWaitDelay,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Environment{waitDelay: cfg.waitDelay}, nil
}

// Run executes a command synchronously on the local machine.
// The result is returned alongside a *shipit.CommandError for non-zero exits.
func (e *Environment) Run(ctx context.Context, cmd *shipit.Command) (*shipit.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if e.isClosed() {
		return nil, fmt.Errorf("cannot run command %q: %w", cmd.String(), shipit.ErrEnvironmentClosed)
	}

	return e.run(ctx, cmd)
}

// Close shuts down the environment. Later Run and Upload calls fail with
// shipit.ErrEnvironmentClosed.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true

	return nil
}

func (e *Environment) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.closed
}
