package shipit

import (
	"os"
	"time"
)

// ExecConfig holds configuration derived from options.
type ExecConfig struct {
	Timeout time.Duration // Hard limit for the execution (0 means none)
}

// ExecOption defines a functional option for execution.
type ExecOption func(*ExecConfig)

// WithTimeout bounds the execution. Exceeding it yields a *TimeoutError.
func WithTimeout(d time.Duration) ExecOption {
	return func(c *ExecConfig) {
		if d < 0 {
			d = 0
		}

		c.Timeout = d
	}
}

// FileConfig holds configuration for file transfers.
type FileConfig struct {
	Permissions os.FileMode // Destination perms override (0 means preserve/default)
	Recursive   bool        // Default true for generic uploads
	Progress    ProgressFunc
}

// DefaultFileConfig returns defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Recursive: true,
	}
}

// FileOption defines a functional option for file transfers.
type FileOption func(*FileConfig)

// WithPermissions forces specific destination file mode.
func WithPermissions(mode os.FileMode) FileOption {
	return func(c *FileConfig) {
		c.Permissions = mode
	}
}

// ProgressFunc is a callback for tracking file transfer progress.
type ProgressFunc func(current, total int64)

// WithProgress calls fn with progress updates.
func WithProgress(fn ProgressFunc) FileOption {
	return func(c *FileConfig) {
		c.Progress = fn
	}
}
