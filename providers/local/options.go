package local

import "time"

// Config holds configuration for the local environment.
type Config struct {
	waitDelay time.Duration
}

// Option defines a functional option for the local provider.
type Option func(*Config)

// WithWaitDelay bounds how long a killed hook may keep its output pipes open.
// Grandchildren holding the pipes are abandoned once it expires.
func WithWaitDelay(d time.Duration) Option {
	return func(c *Config) {
		c.waitDelay = d
	}
}
