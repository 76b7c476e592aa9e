package openssh

// Config configures the openssh environment.
type Config struct {
	ConfigPath string // Client config passed with -F
	Alias      string // Host alias inside ConfigPath
	SSHBinary  string // default "ssh"
	SCPBinary  string // default "scp"
	Multiplex  bool   // Reuse the ControlMaster started by Connect
	MasterLog  string // File receiving the master's stderr (default: discarded)
}

// Option defines a functional option for the openssh provider.
type Option func(*Config)

// WithConfigFile sets the client config file and the alias to address.
func WithConfigFile(path, alias string) Option {
	return func(c *Config) {
		c.ConfigPath = path
		c.Alias = alias
	}
}

// WithBinaries overrides the ssh and scp executables.
func WithBinaries(ssh, scp string) Option {
	return func(c *Config) {
		if ssh != "" {
			c.SSHBinary = ssh
		}

		if scp != "" {
			c.SCPBinary = scp
		}
	}
}

// WithMultiplexing enables connection reuse through the config's ControlPath.
func WithMultiplexing(enabled bool) Option {
	return func(c *Config) {
		c.Multiplex = enabled
	}
}

// WithMasterLog sends the ControlMaster's stderr to path.
func WithMasterLog(path string) Option {
	return func(c *Config) {
		c.MasterLog = path
	}
}
