package ssh

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort              = 22
	defaultTimeout           = 10 * time.Second
	defaultKeepAliveCountMax = 4
)

// Config holds all parameters required to establish an SSH connection.
type Config struct {
	// Connection details
	Host string // Hostname or IP address
	Port int    // Port number (default 22)
	User string // Username to authenticate as

	// Key authentication. Both may be set.
	PrivateKey     string // PEM encoded private key content (string)
	PrivateKeyPath string // Path to private key file (e.g. "~/.ssh/id_rsa")

	// Connection settings
	Timeout            time.Duration       // Connection timeout (default 10s)
	KeepAlive          time.Duration       // Interval between keep-alive requests (0 disables)
	KeepAliveCountMax  int                 // Unanswered keep-alives before the connection is dropped (default 4)
	KnownHostsPath     string              // known_hosts file used when HostKeyCheck is nil
	HostKeyCheck       ssh.HostKeyCallback // Callback to verify host key. Takes precedence over KnownHostsPath.
	InsecureSkipVerify bool                // If true, disables strict host key checking.
}

// NewConfig creates a Config with safe defaults.
// Note: It does NOT set a default HostKeyCheck. Provide one, a KnownHostsPath, or set InsecureSkipVerify=true.
func NewConfig(host, username string) Config {
	return Config{
		Host:    host,
		User:    username,
		Port:    defaultPort,
		Timeout: defaultTimeout,
	}
}

// NewFromSSHConfig loads configuration from an SSH config file.
// An empty path reads ~/.ssh/config, the same file OpenSSH would.
func NewFromSSHConfig(alias, path string) (Config, error) {
	if path == "" {
		path = filepath.Join(homeDir(), ".ssh", "config")
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return NewFromSSHConfigReader(alias, f)
}

// NewFromSSHConfigReader parses config data and resolves alias to a Config.
//
// Recognised keywords: HostName, User, Port, IdentityFile, UserKnownHostsFile,
// StrictHostKeyChecking, ConnectTimeout, ServerAliveInterval and ServerAliveCountMax.
func NewFromSSHConfigReader(alias string, r io.Reader) (Config, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse ssh config: %w", err)
	}

	get := func(key string) string {
		v, _ := cfg.Get(alias, key)

		return strings.TrimSpace(v)
	}

	hostName := get("HostName")
	if hostName == "" {
		hostName = alias
	}

	username := get("User")
	if username == "" {
		if u, _ := user.Current(); u != nil {
			username = u.Username
		}
	}

	c := NewConfig(hostName, username)

	if v := get("Port"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid Port %q for %s: %w", v, alias, err)
		}

		c.Port = port
	}

	c.PrivateKeyPath = expandHome(get("IdentityFile"))
	c.KnownHostsPath = expandHome(get("UserKnownHostsFile"))

	if v := get("ConnectTimeout"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ConnectTimeout %q for %s: %w", v, alias, err)
		}

		c.Timeout = time.Duration(secs) * time.Second
	}

	if v := get("ServerAliveInterval"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ServerAliveInterval %q for %s: %w", v, alias, err)
		}

		c.KeepAlive = time.Duration(secs) * time.Second
	}

	if v := get("ServerAliveCountMax"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ServerAliveCountMax %q for %s: %w", v, alias, err)
		}

		c.KeepAliveCountMax = n
	}

	if strings.EqualFold(get("StrictHostKeyChecking"), "no") {
		c.InsecureSkipVerify = true
	}

	return c, nil
}

// WithDefaults sets default values for zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Host != "" && c.User != "" && c.Port == 0 {
		c.Port = defaultPort
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	if c.KeepAliveCountMax == 0 {
		c.KeepAliveCountMax = defaultKeepAliveCountMax
	}

	// If insecure is requested and no callback provided, use insecure ignore.
	if c.InsecureSkipVerify && c.HostKeyCheck == nil {
		c.HostKeyCheck = ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in, matches StrictHostKeyChecking=no
	}

	return c
}

// Validate ensures all required fields are present.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("configuration error: host address cannot be empty")
	}

	if c.User == "" {
		return errors.New("configuration error: user cannot be empty")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("configuration error: port %d out of range", c.Port)
	}

	if c.HostKeyCheck == nil && c.KnownHostsPath == "" {
		return errors.New("configuration error: HostKeyCheck is missing; provide a callback, a KnownHostsPath or set InsecureSkipVerify=true")
	}

	return nil
}

// Addr returns the host:port pair to dial. IPv6 hosts are bracketed.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ToClientConfig converts the local Config struct to the underlying ssh.ClientConfig.
func (c Config) ToClientConfig() (*ssh.ClientConfig, error) {
	hostKeyCheck := c.HostKeyCheck
	if hostKeyCheck == nil && c.KnownHostsPath != "" {
		cb, err := knownhosts.New(c.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", c.KnownHostsPath, err)
		}

		hostKeyCheck = cb
	}

	config := &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: hostKeyCheck,
		Timeout:         c.Timeout,
	}

	if c.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(c.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}

	return config, nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}

	return os.Getenv("HOME")
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}

	return path
}
