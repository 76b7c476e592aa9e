package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/config"
	"github.com/ruffel/shipit/providers/openssh"
	sshprovider "github.com/ruffel/shipit/providers/ssh"
)

const (
	probeToken        = "shipit-probe-ok"
	keepAliveCountMax = 4
	controlPersist    = 60 * time.Second
	masterLogFile     = "master.log"
)

// Session owns the SSH material and connection of one run.
type Session interface {
	Target

	// Prepare writes the key, known_hosts and client config. Repeated calls do nothing.
	Prepare(ctx context.Context) error
	// Probe checks that the host accepts the prepared credentials.
	Probe(ctx context.Context) error
	// Connect opens the connection used by every later remote command.
	Connect(ctx context.Context) error
	// Close tears down the connection and removes the material.
	Close() error
}

// SSHSession is the Session backed by the ssh and openssh providers.
type SSHSession struct {
	cfg      config.Deployment
	local    shipit.Environment
	reporter *Reporter
	opts     options

	dir      string
	material *sshprovider.Material
	env      shipit.Environment
}

var _ Session = (*SSHSession)(nil)

// NewSSHSession creates a session for cfg. local runs the openssh binaries.
func NewSSHSession(cfg config.Deployment, local shipit.Environment, reporter *Reporter, opts ...Option) *SSHSession {
	if reporter == nil {
		reporter = NewReporter(nil, nil)
	}

	return &SSHSession{cfg: cfg, local: local, reporter: reporter, opts: newOptions(opts)}
}

// Material returns the files written by Prepare, or nil before it.
func (s *SSHSession) Material() *sshprovider.Material { return s.material }

// Prepare creates the run directory and writes the SSH material into it once.
// A failed host key scan is reported as a warning.
func (s *SSHSession) Prepare(ctx context.Context) error {
	if s.material != nil {
		return nil
	}

	if s.opts.runDir != "" {
		if err := os.MkdirAll(s.opts.runDir, 0o700); err != nil {
			return &shipit.KeyWriteError{Path: s.opts.runDir, Err: err}
		}
	}

	dir, err := os.MkdirTemp(s.opts.runDir, "shipit-")
	if err != nil {
		return &shipit.KeyWriteError{Path: s.opts.runDir, Err: err}
	}

	m, err := sshprovider.WriteMaterial(dir, sshprovider.MaterialSpec{
		Host:              s.cfg.Host(),
		Port:              s.cfg.Port(),
		User:              s.cfg.Username(),
		PrivateKey:        s.cfg.PrivateKey(),
		ConnectTimeout:    s.cfg.Timeouts().Connect,
		KeepAlive:         s.cfg.KeepAlive(),
		KeepAliveCountMax: keepAliveCountMax,
		ControlPersist:    controlPersist,
	})
	if err != nil {
		_ = os.RemoveAll(dir)

		return err
	}

	s.dir = dir
	s.material = m

	s.scanHostKey(ctx)

	return nil
}

func (s *SSHSession) scanHostKey(ctx context.Context) {
	addr := s.cfg.Addr()

	key, err := sshprovider.ScanHostKey(ctx, addr, s.cfg.Timeouts().Probe)
	if err != nil {
		s.reporter.Warn("cannot scan host key of "+addr, err)

		return
	}

	if err := sshprovider.AppendKnownHost(s.material.KnownHostsPath, addr, key); err != nil {
		s.reporter.Warn("cannot record host key of "+addr, err)
	}
}

// Probe runs echo over a short-lived connection bounded by the probe timeout.
// Any failure is a *shipit.ConnectionError carrying the captured stderr.
func (s *SSHSession) Probe(ctx context.Context) error {
	if s.material == nil {
		return errors.New("cannot probe: ssh material is not prepared")
	}

	timeout := s.cfg.Timeouts().Probe

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	env, err := s.open(ctx, false)
	if err != nil {
		return &shipit.ConnectionError{Host: s.cfg.Addr(), Err: err}
	}

	defer func() { _ = env.Close() }()

	res, err := shipit.NewExecutor(env).RunBuffered(ctx, shipit.NewCommand("echo", probeToken), shipit.WithTimeout(timeout))
	if err == nil && !strings.Contains(string(res.Stdout), probeToken) {
		err = fmt.Errorf("unexpected probe output %q", strings.TrimSpace(string(res.Stdout)))
	}

	if err != nil {
		var stderr []byte
		if res != nil {
			stderr = res.Stderr
		}

		return &shipit.ConnectionError{Host: s.cfg.Addr(), Stderr: stderr, Err: err}
	}

	return nil
}

// Connect opens the run's long-lived connection: a ControlMaster for openssh or a client
// for the native transport. The key is not written again.
func (s *SSHSession) Connect(ctx context.Context) error {
	if s.material == nil {
		return errors.New("cannot connect: ssh material is not prepared")
	}

	if s.env != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeouts().Connect)
	defer cancel()

	env, err := s.open(ctx, true)
	if err != nil {
		return &shipit.ConnectionError{Host: s.cfg.Addr(), Err: err}
	}

	s.env = env

	return nil
}

// open builds a transport from the generated config. persistent selects the
// multiplexed openssh master.
func (s *SSHSession) open(ctx context.Context, persistent bool) (shipit.Environment, error) {
	m := s.material

	if s.cfg.Transport() == config.TransportNative {
		c, err := sshprovider.NewFromSSHConfig(sshprovider.HostAlias, m.ConfigPath)
		if err != nil {
			return nil, err
		}

		return sshprovider.NewContext(ctx, sshprovider.WithConfig(c))
	}

	env, err := openssh.New(s.local,
		openssh.WithConfigFile(m.ConfigPath, sshprovider.HostAlias),
		openssh.WithBinaries(s.opts.sshBinary, s.opts.scpBinary),
		openssh.WithMultiplexing(persistent),
		openssh.WithMasterLog(filepath.Join(m.Dir, masterLogFile)),
	)
	if err != nil {
		return nil, err
	}

	if err := env.Connect(ctx); err != nil {
		return nil, err
	}

	return env, nil
}

// Environment returns the connected transport, or shipit.ErrNotConnected before Connect.
func (s *SSHSession) Environment() (shipit.Environment, error) {
	if s.env == nil {
		return nil, shipit.ErrNotConnected
	}

	return s.env, nil
}

// Close closes the connection and deletes the run directory with the key in it.
func (s *SSHSession) Close() error {
	var errs []error

	if s.env != nil {
		errs = append(errs, s.env.Close())
		s.env = nil
	}

	if s.dir != "" {
		errs = append(errs, os.RemoveAll(s.dir))
		s.dir = ""
		s.material = nil
	}

	return errors.Join(errs...)
}
