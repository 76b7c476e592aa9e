// Package config resolves the settings of one deployment run from a YAML settings file,
// a .env file and the process environment.
package config

import (
	"net"
	"path"
	"slices"
	"strconv"
	"time"
)

// Transport selects how remote commands reach the host.
type Transport string

const (
	// TransportOpenSSH drives the system ssh and scp binaries through a generated client config.
	TransportOpenSSH Transport = "openssh"
	// TransportNative uses the in-process SSH client.
	TransportNative Transport = "native"
)

// Permissions holds the octal modes applied by the permission fix, e.g. "755".
type Permissions struct {
	Files          string
	Directories    string
	Storage        string
	BootstrapCache string
}

// Timeouts bounds the blocking operations of a run.
type Timeouts struct {
	Command time.Duration // each hook, sync, steps and permission command
	Probe   time.Duration // the connectivity probe
	Connect time.Duration // TCP connect and SSH handshake
}

// Upload copies Source from the local machine to Target on the host.
// A relative Target is resolved against the deployment path.
type Upload struct {
	Source string
	Target string
}

// RemotePath returns the absolute target of the upload under root.
func (u Upload) RemotePath(root string) string {
	if path.IsAbs(u.Target) {
		return path.Clean(u.Target)
	}

	return path.Join(root, u.Target)
}

// Settings is the mutable form of a Deployment, used while layering sources.
type Settings struct {
	Host        string
	Port        int
	Username    string
	PrivateKey  string // base64-encoded private key material
	Path        string
	Branch      string
	Steps       StepSet
	Permissions Permissions
	BeforeHooks []string
	AfterHooks  []string
	Uploads     []Upload
	Transport   Transport
	Timeouts    Timeouts
	KeepAlive   time.Duration
}

// Defaults returns the settings every source is layered on top of.
func Defaults() Settings {
	return Settings{
		Port:   22,
		Path:   "/var/www/html",
		Branch: "main",
		Steps:  DefaultSteps(),
		Permissions: Permissions{
			Files:          "644",
			Directories:    "755",
			Storage:        "775",
			BootstrapCache: "775",
		},
		Transport: TransportOpenSSH,
		Timeouts: Timeouts{
			Command: 300 * time.Second,
			Probe:   30 * time.Second,
			Connect: 60 * time.Second,
		},
		KeepAlive: 15 * time.Second,
	}
}

func (s Settings) clone() Settings {
	s.BeforeHooks = slices.Clone(s.BeforeHooks)
	s.AfterHooks = slices.Clone(s.AfterHooks)
	s.Uploads = slices.Clone(s.Uploads)

	return s
}

// Deployment is the immutable snapshot of one run's configuration.
type Deployment struct {
	s      Settings
	source string
}

// New freezes s into a Deployment. Later changes to s do not affect the result.
func New(s Settings) Deployment {
	return Deployment{s: s.clone()}
}

// With returns a new Deployment with fn applied to a copy of the settings.
func (d Deployment) With(fn func(*Settings)) Deployment {
	s := d.Settings()
	fn(&s)

	return Deployment{s: s, source: d.source}
}

// Settings returns a copy of the underlying settings.
func (d Deployment) Settings() Settings { return d.s.clone() }

// Source names the provider that produced the snapshot, e.g. "ci" or "local".
func (d Deployment) Source() string { return d.source }

func (d Deployment) Host() string { return d.s.Host }
func (d Deployment) Port() int { return d.s.Port }
func (d Deployment) Username() string { return d.s.Username }
func (d Deployment) PrivateKey() string { return d.s.PrivateKey }
func (d Deployment) Path() string { return d.s.Path }
func (d Deployment) Branch() string { return d.s.Branch }
func (d Deployment) Steps() StepSet { return d.s.Steps }
func (d Deployment) Permissions() Permissions { return d.s.Permissions }
func (d Deployment) Transport() Transport { return d.s.Transport }
func (d Deployment) Timeouts() Timeouts { return d.s.Timeouts }
func (d Deployment) KeepAlive() time.Duration { return d.s.KeepAlive }
func (d Deployment) BeforeHooks() []string { return slices.Clone(d.s.BeforeHooks) }
func (d Deployment) AfterHooks() []string { return slices.Clone(d.s.AfterHooks) }
func (d Deployment) Uploads() []Upload { return slices.Clone(d.s.Uploads) }

// Addr returns host:port.
func (d Deployment) Addr() string {
	return net.JoinHostPort(d.s.Host, strconv.Itoa(d.s.Port))
}
