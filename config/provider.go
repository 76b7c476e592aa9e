package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Provider produces an unvalidated Deployment from one family of sources.
type Provider interface {
	Name() string
	Load() (Deployment, error)
}

type sources struct {
	settingsFile     string
	settingsRequired bool
	envFile          string
	envRequired      bool
	lookup           LookupFunc
}

func newSources(opts []Option) sources {
	src := sources{
		settingsFile: DefaultSettingsFile,
		envFile:      ".env",
		lookup:       os.LookupEnv,
	}

	for _, o := range opts {
		o(&src)
	}

	return src
}

// Option configures where a provider reads from.
type Option func(*sources)

// WithSettingsFile reads path instead of shipit.yaml. A named file must exist;
// an empty path disables the settings file.
func WithSettingsFile(path string) Option {
	return func(s *sources) {
		s.settingsFile = path
		s.settingsRequired = path != ""
	}
}

// WithEnvFile reads path instead of .env. A named file must exist; an empty path disables it.
// The CI provider never reads a .env file.
func WithEnvFile(path string) Option {
	return func(s *sources) {
		s.envFile = path
		s.envRequired = path != ""
	}
}

// WithLookup replaces os.LookupEnv as the process environment.
func WithLookup(lookup LookupFunc) Option {
	return func(s *sources) {
		s.lookup = lookup
	}
}

func (src sources) base() (Settings, error) {
	s := Defaults()

	fs, err := readSettingsFile(src.settingsFile, src.settingsRequired)
	if err != nil {
		return s, err
	}

	if fs != nil {
		if err := fs.apply(&s); err != nil {
			return s, err
		}
	}

	return s, nil
}

// CIProvider reads the settings file and the process environment. Secrets injected by the
// CI platform arrive as environment variables and win over the file.
type CIProvider struct {
	src sources
}

// NewCIProvider creates a CIProvider.
func NewCIProvider(opts ...Option) *CIProvider {
	return &CIProvider{src: newSources(opts)}
}

// Name returns "ci".
func (p *CIProvider) Name() string { return "ci" }

// Load layers defaults, the settings file and the process environment.
func (p *CIProvider) Load() (Deployment, error) {
	s, err := p.src.base()
	if err != nil {
		return Deployment{}, err
	}

	if err := applyEnv(&s, p.src.lookup); err != nil {
		return Deployment{}, err
	}

	d := New(s)
	d.source = p.Name()

	return d, nil
}

// LocalProvider reads the settings file, a .env file and the process environment, in
// increasing precedence. The .env file is parsed without touching the process environment.
type LocalProvider struct {
	src sources
}

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider(opts ...Option) *LocalProvider {
	return &LocalProvider{src: newSources(opts)}
}

// Name returns "local".
func (p *LocalProvider) Name() string { return "local" }

// Load layers defaults, the settings file, the .env file and the process environment.
func (p *LocalProvider) Load() (Deployment, error) {
	s, err := p.src.base()
	if err != nil {
		return Deployment{}, err
	}

	if p.src.envFile != "" {
		vars, err := godotenv.Read(p.src.envFile)
		switch {
		case err == nil:
			if err := applyEnv(&s, mapLookup(vars)); err != nil {
				return Deployment{}, fmt.Errorf("%s: %w", p.src.envFile, err)
			}
		case p.src.envRequired || !os.IsNotExist(err):
			return Deployment{}, fmt.Errorf("cannot read env file %s: %w", p.src.envFile, err)
		}
	}

	if err := applyEnv(&s, p.src.lookup); err != nil {
		return Deployment{}, err
	}

	d := New(s)
	d.source = p.Name()

	return d, nil
}

// Resolver picks the CI provider inside a CI job and the local provider elsewhere, then
// validates the result.
type Resolver struct {
	CI    Provider
	Local Provider
	IsCI  func() bool
}

// NewResolver wires both providers to the same sources. CI detection reads the lookup
// given by WithLookup, or the process environment.
func NewResolver(opts ...Option) *Resolver {
	src := newSources(opts)

	return &Resolver{
		CI:    NewCIProvider(opts...),
		Local: NewLocalProvider(opts...),
		IsCI:  func() bool { return DetectCI(src.lookup) },
	}
}

// Provider returns the provider Resolve will use.
func (r *Resolver) Provider() Provider {
	isCI := r.IsCI
	if isCI == nil {
		isCI = func() bool { return DetectCI(os.LookupEnv) }
	}

	if isCI() {
		return r.CI
	}

	return r.Local
}

// Resolve loads and validates the deployment. Every validation failure is a *shipit.ConfigError.
func (r *Resolver) Resolve() (Deployment, error) {
	p := r.Provider()

	d, err := p.Load()
	if err != nil {
		return Deployment{}, fmt.Errorf("%s configuration: %w", p.Name(), err)
	}

	if err := d.Validate(); err != nil {
		return Deployment{}, err
	}

	return d, nil
}
