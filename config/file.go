package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is read when present and no other settings file is named.
const DefaultSettingsFile = "shipit.yaml"

// fileSettings is the on-disk schema of the settings file.
// Credentials are deliberately absent; they come from the environment.
type fileSettings struct {
	Server struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Path     string `yaml:"path"`
	} `yaml:"server"`
	Repository struct {
		Branch string `yaml:"branch"`
	} `yaml:"repository"`
	Steps map[string]bool `yaml:"steps"`
	Hooks struct {
		Before []string `yaml:"before"`
		After  []string `yaml:"after"`
	} `yaml:"hooks"`
	Permissions struct {
		Files          string `yaml:"files"`
		Directories    string `yaml:"directories"`
		Storage        string `yaml:"storage"`
		BootstrapCache string `yaml:"bootstrap_cache"`
	} `yaml:"permissions"`
	Uploads []struct {
		Source string `yaml:"source"`
		Target string `yaml:"target"`
	} `yaml:"uploads"`
	Transport string `yaml:"transport"`
	Timeouts  struct {
		Command string `yaml:"command"`
		Probe   string `yaml:"probe"`
		Connect string `yaml:"connect"`
	} `yaml:"timeouts"`
	KeepAlive string `yaml:"keep_alive"`
}

// readSettingsFile decodes path. A missing file yields (nil, nil) unless required.
func readSettingsFile(path string, required bool) (*fileSettings, error) {
	if path == "" {
		return nil, nil //nolint:nilnil // no file configured
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil, nil //nolint:nilnil // optional file absent
		}

		return nil, fmt.Errorf("cannot open settings file: %w", err)
	}

	defer func() { _ = f.Close() }()

	var fs fileSettings

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&fs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
	}

	return &fs, nil
}

// apply layers the non-empty values of the file over s.
func (fs *fileSettings) apply(s *Settings) error {
	setString(&s.Host, fs.Server.Host)
	setString(&s.Username, fs.Server.Username)
	setString(&s.Path, fs.Server.Path)
	setString(&s.Branch, fs.Repository.Branch)
	setString(&s.Permissions.Files, fs.Permissions.Files)
	setString(&s.Permissions.Directories, fs.Permissions.Directories)
	setString(&s.Permissions.Storage, fs.Permissions.Storage)
	setString(&s.Permissions.BootstrapCache, fs.Permissions.BootstrapCache)

	if fs.Server.Port != 0 {
		s.Port = fs.Server.Port
	}

	if fs.Transport != "" {
		s.Transport = Transport(strings.ToLower(fs.Transport))
	}

	for name, enabled := range fs.Steps {
		step, err := ParseStepName(name)
		if err != nil {
			return invalid("steps."+name, "is not a known step")
		}

		s.Steps = s.Steps.Set(step, enabled)
	}

	if fs.Hooks.Before != nil {
		s.BeforeHooks = fs.Hooks.Before
	}

	if fs.Hooks.After != nil {
		s.AfterHooks = fs.Hooks.After
	}

	for _, u := range fs.Uploads {
		s.Uploads = append(s.Uploads, Upload{Source: u.Source, Target: u.Target})
	}

	durations := []struct {
		field string
		value string
		dst   *time.Duration
	}{
		{"timeouts.command", fs.Timeouts.Command, &s.Timeouts.Command},
		{"timeouts.probe", fs.Timeouts.Probe, &s.Timeouts.Probe},
		{"timeouts.connect", fs.Timeouts.Connect, &s.Timeouts.Connect},
		{"keep_alive", fs.KeepAlive, &s.KeepAlive},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.field, d.value); err != nil {
			return err
		}
	}

	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// setDuration accepts Go durations ("90s", "2m") and bare integers as seconds.
func setDuration(dst *time.Duration, field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second

		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return invalid(field, fmt.Sprintf("is not a duration: %q", v))
	}

	*dst = d

	return nil
}
