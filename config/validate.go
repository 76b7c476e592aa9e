package config

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/fileutil"
)

var modePattern = regexp.MustCompile(`^[0-7]{3,4}$`)

// Validate checks the snapshot and returns the first problem as a *shipit.ConfigError.
func (d Deployment) Validate() error {
	s := d.s

	required := []struct {
		field string
		value string
	}{
		{"host", s.Host},
		{"username", s.Username},
		{"private key", s.PrivateKey},
		{"path", s.Path},
		{"branch", s.Branch},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invalid(r.field, "is required")
		}
	}

	if s.Port < 1 || s.Port > 65535 {
		return invalid("port", fmt.Sprintf("must be between 1 and 65535, got %d", s.Port))
	}

	if !path.IsAbs(s.Path) {
		return invalid("path", fmt.Sprintf("must be absolute, got %q", s.Path))
	}

	if strings.HasPrefix(s.Branch, "-") {
		return invalid("branch", fmt.Sprintf("must not start with '-', got %q", s.Branch))
	}

	modes := []struct {
		field string
		value string
	}{
		{"permissions.files", s.Permissions.Files},
		{"permissions.directories", s.Permissions.Directories},
		{"permissions.storage", s.Permissions.Storage},
		{"permissions.bootstrap_cache", s.Permissions.BootstrapCache},
	}
	for _, m := range modes {
		if !modePattern.MatchString(m.value) {
			return invalid(m.field, fmt.Sprintf("must be an octal mode like 755, got %q", m.value))
		}
	}

	if err := validateHooks("hooks.before", s.BeforeHooks); err != nil {
		return err
	}

	if err := validateHooks("hooks.after", s.AfterHooks); err != nil {
		return err
	}

	for i, u := range s.Uploads {
		field := fmt.Sprintf("uploads[%d]", i)

		if strings.TrimSpace(u.Source) == "" {
			return invalid(field+".source", "is required")
		}

		if strings.TrimSpace(u.Target) == "" {
			return invalid(field+".target", "is required")
		}

		if err := fileutil.CheckRemotePathTraversal(s.Path, u.RemotePath(s.Path)); err != nil {
			return invalid(field+".target", err.Error())
		}
	}

	switch s.Transport {
	case TransportOpenSSH, TransportNative:
	default:
		return invalid("transport", fmt.Sprintf("must be %q or %q, got %q", TransportOpenSSH, TransportNative, s.Transport))
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"timeouts.command", s.Timeouts.Command},
		{"timeouts.probe", s.Timeouts.Probe},
		{"timeouts.connect", s.Timeouts.Connect},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return invalid(t.field, "must be positive")
		}
	}

	if s.KeepAlive < 0 {
		return invalid("keep_alive", "must not be negative")
	}

	return nil
}

func validateHooks(field string, hooks []string) error {
	for i, hook := range hooks {
		// sh -c accepts a comment-only script as a no-op.
		if strings.HasPrefix(strings.TrimSpace(hook), "#") {
			continue
		}

		if _, err := shipit.ParseCommand(hook); err != nil {
			return invalid(fmt.Sprintf("%s[%d]", field, i), err.Error())
		}
	}

	return nil
}

func invalid(field, reason string) error {
	return &shipit.ConfigError{Field: field, Reason: reason}
}
