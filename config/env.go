package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables recognised by both providers.
const (
	EnvHost      = "DO_HOST"
	EnvPort      = "DO_PORT"
	EnvUsername  = "DO_USERNAME"
	EnvPath      = "DO_PATH"
	EnvSSHKey    = "DO_SSH_KEY"
	EnvBranch    = "DO_BRANCH"
	EnvTransport = "SHIPIT_TRANSPORT"
)

// LookupFunc reads one variable, reporting whether it is set. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// mapLookup adapts a parsed .env file.
func mapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// applyEnv layers the variables over s. Variables set to the empty string are ignored,
// since CI systems expand unset secrets to "".
func applyEnv(s *Settings, lookup LookupFunc) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	setString(&s.Host, get(EnvHost))
	setString(&s.Username, get(EnvUsername))
	setString(&s.Path, get(EnvPath))
	setString(&s.Branch, get(EnvBranch))

	// Key material is kept verbatim; decoding strips whitespace itself.
	if v, _ := lookup(EnvSSHKey); strings.TrimSpace(v) != "" {
		s.PrivateKey = v
	}

	if v := get(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return invalid(EnvPort, fmt.Sprintf("must be a number, got %q", v))
		}

		s.Port = port
	}

	if v := get(EnvTransport); v != "" {
		s.Transport = Transport(strings.ToLower(v))
	}

	return nil
}

var ciMarkers = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "CIRCLECI"}

// DetectCI reports whether lookup describes a CI job. A marker counts when it is set to
// anything other than an empty or false-like value.
func DetectCI(lookup LookupFunc) bool {
	for _, key := range ciMarkers {
		v, ok := lookup(key)
		if !ok {
			continue
		}

		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if b, err := strconv.ParseBool(v); err == nil && !b {
			continue
		}

		return true
	}

	return false
}
