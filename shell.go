package shipit

import (
	"fmt"
	"strings"
)

// Quote returns s as a single POSIX shell word.
// Words made only of safe characters are returned unchanged; everything else is wrapped in
// single quotes with embedded quotes rendered as '\''.
func Quote(s string) string {
	if s == "" {
		return "''"
	}

	safe := true

	for _, r := range s {
		if !isSafeShellRune(r) {
			safe = false

			break
		}
	}

	if safe {
		return s
	}

	return singleQuote(s)
}

func isSafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("-_./=:,+@%", r):
		return true
	default:
		return false
	}
}

// RemoteScript renders cmd as a single string for a remote login shell.
// Format: [exports] [cd dir &&] cmd args...
//
// OpenSSH defaults PermitUserEnvironment=no, so environment variables are exported inline
// instead of being sent with the session.
func RemoteScript(cmd *Command) string {
	return envPrefix(cmd.Env) + dirPrefix(cmd.Dir) + cmd.String()
}

func envPrefix(envVars []string) string {
	var b strings.Builder

	for _, env := range envVars {
		k, v, found := strings.Cut(env, "=")
		if !found {
			continue
		}

		fmt.Fprintf(&b, "export %s=%s; ", k, singleQuote(v))
	}

	return b.String()
}

func dirPrefix(dir string) string {
	if dir == "" {
		return ""
	}

	return "cd " + singleQuote(dir) + " && "
}

// singleQuote always quotes, unlike Quote.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
