package shipit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "''"},
		{name: "plain word", in: "composer", want: "composer"},
		{name: "path", in: "/var/www/html", want: "/var/www/html"},
		{name: "flag with value", in: "--prefer-dist", want: "--prefer-dist"},
		{name: "space", in: "hello world", want: "'hello world'"},
		{name: "semicolon", in: "hello;whoami", want: "'hello;whoami'"},
		{name: "embedded single quote", in: "it's", want: `'it'\''s'`},
		{name: "pipe", in: "foo|bar", want: "'foo|bar'"},
		{name: "backticks", in: "`whoami`", want: "'`whoami`'"},
		{name: "dollar", in: "$HOME", want: "'$HOME'"},
		{name: "glob", in: "*.log", want: "'*.log'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Quote(tt.in))
		})
	}
}

func TestEnvPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  []string
		want string
	}{
		{name: "empty", env: nil, want: ""},
		{name: "posix_basic", env: []string{"FOO=bar", "BAZ=qux"}, want: "export FOO='bar'; export BAZ='qux'; "},
		{name: "posix_escaping", env: []string{"MSG=don't stop"}, want: `export MSG='don'\''t stop'; `},
		{name: "malformed_skipped", env: []string{"INVALID"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, envPrefix(tt.env))
		})
	}
}

func TestDirPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{name: "empty", dir: "", want: ""},
		{name: "posix_basic", dir: "/tmp/test", want: "cd '/tmp/test' && "},
		{name: "posix_escaping", dir: "/tmp/O'Neil", want: `cd '/tmp/O'\''Neil' && `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dirPrefix(tt.dir))
		})
	}
}

func TestRemoteScript(t *testing.T) {
	t.Parallel()

	t.Run("shell script is passed as one word", func(t *testing.T) {
		t.Parallel()

		cmd := ShellCommand("cd /srv/app && git reset --hard origin/main")
		assert.Equal(t, "sh -c 'cd /srv/app && git reset --hard origin/main'", RemoteScript(cmd))
	})

	t.Run("env and dir", func(t *testing.T) {
		t.Parallel()

		cmd := NewCommand("echo", "hello")
		cmd.Dir = "/tmp"
		cmd.Env = []string{"A=B"}

		assert.Equal(t, "export A='B'; cd '/tmp' && echo hello", RemoteScript(cmd))
	})

	t.Run("injection stays quoted", func(t *testing.T) {
		t.Parallel()

		cmd := NewCommand("echo", "hello; whoami")
		assert.Equal(t, "echo 'hello; whoami'", RemoteScript(cmd))
	})
}
