package ssh

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ruffel/shipit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// echoHandler writes the received command line to stdout; "fail" exits 3 with a stderr line.
func echoHandler(command string, ch ssh.Channel) uint32 {
	if strings.Contains(command, "fail") {
		_, _ = fmt.Fprintln(ch.Stderr(), "fatal: something broke")

		return 3
	}

	_, _ = fmt.Fprintln(ch, command)

	return 0
}

func TestEnvironment_Run(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)

	env, err := New(WithConfig(srv.config()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = env.Close() })

	t.Run("success sends the quoted script", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer

		cmd := shipit.Cmd("git").Args("reset", "--hard", "origin/main").Dir("/var/www/html").Stdout(&stdout).Build()

		res, err := env.Run(t.Context(), cmd)
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "cd '/var/www/html' && git reset --hard origin/main\n", stdout.String())
	})

	t.Run("non-zero exit is a CommandError", func(t *testing.T) {
		t.Parallel()

		exec := shipit.NewExecutor(env)

		res, err := exec.RunShell(t.Context(), "fail now")
		require.Error(t, err)

		var cmdErr *shipit.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, 3, cmdErr.ExitCode)
		assert.Equal(t, "fatal: something broke\n", string(cmdErr.Stderr))
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("executor shell lines", func(t *testing.T) {
		t.Parallel()

		exec := shipit.NewExecutor(env)

		res, err := exec.RunShell(t.Context(), "echo ok")
		require.NoError(t, err)
		assert.Equal(t, []string{"sh -c 'echo ok'"}, res.Lines())
	})
}

func TestEnvironment_ContextCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	srv := newTestServer(t, func(_ string, _ ssh.Channel) uint32 {
		select {
		case <-release:
		case <-time.After(30 * time.Second):
		}

		return 0
	})

	env, err := New(WithConfig(srv.config()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = env.Close() })

	exec := shipit.NewExecutor(env)

	start := time.Now()
	_, err = exec.RunShell(t.Context(), "sleep 600", shipit.WithTimeout(200*time.Millisecond))
	require.Error(t, err)

	var timeoutErr *shipit.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestEnvironment_Closed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)

	env, err := New(WithConfig(srv.config()))
	require.NoError(t, err)
	require.NoError(t, env.Close())
	require.NoError(t, env.Close())

	_, err = env.Run(t.Context(), shipit.NewCommand("true"))
	require.ErrorIs(t, err, shipit.ErrEnvironmentClosed)

	err = env.Upload(t.Context(), "a", "b")
	require.ErrorIs(t, err, shipit.ErrEnvironmentClosed)
}

func TestEnvironment_KeepAlive(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)

	cfg := srv.config()
	cfg.KeepAlive = 10 * time.Millisecond

	env, err := New(WithConfig(cfg))
	require.NoError(t, err)

	t.Cleanup(func() { _ = env.Close() })

	time.Sleep(100 * time.Millisecond)

	_, err = env.Run(t.Context(), shipit.NewCommand("true"))
	require.NoError(t, err)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithHost("example.com"))
		require.Error(t, err)
	})

	t.Run("wrong host key is a transport error", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, echoHandler)
		other := newTestServer(t, echoHandler)

		cfg := srv.config()
		cfg.HostKeyCheck = ssh.FixedHostKey(other.hostKey.PublicKey())

		_, err := New(WithConfig(cfg))

		var transportErr *shipit.TransportError
		require.ErrorAs(t, err, &transportErr)
	})

	t.Run("canceled dial", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, echoHandler)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := NewContext(ctx, WithConfig(srv.config()))

		var transportErr *shipit.TransportError
		require.ErrorAs(t, err, &transportErr)
	})
}

func TestEnvironment_Upload(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, echoHandler)

	env, err := New(WithConfig(srv.config()))
	require.NoError(t, err)

	t.Cleanup(func() { _ = env.Close() })

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, ".env"), []byte("APP_ENV=production\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "public", "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "public", "build", "app.js"), []byte("console.log(1)"), 0o644))

	remote := t.TempDir()

	t.Run("single file into missing parents", func(t *testing.T) {
		t.Parallel()

		dst := filepath.Join(remote, "file", "nested", ".env")

		var last int64

		err := env.Upload(t.Context(), filepath.Join(src, ".env"), dst,
			shipit.WithPermissions(0o640),
			shipit.WithProgress(func(current, _ int64) { last = current }))
		require.NoError(t, err)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "APP_ENV=production\n", string(got))
		assert.Equal(t, int64(len(got)), last)

		info, err := os.Stat(dst)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	})

	t.Run("directory", func(t *testing.T) {
		t.Parallel()

		dst := filepath.Join(remote, "dir")

		require.NoError(t, env.Upload(t.Context(), src, dst))

		got, err := os.ReadFile(filepath.Join(dst, "public", "build", "app.js"))
		require.NoError(t, err)
		assert.Equal(t, "console.log(1)", string(got))
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		err := env.Upload(t.Context(), filepath.Join(src, "nope"), filepath.Join(remote, "nope"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
