package deploy

import (
	"runtime"
	"testing"
	"time"

	"github.com/ruffel/shipit"
	"github.com/ruffel/shipit/providers/local"
	"github.com/ruffel/shipit/providers/mock"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticTarget struct {
	env shipit.Environment
}

func (s staticTarget) Environment() (shipit.Environment, error) {
	if s.env == nil {
		return nil, shipit.ErrNotConnected
	}

	return s.env, nil
}

func collect(lines *[]string) *Reporter {
	return NewReporter(func(line string) { *lines = append(*lines, line) }, nil)
}

func TestCommandRunner_Remote(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnCommand("sh -c 'cd /srv && php artisan migrate --force'").
		Run(mock.WriteStdout("Migrating\nDone\n")).
		Return(mock.Exit(0), nil).
		Once()

	var lines []string

	runner := NewCommandRunner(nil, staticTarget{env}, collect(&lines))

	res, err := runner.Remote(t.Context(), "cd /srv && php artisan migrate --force", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, []string{"  Migrating", "  Done"}, lines)

	env.AssertExpectations(t)
}

func TestCommandRunner_RemoteFailure(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.OnCommand("sh -c 'npm run build'").
		Run(func(args testifymock.Arguments) {
			mock.WriteStdout("> vite build\n")(args)
			mock.WriteStderr("error: out of memory\n")(args)
		}).
		Return(mock.Exit(137), nil)

	var lines []string

	runner := NewCommandRunner(nil, staticTarget{env}, collect(&lines))

	_, err := runner.Remote(t.Context(), "npm run build", time.Minute)

	var cmdErr *shipit.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 137, cmdErr.ExitCode)
	assert.Equal(t, "error: out of memory\n", string(cmdErr.Stderr))
	assert.Equal(t, []string{"  > vite build"}, lines, "stdout is forwarded even on failure")
}

func TestCommandRunner_NotConnected(t *testing.T) {
	t.Parallel()

	runner := NewCommandRunner(nil, staticTarget{}, nil)

	_, err := runner.Remote(t.Context(), "true", time.Second)
	require.ErrorIs(t, err, shipit.ErrNotConnected)

	err = runner.Upload(t.Context(), ".env", "/srv/.env")
	require.ErrorIs(t, err, shipit.ErrNotConnected)
}

func TestCommandRunner_Upload(t *testing.T) {
	t.Parallel()

	env := mock.New()
	env.On("Upload", testifymock.Anything, ".env.production", "/srv/.env", testifymock.Anything).Return(nil).Once()

	runner := NewCommandRunner(nil, staticTarget{env}, nil)

	require.NoError(t, runner.Upload(t.Context(), ".env.production", "/srv/.env"))
	env.AssertExpectations(t)
}

func TestCommandRunner_Local(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("hooks use POSIX shell syntax")
	}

	env, err := local.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = env.Close() })

	var lines []string

	runner := NewCommandRunner(env, staticTarget{}, collect(&lines))

	_, err = runner.Local(t.Context(), "echo one && echo two", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"  one", "  two"}, lines)

	_, err = runner.Local(t.Context(), "echo bad >&2; exit 3", time.Minute)

	var cmdErr *shipit.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "bad\n", string(cmdErr.Stderr))

	_, err = runner.Local(t.Context(), "sleep 30", 200*time.Millisecond)

	var timeoutErr *shipit.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 200*time.Millisecond, timeoutErr.Timeout)
}
