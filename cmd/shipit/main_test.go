package main

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestStepsCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "steps")
	require.NoError(t, err)

	composer := strings.Index(out, "composer_install")
	build := strings.Index(out, "npm_build")
	views := strings.Index(out, "artisan_view_cache")

	require.NotEqual(t, -1, composer)
	assert.Less(t, composer, build)
	assert.Less(t, build, views)
	assert.Contains(t, out, "php artisan migrate --force")
}

func TestKeygenCommand(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "ssh", "id_deploy")

	_, err := execute(t, "keygen", "--path", keyPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--generate")

	out, err := execute(t, "keygen", "--path", keyPath, "--generate", "--comment", "ci@example.com")
	require.NoError(t, err)

	key, err := os.ReadFile(keyPath)
	require.NoError(t, err)

	pub, err := os.ReadFile(keyPath + ".pub")
	require.NoError(t, err)

	assert.Contains(t, out, base64.StdEncoding.EncodeToString(key))
	assert.Contains(t, out, strings.TrimSpace(string(pub)))
	assert.Contains(t, string(pub), "ci@example.com")

	// A second run prints the existing key instead of replacing it.
	again, err := execute(t, "keygen", "--path", keyPath, "--generate")
	require.NoError(t, err)
	assert.NotContains(t, again, "Generated")
	assert.Contains(t, again, base64.StdEncoding.EncodeToString(key))
}

func TestKeygenCommand_DerivesMissingPublicKey(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "id_deploy")

	_, err := execute(t, "keygen", "--path", keyPath, "--generate")
	require.NoError(t, err)

	pub, err := os.ReadFile(keyPath + ".pub")
	require.NoError(t, err)
	require.NoError(t, os.Remove(keyPath+".pub"))

	out, err := execute(t, "keygen", "--path", keyPath)
	require.NoError(t, err)

	// The derived line carries no comment, so compare the key material only.
	fields := strings.Fields(string(pub))
	assert.Contains(t, out, fields[0]+" "+fields[1])
}

// clearEnv blanks the deployment and CI variables so the local provider is picked.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"DO_HOST", "DO_USERNAME", "DO_SSH_KEY",
		"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "CIRCLECI",
	} {
		t.Setenv(key, "")
	}
}

func TestDeployCommand_ConfigFailure(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	settings := filepath.Join(dir, "shipit.yaml")
	envFile := filepath.Join(dir, ".env")
	logFile := filepath.Join(dir, "logs", "deploy.log")

	require.NoError(t, os.WriteFile(settings, []byte("server:\n  username: deploy\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile, []byte("DO_SSH_KEY=a2V5\n"), 0o600))

	out, err := execute(t, "deploy",
		"--config", settings,
		"--env-file", envFile,
		"--log-file", logFile,
		"--log-format", "json",
		"--run-dir", filepath.Join(dir, "runs"),
	)
	require.ErrorIs(t, err, errDeployFailed)
	assert.Contains(t, out, "Deployment failed")
	assert.Contains(t, out, "host is required")
	assert.Contains(t, out, "--verbose")
	assert.NotContains(t, out, "ignored in CI")

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), `"stage":"validating"`)
	assert.Contains(t, string(logs), `"msg":"stage failed"`)
}

func TestDeployCommand_EnvFileIgnoredInCI(t *testing.T) {
	clearEnv(t)
	t.Setenv("CI", "true")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DO_HOST=203.0.113.10\n"), 0o600))

	out, err := execute(t, "deploy",
		"--config", "",
		"--env-file", envFile,
		"--log-file", "",
		"--run-dir", filepath.Join(dir, "runs"),
	)
	require.ErrorIs(t, err, errDeployFailed)
	assert.Contains(t, out, "--env-file is ignored in CI")
	assert.Contains(t, out, "host is required", "the .env value must not be read")
}

func TestDeployCommand_BadFlags(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "deploy", "--log-format", "xml", "--log-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")

	_, err = execute(t, "deploy", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-file", "")
	require.ErrorIs(t, err, os.ErrNotExist)
}
