package transporttest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ruffel/shipit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteBase returns a per-test scratch directory on the target.
func remoteBase(t T) string {
	return "/tmp/shipit-test-" + strings.ReplaceAll(t.Name(), "/", "_")
}

func joinRemote(base string, parts ...string) string {
	return path.Join(append([]string{base}, parts...)...)
}

func exitScript(code int) string {
	return fmt.Sprintf("exit %d", code)
}

// readRemote returns the trimmed content of a file on the target.
func readRemote(t T, env shipit.Environment, file string) string {
	res, err := shipit.NewExecutor(env).RunBuffered(t.Context(), shipit.NewCommand("cat", file))
	require.NoError(t, err)

	return strings.TrimSpace(string(res.Stdout))
}

func cleanupRemote(t T, env shipit.Environment, dir string) {
	_, _ = shipit.NewExecutor(env).RunBuffered(t.Context(), shipit.NewCommand("rm", "-rf", dir))
}

const testPermissions = 0o600

//nolint:funlen // Contract registration function; length comes from many test cases.
func fileContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryFilesystem,
			Name:        "upload-failure-source-missing",
			Description: "Error returned when we try to upload a non-existent local file",
			Run: func(t T, env shipit.Environment) {
				src := filepath.Join(t.TempDir(), "this-file-really-does-not-exist-12345")
				dst := joinRemote(remoteBase(t), "should-not-exist-12345")

				err := env.Upload(t.Context(), src, dst)
				require.Error(t, err)
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-success-with-nested-dir",
			Description: "Successfully upload a single file to a nested directory structure that does not exist",
			Run: func(t T, env shipit.Environment) {
				content := "hello world from shipit"
				base := remoteBase(t)
				defer cleanupRemote(t, env, base)

				dstPath := joinRemote(base, "nested", "dir", "level1", "level2", "test.txt")
				srcPath := filepath.Join(t.TempDir(), "test.txt")
				require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

				require.NoError(t, env.Upload(t.Context(), srcPath, dstPath))

				assert.Equal(t, content, readRemote(t, env, dstPath))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-success-overwrite",
			Description: "Successfully upload a single file and overwrite existing content",
			Run: func(t T, env shipit.Environment) {
				base := remoteBase(t)
				defer cleanupRemote(t, env, base)

				dstPath := joinRemote(base, "test.txt")
				srcPath := filepath.Join(t.TempDir(), "test.txt")

				require.NoError(t, os.WriteFile(srcPath, []byte("initial content, somewhat longer"), 0o644))
				require.NoError(t, env.Upload(t.Context(), srcPath, dstPath))
				require.Equal(t, "initial content, somewhat longer", readRemote(t, env, dstPath))

				require.NoError(t, os.WriteFile(srcPath, []byte("updated"), 0o644))
				require.NoError(t, env.Upload(t.Context(), srcPath, dstPath))
				assert.Equal(t, "updated", readRemote(t, env, dstPath))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-recursive-directory",
			Description: "Successfully upload a directory tree, creating intermediate directories",
			Run: func(t T, env shipit.Environment) {
				base := remoteBase(t)
				defer cleanupRemote(t, env, base)

				srcDir := t.TempDir()
				require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "config", "nested"), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(srcDir, ".env"), []byte("APP_ENV=production"), 0o644))
				require.NoError(t, os.WriteFile(filepath.Join(srcDir, "config", "nested", "app.php"), []byte("<?php"), 0o644))

				dstDir := joinRemote(base, "release")
				require.NoError(t, env.Upload(t.Context(), srcDir, dstDir))

				assert.Equal(t, "APP_ENV=production", readRemote(t, env, joinRemote(dstDir, ".env")))
				assert.Equal(t, "<?php", readRemote(t, env, joinRemote(dstDir, "config", "nested", "app.php")))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-reports-progress",
			Description: "Upload reports the final byte count through WithProgress",
			Run: func(t T, env shipit.Environment) {
				content := "0123456789"
				base := remoteBase(t)
				defer cleanupRemote(t, env, base)

				srcPath := filepath.Join(t.TempDir(), "progress.txt")
				require.NoError(t, os.WriteFile(srcPath, []byte(content), 0o644))

				var last, total int64

				progress := shipit.WithProgress(func(current, size int64) {
					last, total = current, size
				})

				require.NoError(t, env.Upload(t.Context(), srcPath, joinRemote(base, "progress.txt"), progress))
				assert.Equal(t, int64(len(content)), last)
				assert.Equal(t, int64(len(content)), total)
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "upload-respects-permissions",
			Description: "Uploaded file has the mode set by WithPermissions",
			Run: func(t T, env shipit.Environment) {
				base := remoteBase(t)
				defer cleanupRemote(t, env, base)

				srcPath := filepath.Join(t.TempDir(), "secret.txt")
				require.NoError(t, os.WriteFile(srcPath, []byte("secret"), 0o644))

				dstPath := joinRemote(base, "secret.txt")
				require.NoError(t, env.Upload(t.Context(), srcPath, dstPath, shipit.WithPermissions(testPermissions)))

				// GNU and BSD stat disagree on flags; ls is portable enough for the owner bits.
				res, err := shipit.NewExecutor(env).RunBuffered(t.Context(), shipit.NewCommand("ls", "-l", dstPath))
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(string(res.Stdout), "-rw-------"), "mode: %s", res.Stdout)
			},
		},
	}
}
