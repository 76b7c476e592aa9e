package transporttest

import (
	"os"
	"path/filepath"

	"github.com/ruffel/shipit"
	"github.com/stretchr/testify/require"
)

func environmentContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryEnvironment,
			Name:        "close-idempotent",
			Description: "Closing an environment multiple times is deterministic and non-fatal",
			Run: func(t T, env shipit.Environment) {
				require.NoError(t, env.Close())
				require.NoError(t, env.Close())
			},
		},
		{
			Category:    CategoryEnvironment,
			Name:        "close-post-run-fails",
			Description: "Run fails deterministically after environment close",
			Run: func(t T, env shipit.Environment) {
				require.NoError(t, env.Close())

				_, err := env.Run(t.Context(), shipit.ShellCommand("echo shipit-contract"))
				require.ErrorIs(t, err, shipit.ErrEnvironmentClosed)
			},
		},
		{
			Category:    CategoryEnvironment,
			Name:        "close-post-upload-fails",
			Description: "Upload fails deterministically after environment close",
			Run: func(t T, env shipit.Environment) {
				src := filepath.Join(t.TempDir(), "close-upload-src.txt")
				require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

				require.NoError(t, env.Close())

				err := env.Upload(t.Context(), src, joinRemote(remoteBase(t), "close-upload-dst.txt"))
				require.ErrorIs(t, err, shipit.ErrEnvironmentClosed)
			},
		},
	}
}
