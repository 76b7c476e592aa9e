package transporttest

import (
	"strings"

	"github.com/ruffel/shipit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category: CategoryCore,
			Name:     "simple-echo",
			Run: func(t T, env shipit.Environment) {
				exec := shipit.NewExecutor(env)
				result, err := exec.RunBuffered(t.Context(), shipit.NewCommand("echo", "hello"))
				require.NoError(t, err)
				require.NotNil(t, result)

				assert.Equal(t, "hello", strings.TrimSpace(string(result.Stdout)))
				assert.Equal(t, 0, result.ExitCode)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "shell-chain",
			Description: "A && chain runs in order in one shell and reports every line",
			Run: func(t T, env shipit.Environment) {
				exec := shipit.NewExecutor(env)

				res, err := exec.RunShell(t.Context(), "echo one && echo two && echo three")
				require.NoError(t, err)
				assert.Equal(t, []string{"one", "two", "three"}, res.Lines())
			},
		},
		{
			Category:    CategoryCore,
			Name:        "shell-chain-stops-on-failure",
			Description: "A failing link in a && chain prevents the rest from running",
			Run: func(t T, env shipit.Environment) {
				exec := shipit.NewExecutor(env)

				res, err := exec.RunShell(t.Context(), "echo one && false && echo never")
				require.Error(t, err)
				assert.Equal(t, []string{"one"}, res.Lines())
			},
		},
		{
			Category:    CategoryCore,
			Name:        "working-directory",
			Description: "Command.Dir is honoured",
			Run: func(t T, env shipit.Environment) {
				exec := shipit.NewExecutor(env)

				res, err := exec.RunBuffered(t.Context(), shipit.Cmd("pwd").Dir("/").Build())
				require.NoError(t, err)
				assert.Equal(t, []string{"/"}, res.Lines())
			},
		},
		{
			Category:    CategoryCore,
			Name:        "environment-variables",
			Description: "Command.Env reaches the process, including quotes",
			Run: func(t T, env shipit.Environment) {
				exec := shipit.NewExecutor(env)

				cmd := shipit.Cmd("sh").Args("-c", `echo "$SHIPIT_CONTRACT"`).Env("SHIPIT_CONTRACT", "it's here").Build()

				res, err := exec.RunBuffered(t.Context(), cmd)
				require.NoError(t, err)
				assert.Equal(t, []string{"it's here"}, res.Lines())
			},
		},
		{
			Category:    CategoryCore,
			Name:        "arguments-are-not-reinterpreted",
			Description: "Arguments with shell metacharacters arrive verbatim",
			Run: func(t T, env shipit.Environment) {
				exec := shipit.NewExecutor(env)

				res, err := exec.RunBuffered(t.Context(), shipit.NewCommand("echo", "a;b", "$HOME", "`x`"))
				require.NoError(t, err)
				assert.Equal(t, []string{"a;b $HOME `x`"}, res.Lines())
			},
		},
	}
}
