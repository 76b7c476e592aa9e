package transporttest

import (
	"context"
	"time"

	"github.com/ruffel/shipit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	runExitErrorCode = 13
	timeoutLimit     = 300 * time.Millisecond
)

func errorContracts() []TestCase {
	return []TestCase{
		runNonZeroReturnsCommandErrorContract(),
		executorAttachesStderrContract(),
		timeoutReturnsTimeoutErrorContract(),
	}
}

func runNonZeroReturnsCommandErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "run-nonzero-returns-commanderror",
		Description: "Run non-zero failures must return *shipit.CommandError",
		Run: func(t T, env shipit.Environment) {
			_, err := env.Run(t.Context(), shipit.ShellCommand(exitScript(runExitErrorCode)))
			require.Error(t, err)

			var cmdErr *shipit.CommandError
			require.ErrorAs(t, err, &cmdErr)
			require.Equal(t, runExitErrorCode, cmdErr.ExitCode)
		},
	}
}

func executorAttachesStderrContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "executor-attaches-stderr",
		Description: "The Executor attaches captured stderr to *shipit.CommandError",
		Run: func(t T, env shipit.Environment) {
			_, err := shipit.NewExecutor(env).RunShell(t.Context(), "echo broken >&2; exit 4")

			var cmdErr *shipit.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, 4, cmdErr.ExitCode)
			assert.Equal(t, "broken\n", string(cmdErr.Stderr))
			assert.Contains(t, shipit.Diagnostic(err), "broken")
		},
	}
}

func timeoutReturnsTimeoutErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "timeout-returns-timeouterror",
		Description: "A command outliving its timeout is stopped and reported as *shipit.TimeoutError",
		Run: func(t T, env shipit.Environment) {
			start := time.Now()

			_, err := shipit.NewExecutor(env).RunShell(t.Context(), "sleep 30", shipit.WithTimeout(timeoutLimit))

			var timeoutErr *shipit.TimeoutError
			require.ErrorAs(t, err, &timeoutErr)
			require.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Equal(t, timeoutLimit, timeoutErr.Timeout)
			assert.Less(t, time.Since(start), 15*time.Second)
		},
	}
}
