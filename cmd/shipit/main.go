// Command shipit deploys a PHP application to a server over SSH.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errDeployFailed is returned after the failure has already been printed.
var errDeployFailed = errors.New("deployment failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errDeployFailed) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		}

		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shipit",
		Short:         "Deploy an application to a server over SSH",
		Long:          `Syncs a git checkout on the server, runs the enabled build steps and fixes permissions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newDeployCmd(), newKeygenCmd(), newStepsCmd())

	return rootCmd
}
