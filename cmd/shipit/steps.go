package main

import (
	"fmt"

	"github.com/ruffel/shipit/config"
	"github.com/spf13/cobra"
)

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the deployment steps in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			defaults := config.DefaultSteps()

			fmt.Fprintln(out, titleStyle.Render("Deployment steps (in execution order)"))

			for i, step := range config.AllSteps() {
				state := mutedStyle.Render("off")
				if defaults.Has(step) {
					state = checkStyle.Render("on ")
				}

				fmt.Fprintf(out, "%d. %-22s %s  %s\n", i+1, step, state, step.Command())
			}

			return nil
		},
	}
}
