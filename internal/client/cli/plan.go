package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPlanCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <idea...>",
		Short: "Ask the LLM for clarifying questions about a project idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.client.Plan(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return sessionErr(err)
			}
			app.printf("%s\n\n", plan.Analysis)
			for i, q := range plan.Questions {
				app.printf("%d. %s\n", i+1, q.Question)
				for _, o := range q.Options {
					app.printf("   - %s\n", o)
				}
			}
			return nil
		},
	}
}

func newFlowCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Talk to the workflow engine directly",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run <message...>",
		Short: "Send a message to the message flow and print its reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.client.RunFlow(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return sessionErr(err)
			}
			if !res.Success {
				return fmt.Errorf("flow failed: %s", res.Error)
			}
			app.printf("%s\n", res.Message)
			return nil
		},
	})
	return cmd
}
