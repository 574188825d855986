package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/spf13/cobra"
)

func newProjectsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List your projects, newest first",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				projects, err := app.client.ListProjects(cmd.Context())
				if err != nil {
					return sessionErr(err)
				}
				app.printProjects(projects)
				return nil
			},
		},
		&cobra.Command{
			Use:   "create <name> <description...>",
			Short: "Create a project in the provisioning state",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := app.client.CreateProject(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return sessionErr(err)
				}
				app.printf("Created project %s\n", p.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := app.client.GetProject(cmd.Context(), args[0])
				if err != nil {
					return sessionErr(err)
				}
				app.printProject(p)
				return nil
			},
		},
		&cobra.Command{
			Use:     "delete <id>",
			Aliases: []string{"rm"},
			Short:   "Delete a project",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := app.client.DeleteProject(cmd.Context(), args[0]); err != nil {
					return sessionErr(err)
				}
				app.printf("Deleted project %s\n", args[0])
				return nil
			},
		},
		newProvisionCommand(app),
		&cobra.Command{
			Use:   "terminate <id>",
			Short: "Terminate the project's IDE instance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := app.client.TerminateProject(cmd.Context(), args[0])
				if err != nil {
					return sessionErr(err)
				}
				if !res.Success {
					return fmt.Errorf("termination failed: %s", res.Error)
				}
				app.printf("Terminated (%d project(s) updated)\n", res.Updated)
				return nil
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Probe active instances and mark unreachable ones terminated",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := app.client.SyncProjects(cmd.Context())
				if err != nil {
					return sessionErr(err)
				}
				app.printf("Synced %d project(s)\n", res.Synced)
				for _, e := range res.Errors {
					app.printf("  error: %s\n", e)
				}
				return nil
			},
		},
	)
	return cmd
}

func newProvisionCommand(app *App) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "provision <id>",
		Short: "Provision a cloud IDE for the project and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.printf("Provisioning, this can take a few minutes...\n")
			res, err := app.client.ProvisionProject(cmd.Context(), args[0], prompt)
			if err != nil {
				return sessionErr(err)
			}
			if !res.Success {
				msg := res.Error
				if res.Retryable {
					msg += " (retryable)"
				}
				return fmt.Errorf("provisioning failed: %s", msg)
			}
			app.printf("IDE ready: %s\n", res.URL)
			app.printf("Instance:  %s\n", res.InstanceID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "instructions for the workflow (defaults to the description)")
	return cmd
}

func (a *App) printProjects(projects []*models.Project) {
	if len(projects) == 0 {
		a.printf("No projects yet\n")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tURL")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Status, deref(p.URL))
	}
	_ = tw.Flush()
}

func (a *App) printProject(p *models.Project) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "Status:\t%s\n", p.Status)
	fmt.Fprintf(tw, "URL:\t%s\n", deref(p.URL))
	fmt.Fprintf(tw, "Instance:\t%s\n", deref(p.InstanceID))
	fmt.Fprintf(tw, "Created:\t%s\n", p.CreatedAt.Format("2006-01-02 15:04"))
	_ = tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
