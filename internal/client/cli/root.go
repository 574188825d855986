package cli

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/ideforge/internal/client/api"
	"github.com/dmitrijs2005/ideforge/internal/client/config"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in, run `ideforge login` first")

// Execute runs the command line in args against cfg.
func Execute(ctx context.Context, cfg *config.Config, args []string, in io.Reader, out, errOut io.Writer) error {
	app := NewApp(cfg, in, out)
	defer app.Close()

	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	return root.ExecuteContext(ctx)
}

// sessionErr turns a 401 on an authenticated call into a hint to log in.
func sessionErr(err error) error {
	if api.IsUnauthorized(err) {
		return errNotLoggedIn
	}
	return err
}

func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		server     string
		sessionDB  string
	)

	root := &cobra.Command{
		Use:           "ideforge",
		Short:         "Describe a project, get questions back, and provision a cloud IDE for it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := app.config.ApplyFile(configPath); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				app.config.ServerURL = server
			}
			if flags.Changed("session") {
				app.config.SessionPath = sessionDB
			}
			return app.open(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to a JSON or YAML config file")
	pf.StringVarP(&server, "server", "a", app.config.ServerURL, "ideforge server URL")
	pf.StringVarP(&sessionDB, "session", "s", app.config.SessionPath, "session database path")

	root.AddCommand(
		newSignupCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newProjectsCommand(app),
		newPlanCommand(app),
		newFlowCommand(app),
	)
	return root
}
