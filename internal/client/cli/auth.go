package cli

import (
	"context"

	"github.com/dmitrijs2005/ideforge/internal/client/api"
	"github.com/dmitrijs2005/ideforge/internal/client/session"
	"github.com/spf13/cobra"
)

func newSignupCommand(app *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.authenticate(cmd.Context(), email, app.client.Signup)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newLoginCommand(app *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.authenticate(cmd.Context(), email, app.client.Login)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

type authFunc func(ctx context.Context, email, password string) (*api.AuthResponse, error)

func (a *App) authenticate(ctx context.Context, email string, fn authFunc) error {
	var err error
	if email == "" {
		email, err = GetSimpleText(a.in, "Enter email", a.out)
		if err != nil {
			return err
		}
	}
	password, err := GetPassword(a.in, a.out)
	if err != nil {
		return err
	}

	res, err := fn(ctx, email, password)
	if err != nil {
		return err
	}

	if err := a.store.Set(ctx, session.KeyToken, res.Token); err != nil {
		return err
	}
	if err := a.store.Set(ctx, session.KeyEmail, res.User.Email); err != nil {
		return err
	}
	a.client.SetToken(res.Token)

	a.printf("Logged in as %s\n", res.User.Email)
	return nil
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The token is stateless on the server; clearing it locally is
			// what matters, so an unreachable server is not an error.
			_ = app.client.Logout(cmd.Context())
			if err := app.store.Clear(cmd.Context()); err != nil {
				return err
			}
			app.printf("Logged out\n")
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.client.Me(cmd.Context())
			if err != nil {
				return sessionErr(err)
			}
			app.printf("%s (%s)", u.Email, u.ID)
			if u.CreatedAt != nil {
				app.printf(", member since %s", u.CreatedAt.Format("2006-01-02"))
			}
			app.printf("\n")
			return nil
		},
	}
}
