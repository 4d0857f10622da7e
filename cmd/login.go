package cmd

import (
	"fmt"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/identity"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google and restore the API key saved for that account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.start(ctx, true); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.identity.AuthState() == identity.AuthDegraded {
				_, err := fmt.Fprintln(out, "Signed in, but your Google profile could not be loaded. Saved keys are unavailable until you sign in again.")
				return err
			}

			user := app.identity.Identity()
			if _, err := fmt.Fprintf(out, "Signed in as %s.\n", user.Email); err != nil {
				return err
			}
			if app.session.HasCredential() {
				_, err := fmt.Fprintln(out, "Saved API key restored.")
				return err
			}
			_, err := fmt.Fprintln(out, "No API key saved for this account yet. Run `summarizer key set --sign-in`.")
			return err
		},
	}
}
