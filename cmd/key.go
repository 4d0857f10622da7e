package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newKeyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the saved API key",
	}

	cmd.AddCommand(newKeySetCmd(app), newKeyClearCmd(app))

	return cmd
}

func newKeySetCmd(app *app) *cobra.Command {
	var signIn bool

	cmd := &cobra.Command{
		Use:   "set [api-key]",
		Short: "Save an API key (for your Google account when signed in, otherwise for this device)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.start(ctx, signIn); err != nil {
				return err
			}

			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				if _, err := fmt.Fprint(cmd.ErrOrStderr(), "API key: "); err != nil {
					return err
				}
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					key = scanner.Text()
				}
			}

			if err := app.session.SaveCredential(ctx, strings.TrimSpace(key)); err != nil {
				return userError(ctx, err)
			}

			scope := "this device"
			if user := app.identity.Identity(); user != nil {
				scope = user.Email
			}
			if app.cfg.Ephemeral {
				scope += " (this session only)"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "API key saved for %s.\n", scope)
			return err
		},
	}

	cmd.Flags().BoolVar(&signIn, "sign-in", false, "Sign in with Google and save the key for that account")

	return cmd
}

func newKeyClearCmd(app *app) *cobra.Command {
	var signIn bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove saved API keys and sign out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.start(ctx, signIn); err != nil {
				return err
			}
			if err := app.orchestrator.Reset(ctx); err != nil {
				return userError(ctx, err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Saved API keys removed.")
			return err
		},
	}

	cmd.Flags().BoolVar(&signIn, "sign-in", false, "Sign in with Google to also remove the key saved for that account")

	return cmd
}
