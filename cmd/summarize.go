package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/picker"
	"github.com/spf13/cobra"
)

type summarizeFlags struct {
	language string
	drive    bool
	signIn   bool
	key      string
	asJSON   bool
}

func newSummarizeCmd(app *app) *cobra.Command {
	flags := summarizeFlags{}

	cmd := &cobra.Command{
		Use:   "summarize [audio-file]",
		Short: "Summarize an audio file and suggest replies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 && !flags.drive {
				return errors.New("pass an audio file or use --drive")
			}

			if err := app.start(ctx, flags.signIn || flags.drive); err != nil {
				return err
			}
			if flags.key != "" {
				if err := app.session.UseCredential(flags.key); err != nil {
					return userError(ctx, err)
				}
			}

			if flags.drive {
				app.picker.Initialize(ctx)
				app.picker.WaitInitialized(ctx)
				if _, err := app.orchestrator.SelectRemote(ctx); err != nil {
					if errors.Is(err, picker.ErrCancelled) {
						_, werr := fmt.Fprintln(cmd.ErrOrStderr(), "No file selected.")
						return werr
					}
					return userError(ctx, err)
				}
			} else if _, err := app.orchestrator.SelectLocal(ctx, args[0]); err != nil {
				return userError(ctx, err)
			}

			language := flags.language
			if language == "" {
				language = app.cfg.Language
			}
			result, err := app.orchestrator.Submit(ctx, language)
			if err != nil {
				return userError(ctx, err)
			}

			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeSummary(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&flags.language, "language", "l", "", "Language for the summary and replies (default from config, English)")
	cmd.Flags().BoolVar(&flags.drive, "drive", false, "Pick the audio file from Google Drive (signs in first)")
	cmd.Flags().BoolVar(&flags.signIn, "sign-in", false, "Sign in with Google to use the key saved for your account")
	cmd.Flags().StringVar(&flags.key, "key", "", "API key to use for this run only")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func writeSummary(w io.Writer, result model.SummaryResult) error {
	if _, err := fmt.Fprintf(w, "Summary\n%s\n\nSuggested Replies\n", result.Summary); err != nil {
		return err
	}
	for i, reply := range result.Replies {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, reply); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
