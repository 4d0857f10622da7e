package cmd

import (
	"fmt"
	"io"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/config"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/orchestrator"
	"github.com/spf13/cobra"
)

type statusView struct {
	Provider       string   `json:"provider"`
	Language       string   `json:"language"`
	SignIn         string   `json:"sign_in"`
	DrivePicker    string   `json:"drive_picker"`
	AuthState      string   `json:"auth_state"`
	APIKey         string   `json:"api_key"`
	Storage        string   `json:"storage"`
	SupportedLangs []string `json:"supported_languages"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and saved-key status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.start(ctx, false); err != nil {
				return err
			}
			app.identity.WaitInitialized(ctx)

			status := app.session.Status()
			view := statusView{
				Provider:    app.cfg.Provider,
				Language:    orchestrator.ResolveLanguage(app.cfg.Language),
				SignIn:      string(status.InitState),
				DrivePicker: configuredLabel(app.cfg.PickerConfigured()),
				AuthState:   string(status.AuthState),
				APIKey:      "not set",
				Storage:     app.cfg.StoreDir,
			}
			if status.HasCredential {
				view.APIKey = "saved"
			}
			if app.cfg.Ephemeral {
				view.Storage = "memory (this session only)"
			}
			for _, lang := range orchestrator.SupportedLanguages {
				view.SupportedLangs = append(view.SupportedLangs, lang.Value)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return writeStatus(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured (set " + config.PlaceholderPrefix + " values in your config)"
}

func writeStatus(w io.Writer, view statusView) error {
	_, err := fmt.Fprintf(w,
		"provider: %s\nlanguage: %s\nsign-in: %s\ndrive picker: %s\nauth: %s\napi key: %s\nstorage: %s\n",
		view.Provider,
		view.Language,
		view.SignIn,
		view.DrivePicker,
		view.AuthState,
		view.APIKey,
		view.Storage,
	)
	return err
}
