package cmd

import (
	"github.com/Nephrolytics-ai/audio-summarizer/internal/version"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(app *app) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the summarize_audio tool over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.start(ctx, false); err != nil {
				return err
			}
			if key != "" {
				if err := app.session.UseCredential(key); err != nil {
					return userError(ctx, err)
				}
			}
			return mcpserver.New(app.session, app.summarizer, version.Version).ServeStdio()
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key to use instead of the saved one")

	return cmd
}
