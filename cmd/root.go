package cmd

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	envFile    string
	logLevel   string
	ephemeral  bool
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd(opts ...wireOption) *cobra.Command {
	flags := &rootFlags{}
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "summarizer",
		Short:         "Summarize audio messages and suggest quick replies",
		Long:          "summarizer sends an audio file (local or from Google Drive) to a generative model and prints a short summary plus three suggested replies in the language of your choice.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			wired, err := wireApp(cmd, *flags, opts...)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Config file (toml, yaml or json)")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Env file to load before reading SUMMARIZER_* variables (default .env if present)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.ephemeral, "ephemeral", false, "Keep API keys in memory only for this run")

	rootCmd.AddCommand(
		newVersionCmd(),
		newSummarizeCmd(app),
		newKeyCmd(app),
		newLoginCmd(app),
		newStatusCmd(app),
		newMCPCmd(app),
	)

	return rootCmd
}
