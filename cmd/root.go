package cmd

import (
	"github.com/spf13/cobra"
)

var (
	dataDir string
	rootCmd = &cobra.Command{
		Use:   "creekwatch",
		Short: "CreekWatch - Explore creek water quality data",
		Long: `CreekWatch is a CLI/TUI application for exploring the Peavine Creek
volunteer monitoring dataset and asking questions about it in plain English.

When run without commands, it launches an interactive chat TUI.
Use subcommands for CLI mode with JSON output.`,
		Run: func(cmd *cobra.Command, args []string) {
			// No subcommand specified - launch TUI
			LaunchTUI(dataDir)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "data/", "Directory containing the dataset CSV files")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
