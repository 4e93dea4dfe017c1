package cmd

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the dataset files",
	Long: `Download the monitoring spreadsheets from the published GitHub repository
into the data directory. Files already present are left alone.

Set GITHUB_TOKEN to raise the API rate limit; anonymous access works too.

Examples:
  creekwatch fetch
  creekwatch fetch --data-dir ./creekdata`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := FetchData(dataDir); err != nil {
			HandleError(err, "Failed to download dataset")
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
