package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var siteCmd = &cobra.Command{
	Use:   "site [site]",
	Short: "Show one site's details and sample history",
	Long: `Show a monitoring site's metadata and every sample taken there, oldest
first. The site can be named by its code, its full name, or a unique
fragment of the name. Results are returned as JSON.

Examples:
  creekwatch site peav@oldb
  creekwatch site "Old Briarcliff"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to open dataset")
		}
		defer cleanup()

		site, err := resolveSite(store, args[0])
		if err != nil {
			HandleError(err, "Unknown site")
		}

		records, err := store.RecordsForSite(site.Code)
		if err != nil {
			HandleError(err, "Failed to load samples")
		}

		samples := make([]SampleInfo, len(records))
		for i := range records {
			samples[i] = sampleInfo(&records[i])
		}

		output := struct {
			Site    SiteInfo     `json:"site"`
			Samples []SampleInfo `json:"samples"`
		}{
			Site:    siteInfo(site),
			Samples: samples,
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	rootCmd.AddCommand(siteCmd)
}
