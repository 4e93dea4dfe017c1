package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var siteFilter string

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the monitoring sites",
	Long: `List every monitoring site with its coordinates and sampling range.
Results are returned as JSON.

Examples:
  creekwatch sites
  creekwatch sites --filter peavine`,
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to open dataset")
		}
		defer cleanup()

		sites, err := store.Sites()
		if err != nil {
			HandleError(err, "Failed to list sites")
		}

		needle := strings.ToLower(strings.TrimSpace(siteFilter))
		output := make([]SiteInfo, 0, len(sites))
		for i := range sites {
			if needle != "" &&
				!strings.Contains(strings.ToLower(sites[i].Name), needle) &&
				!strings.Contains(strings.ToLower(sites[i].Code), needle) {
				continue
			}
			output = append(output, siteInfo(&sites[i]))
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	sitesCmd.Flags().StringVarP(&siteFilter, "filter", "f", "", "Only list sites whose name or code contains this text")
	rootCmd.AddCommand(sitesCmd)
}
