package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"creekwatch/internal/creek"
)

var (
	compareMetric string
	compareSites  string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank sites by the latest reading of a metric",
	Long: `Rank the monitoring sites by their most recent reading of a metric,
highest first. Results are returned as JSON.

Examples:
  creekwatch compare
  creekwatch compare --metric turbidity
  creekwatch compare --sites peav@ndec,peav@oldb`,
	Run: func(cmd *cobra.Command, args []string) {
		metric, ok := creek.NormalizeMetric(compareMetric)
		if !ok {
			HandleError(fmt.Errorf("unknown metric %q", compareMetric), "Invalid metric")
		}

		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to open dataset")
		}
		defer cleanup()

		var include, unknown []string
		if compareSites != "" {
			all, err := store.Sites()
			if err != nil {
				HandleError(err, "Failed to list sites")
			}
			for _, q := range strings.Split(compareSites, ",") {
				q = strings.TrimSpace(q)
				if q == "" {
					continue
				}
				if s, found := creek.ResolveSite(all, q); found {
					include = append(include, s.Code)
				} else {
					unknown = append(unknown, q)
				}
			}
		}

		latest, err := store.LatestAll()
		if err != nil {
			HandleError(err, "Failed to load latest readings")
		}

		ranking, missing := creek.RankByMetric(latest, metric, include)
		if ranking == nil {
			ranking = []creek.RankedSite{}
		}

		std, _ := creek.StandardFor(metric)
		output := map[string]interface{}{
			"metric":        metric,
			"unit":          std.Unit,
			"ranking":       ranking,
			"missing":       missing,
			"unknown_sites": unknown,
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	compareCmd.Flags().StringVarP(&compareMetric, "metric", "m", "ecoli", "Metric to rank by (ecoli, ph, turbidity)")
	compareCmd.Flags().StringVarP(&compareSites, "sites", "s", "", "Comma-separated sites to compare (default: all)")
	rootCmd.AddCommand(compareCmd)
}
