package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the loaded dataset",
	Long: `Print dataset-wide aggregates: the number of sites and samples, the date
range covered, and the min/avg/max of each metric's latest readings.
Results are returned as JSON.

Examples:
  creekwatch summary`,
	Run: func(cmd *cobra.Command, args []string) {
		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to open dataset")
		}
		defer cleanup()

		summary, err := store.Summary()
		if err != nil {
			HandleError(err, "Failed to summarize dataset")
		}

		type metricOutput struct {
			Metric string   `json:"metric"`
			Min    *float64 `json:"min,omitempty"`
			Avg    *float64 `json:"avg,omitempty"`
			Max    *float64 `json:"max,omitempty"`
		}
		metrics := make([]metricOutput, 0, len(summary.Metrics))
		for i := range summary.Metrics {
			ms := &summary.Metrics[i]
			metrics = append(metrics, metricOutput{
				Metric: ms.Metric,
				Min:    nullableFloat(ms.Min),
				Avg:    nullableFloat(ms.Avg),
				Max:    nullableFloat(ms.Max),
			})
		}

		output := map[string]interface{}{
			"sites":      summary.Sites,
			"records":    summary.Records,
			"date_range": summary.DateRangeString(),
			"metrics":    metrics,
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
