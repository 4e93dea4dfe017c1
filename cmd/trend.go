package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"creekwatch/internal/agent"
	"creekwatch/internal/creek"
)

var (
	trendMetric string
	trendWeeks  int
)

var trendCmd = &cobra.Command{
	Use:   "trend [site]",
	Short: "Show how a metric moved at one site",
	Long: `Show a site's readings of one metric over a recent window and whether
they are rising, falling, or flat. The window is anchored at the site's
latest sample rather than today, so sparse data still produces a trend.
Results are returned as JSON.

Examples:
  creekwatch trend peav@oldb
  creekwatch trend "Old Briarcliff" --metric turbidity --weeks 12`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metric, ok := creek.NormalizeMetric(trendMetric)
		if !ok {
			HandleError(fmt.Errorf("unknown metric %q", trendMetric), "Invalid metric")
		}
		if trendWeeks <= 0 {
			HandleError(fmt.Errorf("weeks must be a positive integer, got %d", trendWeeks), "Invalid window")
		}

		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to open dataset")
		}
		defer cleanup()

		site, err := resolveSite(store, args[0])
		if err != nil {
			HandleError(err, "Unknown site")
		}

		std, _ := creek.StandardFor(metric)
		output := map[string]interface{}{
			"site":      site.Code,
			"name":      site.Name,
			"metric":    metric,
			"unit":      std.Unit,
			"weeks":     trendWeeks,
			"points":    []creek.TrendPoint{},
			"direction": creek.TrendFlat,
		}

		latest, err := store.LatestRecord(site.Code)
		if err != nil {
			HandleError(err, "Failed to load readings")
		}
		if latest != nil {
			end := latest.Timestamp
			start := end.AddDate(0, 0, -7*trendWeeks)
			records, err := store.RecordsInWindow(site.Code, start, end)
			if err != nil {
				HandleError(err, "Failed to load readings")
			}

			points := creek.TrendPoints(records, metric)
			output["direction"] = creek.DirectionOf(creek.PointValues(points))
			output["window"] = map[string]string{
				"start": start.Format("2006-01-02"),
				"end":   end.Format("2006-01-02"),
			}
			if points != nil {
				output["points"] = points
			}
			if len(points) > 1 {
				output["change"] = points[len(points)-1].Value - points[0].Value
			}
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	trendCmd.Flags().StringVarP(&trendMetric, "metric", "m", "ecoli", "Metric to trend (ecoli, ph, turbidity)")
	trendCmd.Flags().IntVarP(&trendWeeks, "weeks", "w", agent.DefaultTrendWeeks, "Window size in weeks, ending at the latest sample")
	rootCmd.AddCommand(trendCmd)
}
