package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"creekwatch/internal/creek"
)

var checkMetric string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the latest readings against the EPA screening threshold",
	Long: `List the sites whose most recent reading exceeds the screening threshold
for a metric, worst first. A reading exactly at the threshold passes.
Results are returned as JSON.

Examples:
  creekwatch check
  creekwatch check --metric turbidity`,
	Run: func(cmd *cobra.Command, args []string) {
		metric, ok := creek.NormalizeMetric(checkMetric)
		if !ok {
			HandleError(fmt.Errorf("unknown metric %q", checkMetric), "Invalid metric")
		}
		std, _ := creek.StandardFor(metric)

		store, cleanup, err := InitStore(dataDir)
		if err != nil {
			HandleError(err, "Failed to open dataset")
		}
		defer cleanup()

		latest, err := store.LatestAll()
		if err != nil {
			HandleError(err, "Failed to load latest readings")
		}

		exceedances := creek.ExceedingSites(latest, std)
		if exceedances == nil {
			exceedances = []creek.Exceedance{}
		}

		output := map[string]interface{}{
			"metric":        metric,
			"label":         std.Label,
			"threshold":     std.Threshold,
			"unit":          std.Unit,
			"basis":         std.Basis,
			"health_note":   std.Note,
			"exceedances":   exceedances,
			"all_compliant": len(exceedances) == 0,
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkMetric, "metric", "m", "ecoli", "Metric to check (ecoli, ph, turbidity)")
	rootCmd.AddCommand(checkCmd)
}
