package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"creekwatch/internal/creek"
)

var explainMetric string

var explainCmd = &cobra.Command{
	Use:   "explain [value]",
	Short: "Interpret a reading against the EPA screening table",
	Long: `Classify a reading as below, at, or above the screening threshold for a
metric and print the standard interpretation. This command only consults
the static screening table, so it works without the dataset.
Results are returned as JSON.

Examples:
  creekwatch explain 150
  creekwatch explain 8.9 --metric ph`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metric, ok := creek.NormalizeMetric(explainMetric)
		if !ok {
			HandleError(fmt.Errorf("unknown metric %q", explainMetric), "Invalid metric")
		}

		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			HandleError(fmt.Errorf("value must be a number, got %q", args[0]), "Invalid value")
		}

		std, _ := creek.StandardFor(metric)
		output := map[string]interface{}{
			"metric":      metric,
			"label":       std.Label,
			"value":       value,
			"unit":        std.Unit,
			"band":        std.Classify(value).String(),
			"threshold":   std.Threshold,
			"basis":       std.Basis,
			"explanation": std.Explain(value),
			"health_note": std.Note,
		}

		encoded, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	explainCmd.Flags().StringVarP(&explainMetric, "metric", "m", "ecoli", "Metric the value belongs to (ecoli, ph, turbidity)")
	rootCmd.AddCommand(explainCmd)
}
