package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var queryString string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the dataset (DuckDB SQL)",
	Long: `Execute the requested QUERY against the in-memory DuckDB database built
from the dataset. The query can be any valid DuckDB SQL, including SELECT,
DESCRIBE, SHOW TABLES, etc. The tables are sites and measurements.

Examples:
  creekwatch query --sql "SELECT * FROM measurements LIMIT 5"
  creekwatch query --sql "SELECT site, COUNT(*) AS n FROM measurements GROUP BY site"
  creekwatch query --sql "SHOW TABLES"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryString == "" {
			HandleError(fmt.Errorf("query is required"), "Missing query parameter")
		}

		rows, err := RunQuery(dataDir, queryString)
		if err != nil {
			HandleError(err, "Failed to execute query")
		}

		encoded, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			HandleError(err, "Failed to encode JSON")
		}

		fmt.Println(string(encoded))
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryString, "sql", "q", "", "SQL query to execute (required)")
	_ = queryCmd.MarkFlagRequired("sql")
	rootCmd.AddCommand(queryCmd)
}
