package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant one question about the creek",
	Long: `Ask a natural language question about the monitoring data and print the
assistant's answer. The assistant reads the same dataset as the TUI and the
web dashboard.

Requires the API key for the configured provider (OPENAI_API_KEY unless
CREEKWATCH_PROVIDER says otherwise).

Examples:
  creekwatch ask "which site had the worst E. coli reading?"
  creekwatch ask "is the creek within the EPA limit for E. coli?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := strings.Join(args, " ")

		answer, err := AskQuestion(dataDir, question)
		if err != nil {
			HandleError(err, "Failed to answer question")
		}

		fmt.Println(answer)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
