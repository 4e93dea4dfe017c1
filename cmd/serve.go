package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	port     int
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long: `Start the HTTP web server with the HTMX dashboard.

The dashboard shows the latest readings for every monitoring site and a chat
panel backed by the same assistant as the TUI, plus JSON API endpoints.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to run the server on")
}

func runServe() {
	fmt.Printf("Starting CreekWatch web server...\n")
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Printf("Port: %d\n\n", port)

	if err := StartServer(dataDir, port); err != nil {
		log.Fatalf("Server failed: %v\n", err)
	}
}

// StartServer is set by main package
var StartServer func(dataDir string, port int) error
