// carakubectl is a CLI tool for querying a running Carakube scanner.
//
// Installation:
//
//	go build -o carakubectl ./cmd/carakubectl
//	mv carakubectl /usr/local/bin/
//
// Usage:
//
//	carakubectl status
//	carakubectl graph
//	carakubectl findings --severity high
//	carakubectl scan
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	outputFmt  string
	serverAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carakubectl",
		Short: "Query the Carakube cluster security scanner",
		Long: `carakubectl is a CLI tool for interacting with a Carakube scanner.

It queries the scanner's HTTP API and renders the published topology
graph, security findings, and scan status.`,
		Version: version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVarP(&serverAddr, "server", "s", "http://localhost:8080", "Scanner API base URL")

	// Add subcommands
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(findingsCmd())
	rootCmd.AddCommand(scanCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
