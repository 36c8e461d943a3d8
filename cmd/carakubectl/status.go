package main

import (
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show scanner status and aggregate counts",
		Long: `Show the scanner's publication status and aggregate graph counts.

Examples:
  # Show status
  carakubectl status

  # Output as JSON
  carakubectl status -o json`,
		RunE: runStatus,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	snap, err := getSnapshot()
	if err != nil {
		return err
	}

	result := StatusResult{
		Status:  snap.Status,
		Message: snap.Message,
	}
	if snap.Data != nil {
		result.Timestamp = snap.Data.Timestamp
		result.TotalNodes = snap.Data.Stats.TotalNodes
		result.TotalLinks = snap.Data.Stats.TotalLinks
		result.NodeTypes = make(map[string]int)
		for kind, count := range snap.Data.Stats.NodeTypes {
			result.NodeTypes[string(kind)] = count
		}
		result.Severities = make(map[string]int)
		for _, n := range snap.Data.Nodes {
			for _, f := range n.Findings {
				result.Findings++
				result.Severities[string(f.Severity)]++
			}
		}
	}

	return outputResult(result, outputFmt)
}
