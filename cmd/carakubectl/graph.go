package main

import (
	"github.com/spf13/cobra"
)

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the published topology graph",
		Long: `Show the nodes and links of the scanner's latest published graph.

Examples:
  # Show the graph as a table
  carakubectl graph

  # Full snapshot as JSON
  carakubectl graph -o json`,
		RunE: runGraph,
	}

	return cmd
}

func runGraph(cmd *cobra.Command, args []string) error {
	snap, err := getSnapshot()
	if err != nil {
		return err
	}

	result := GraphResult{
		Status:  snap.Status,
		Message: snap.Message,
	}
	if snap.Data != nil {
		result.Timestamp = snap.Data.Timestamp
		result.Nodes = snap.Data.Nodes
		for _, l := range snap.Data.Links {
			result.Links = append(result.Links, LinkInfo{
				Source: l.Source,
				Target: l.Target,
				Type:   string(l.Type),
			})
		}
	}

	return outputResult(result, outputFmt)
}
