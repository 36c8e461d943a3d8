package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SamuelLess/carakube/internal/types"
)

func findingsCmd() *cobra.Command {
	var severity string
	var namespace string

	cmd := &cobra.Command{
		Use:   "findings",
		Short: "List security findings from the latest scan",
		Long: `List all security findings attached to nodes in the published graph.

Examples:
  # All findings
  carakubectl findings

  # Only critical findings
  carakubectl findings --severity critical

  # Findings in one namespace
  carakubectl findings -n production -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFindings(severity, namespace)
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity: info, low, medium, high, critical")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Filter by namespace")

	return cmd
}

func runFindings(severity, namespace string) error {
	snap, err := getSnapshot()
	if err != nil {
		return err
	}

	result := FindingsResult{Status: snap.Status, Findings: []FindingRow{}}
	if snap.Data == nil {
		return outputResult(result, outputFmt)
	}

	severity = strings.ToLower(severity)
	for _, n := range snap.Data.Nodes {
		if namespace != "" && n.Namespace != namespace {
			continue
		}
		for _, f := range n.Findings {
			if severity != "" && string(f.Severity) != severity {
				continue
			}
			result.Findings = append(result.Findings, FindingRow{
				Node:      n.ID,
				Kind:      n.Type,
				Namespace: n.Namespace,
				Type:      string(f.Type),
				Severity:  string(f.Severity),
				Detail:    findingDetail(f),
			})
		}
	}
	result.Total = len(result.Findings)

	return outputResult(result, outputFmt)
}

// findingDetail picks the most useful evidence field for table display.
func findingDetail(f types.Finding) string {
	switch {
	case f.Container != "" && f.Image != "":
		return fmt.Sprintf("%s (%s)", f.Container, f.Image)
	case f.Container != "":
		return f.Container
	case f.RoleName != "":
		return f.RoleName
	case f.Path != "":
		return f.Path
	case len(f.Ports) > 0:
		return fmt.Sprintf("ports %v", f.Ports)
	case f.ServiceAccount != "":
		return f.ServiceAccount
	default:
		return f.Description
	}
}
