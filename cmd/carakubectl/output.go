package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"sigs.k8s.io/yaml"
)

// GraphResult is the result of the graph command.
type GraphResult struct {
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp string     `json:"timestamp,omitempty"`
	Nodes     []WireNode `json:"nodes,omitempty"`
	Links     []LinkInfo `json:"links,omitempty"`
}

// LinkInfo is one rendered edge.
type LinkInfo struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// FindingRow is one finding with its owning node.
type FindingRow struct {
	Node      string `json:"node"`
	Kind      string `json:"kind"`
	Namespace string `json:"namespace,omitempty"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Detail    string `json:"detail,omitempty"`
}

// FindingsResult is the result of the findings command.
type FindingsResult struct {
	Status   string       `json:"status"`
	Total    int          `json:"total"`
	Findings []FindingRow `json:"findings"`
}

// StatusResult is the result of the status command.
type StatusResult struct {
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	TotalNodes int            `json:"totalNodes"`
	TotalLinks int            `json:"totalLinks"`
	NodeTypes  map[string]int `json:"nodeTypes,omitempty"`
	Findings   int            `json:"findings"`
	Severities map[string]int `json:"severities,omitempty"`
}

// ScanResult is the result of the scan command.
type ScanResult struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message,omitempty"`
}

// outputResult outputs the result in the specified format.
func outputResult(result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(result)
	case "yaml":
		return outputYAML(result)
	default:
		return outputTable(result)
	}
}

func outputJSON(result interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(result interface{}) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func outputTable(result interface{}) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case GraphResult:
		return outputGraphTable(w, r)
	case FindingsResult:
		return outputFindingsTable(w, r)
	case StatusResult:
		return outputStatusTable(w, r)
	case ScanResult:
		return outputScanTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(result)
	}
}

func outputGraphTable(w *tabwriter.Writer, r GraphResult) error {
	fmt.Fprintf(w, "STATUS\t%s\n", r.Status)
	if r.Message != "" {
		fmt.Fprintf(w, "MESSAGE\t%s\n", r.Message)
	}
	if r.Timestamp != "" {
		fmt.Fprintf(w, "TIMESTAMP\t%s\n", r.Timestamp)
	}

	if len(r.Nodes) > 0 {
		fmt.Fprintln(w, "\nID\tTYPE\tNAMESPACE\tSTATUS\tFINDINGS")
		for _, n := range r.Nodes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				n.ID, n.Type, n.Namespace, n.Status, len(n.Findings))
		}
	}

	if len(r.Links) > 0 {
		fmt.Fprintln(w, "\nSOURCE\tTYPE\tTARGET")
		for _, l := range r.Links {
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.Source, l.Type, l.Target)
		}
	}

	return nil
}

func outputFindingsTable(w *tabwriter.Writer, r FindingsResult) error {
	fmt.Fprintf(w, "STATUS\t%s\n", r.Status)
	fmt.Fprintf(w, "TOTAL\t%d\n\n", r.Total)

	if len(r.Findings) > 0 {
		fmt.Fprintln(w, "NODE\tTYPE\tSEVERITY\tDETAIL")
		for _, f := range r.Findings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Node, f.Type, f.Severity, f.Detail)
		}
	}

	return nil
}

func outputStatusTable(w *tabwriter.Writer, r StatusResult) error {
	fmt.Fprintf(w, "STATUS\t%s\n", r.Status)
	if r.Message != "" {
		fmt.Fprintf(w, "MESSAGE\t%s\n", r.Message)
	}
	if r.Timestamp != "" {
		fmt.Fprintf(w, "TIMESTAMP\t%s\n", r.Timestamp)
	}
	fmt.Fprintf(w, "NODES\t%d\n", r.TotalNodes)
	fmt.Fprintf(w, "LINKS\t%d\n", r.TotalLinks)
	fmt.Fprintf(w, "FINDINGS\t%d\n", r.Findings)

	if len(r.Severities) > 0 {
		fmt.Fprintln(w, "\nSEVERITY\tCOUNT")
		for _, sev := range []string{"critical", "high", "medium", "low", "info"} {
			if count, ok := r.Severities[sev]; ok {
				fmt.Fprintf(w, "%s\t%d\n", sev, count)
			}
		}
	}

	return nil
}

func outputScanTable(w *tabwriter.Writer, r ScanResult) error {
	if r.Triggered {
		fmt.Fprintln(w, "Scan triggered")
	} else {
		fmt.Fprintf(w, "Scan not triggered: %s\n", r.Message)
	}
	return nil
}
