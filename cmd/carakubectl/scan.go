package main

import (
	"github.com/spf13/cobra"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Trigger an immediate scan pass",
		Long: `Request the scanner to run a scan pass now instead of waiting for
the next interval. The scanner rate limits triggers.

Examples:
  carakubectl scan`,
		RunE: runScan,
	}

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	triggered, message, err := triggerScanFunc()
	if err != nil {
		return err
	}

	return outputResult(ScanResult{Triggered: triggered, Message: message}, outputFmt)
}
