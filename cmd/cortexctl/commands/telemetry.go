// Package commands provides telemetry query command definitions for cortexctl.
package commands

import (
	"github.com/spf13/cobra"
)

// Last command shows the latest reading per node
var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the latest reading from every node",
	Long: `Display the most recent reading per node from the hub's live cache.

Values already include any calibration offsets the hub applies at ingest.`,
	Example: `  # Latest reading per node
  cortexctl last

  # Output in JSON format
  cortexctl -o json last`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// History command queries stored readings
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query stored readings, newest first",
	Long: `Query the hub's reading archive with optional node, time, and
count filters. Results are ordered newest first.`,
	Example: `  # Last 100 readings across all nodes
  cortexctl history

  # Last 50 readings from node 7
  cortexctl history --node 7 --limit 50

  # Readings since a point in time
  cortexctl history --since 2026-08-28T06:00:00Z

  # Output in JSON format
  cortexctl -o json history --node 7`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// GetTelemetryCommands returns the telemetry commands for handler assignment
func GetTelemetryCommands() (*cobra.Command, *cobra.Command) {
	return lastCmd, historyCmd
}

// SetupHistoryFlags configures flags for the history command
func SetupHistoryFlags(historyCmd *cobra.Command, nodePtr *string, sincePtr *string, limitPtr *int) {
	historyCmd.Flags().StringVar(nodePtr, "node", "",
		"Filter by node ID (0-254)")
	historyCmd.Flags().StringVar(sincePtr, "since", "",
		"Only readings at or after this RFC 3339 timestamp")
	historyCmd.Flags().IntVar(limitPtr, "limit", 0,
		"Maximum readings to return (1-1000, hub default 100)")
}
