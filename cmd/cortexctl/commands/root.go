// Package commands provides the complete command tree implementation for cortexctl.
//
// This package defines the hierarchical command structure for the CORTEX CLI
// tool, organized into resource groups that match the hub's capabilities.
//
// COMMAND STRUCTURE:
//   - node: Node discovery and link inspection (ls, info)
//   - room: Room-level analytics (occupancy, spatial, forecast)
//   - personality: Hub mood management (get, set)
//   - calibration: Cross-node offset management (ls, run)
//   - hub: Federation membership (ls)
//   - last / history: Telemetry queries
//   - watch: Live telemetry stream over the hub IPC port
//   - replay: Push captured telemetry frames back through a hub
//
// All commands follow consistent patterns with standardized flag handling,
// error messages, and output formatting.
package commands

import (
	"github.com/spf13/cobra"
)

// Root command
var RootCmd = &cobra.Command{
	Use:   "cortexctl",
	Short: "CLI tool for CORTEX ambient sensing hubs",
	Long: `CORTEX CLI (cortexctl) is a command-line tool for inspecting and
managing a CORTEX hub and the sensor nodes linked to it.

It talks to the hub's REST API for queries and state changes, and to the
hub's IPC port for live telemetry streaming.`,
	SilenceUsage: true,
	Example: `  # Show hub information
  cortexctl info

  # List sensor nodes
  cortexctl node ls

  # Watch nodes with live updates
  cortexctl node ls --watch

  # Latest reading per node
  cortexctl last

  # Stored history for node 7
  cortexctl history --node 7 --limit 50

  # Room analytics
  cortexctl room occupancy
  cortexctl room forecast --node 7 --metric temp_c --threshold 28

  # Stream live telemetry
  cortexctl watch

  # Connect to a remote hub
  cortexctl --api=192.168.1.50:7420 node ls

  # Output in JSON format
  cortexctl -o json last`,
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(nodeCmd)
	RootCmd.AddCommand(lastCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(roomCmd)
	RootCmd.AddCommand(personalityCmd)
	RootCmd.AddCommand(calibrationCmd)
	RootCmd.AddCommand(hubCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(replayCmd)
}

// SetupGlobalFlags configures all global persistent flags
func SetupGlobalFlags(rootCmd *cobra.Command, apiAddrPtr *string, logLevelPtr *string,
	timeoutPtr *int, verbosePtr *bool, outputPtr *string, defaultAPIAddr string) {
	rootCmd.PersistentFlags().StringVar(apiAddrPtr, "api", defaultAPIAddr,
		"Hub API address")
	rootCmd.PersistentFlags().StringVar(logLevelPtr, "log-level", "ERROR",
		"Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().IntVar(timeoutPtr, "timeout", 8,
		"Connection timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(verbosePtr, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVarP(outputPtr, "output", "o", "table",
		"Output format: table, json")
}
