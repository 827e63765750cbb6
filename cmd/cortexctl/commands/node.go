// Package commands provides node management command definitions for cortexctl.
//
// NODE COMMANDS:
//   - ls: List all known sensor nodes with link state and latest readings
//   - info: Detailed information for a specific node by ID
//
// The ls command supports watch mode for real-time link monitoring.
package commands

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/logging"
	"github.com/spf13/cobra"
)

// Node command (parent command for node operations)
var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage and inspect sensor nodes",
	Long: `Commands for inspecting the sensor nodes known to a CORTEX hub.

A node is listed while its link session is up, and remembered afterwards
through its cached readings.`,
}

// Node list command
var nodeLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all known sensor nodes",
	Long: `List every node the hub knows about, with link state, signal
strength, session counters, and the latest sensor values.`,
	Example: `  # List all nodes
  cortexctl node ls

  # List nodes with live updates
  cortexctl node ls --watch

  # Show session counters too
  cortexctl --verbose node ls

  # Output in JSON format
  cortexctl -o json node ls`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// Node info command (detailed info for a specific node)
var nodeInfoCmd = &cobra.Command{
	Use:   "info <node-id>",
	Short: "Show detailed information for a specific node",
	Long: `Display everything the hub knows about one node: link session,
frame counters, and the full latest reading.`,
	Example: `  # Show info for node 7
  cortexctl node info 7

  # Output in JSON format
  cortexctl -o json node info 7`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			cmd.Help()
			fmt.Println()
			logging.Error("Invalid arguments: expected 1 node ID, got %d", len(args))
			return fmt.Errorf("requires exactly 1 argument (node ID)")
		}
		return nil
	},
	// RunE is assigned by the main package
}

// SetupNodeCommands initializes node commands
func SetupNodeCommands() {
	nodeCmd.AddCommand(nodeLsCmd)
	nodeCmd.AddCommand(nodeInfoCmd)
}

// GetNodeCommands returns the node command structures for handler assignment
func GetNodeCommands() (*cobra.Command, *cobra.Command) {
	return nodeLsCmd, nodeInfoCmd
}

// SetupNodeFlags configures flags for node commands
func SetupNodeFlags(nodeLsCmd *cobra.Command, watchPtr *bool) {
	nodeLsCmd.Flags().BoolVarP(watchPtr, "watch", "w", false,
		"Watch for changes and continuously update the display")
}
