// Package commands provides federation command definitions for cortexctl.
package commands

import (
	"github.com/spf13/cobra"
)

// Hub command (parent command for federation operations)
var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Inspect the hub federation",
	Long: `Commands for the gossip federation between hubs. Multi-room
deployments run one hub per room; federation lets each hub see the others.`,
}

// Hub list command
var hubLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List federated hubs",
	Example: `  # List hubs in the federation
  cortexctl hub ls

  # Output in JSON format
  cortexctl -o json hub ls`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// SetupHubCommands initializes hub commands
func SetupHubCommands() {
	hubCmd.AddCommand(hubLsCmd)
}

// GetHubCommands returns the hub commands for handler assignment
func GetHubCommands() *cobra.Command {
	return hubLsCmd
}
