// Package commands provides the hub info command definition for cortexctl.
package commands

import (
	"github.com/spf13/cobra"
)

// Info command shows hub-wide status
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show hub status and mood",
	Long: `Display hub-wide information including health, version, uptime,
stored reading counts, and the hub's current personality state.`,
	Example: `  # Show hub information
  cortexctl info

  # Show info from a remote hub
  cortexctl --api=192.168.1.50:7420 info

  # Output in JSON format
  cortexctl -o json info`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// GetInfoCommand returns the info command for handler assignment
func GetInfoCommand() *cobra.Command {
	return infoCmd
}
