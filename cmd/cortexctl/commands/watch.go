// Package commands provides the live telemetry stream command for cortexctl.
package commands

import (
	"github.com/spf13/cobra"
)

// Watch command streams readings from the hub IPC port
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live readings from the hub",
	Long: `Subscribe to the hub's IPC port and print each reading as it is
ingested, one JSON line per reading. Reconnects automatically when the hub
restarts; stop with Ctrl+C.`,
	Example: `  # Stream everything
  cortexctl watch

  # Stream only node 7
  cortexctl watch --node 7

  # Stream from a remote hub
  cortexctl watch --ipc 192.168.1.50:6789

  # Pipe into jq
  cortexctl watch | jq .temp_c`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// GetWatchCommand returns the watch command for handler assignment
func GetWatchCommand() *cobra.Command {
	return watchCmd
}

// SetupWatchFlags configures flags for the watch command
func SetupWatchFlags(watchCmd *cobra.Command, ipcAddrPtr *string, nodePtr *string, defaultIPCAddr string) {
	watchCmd.Flags().StringVar(ipcAddrPtr, "ipc", defaultIPCAddr,
		"Hub IPC stream address")
	watchCmd.Flags().StringVar(nodePtr, "node", "",
		"Only show readings from this node ID")
}
