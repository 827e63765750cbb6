// Package commands provides the frame replay command for cortexctl.
package commands

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/logging"
	"github.com/spf13/cobra"
)

// Replay command pushes captured frames through a hub link
var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Replay captured telemetry frames into a hub",
	Long: `Open a node link to a hub and replay telemetry frames from a capture
file, one hex-encoded 44-byte frame per line. Blank lines and lines starting
with '#' are skipped.

Frames are sent exactly as captured, so corrupted frames exercise the hub's
CRC handling the same way a flaky radio would. The replayed node identifies
itself with the node ID found in the first intact frame.`,
	Example: `  # Replay a capture at 10 frames per second
  cortexctl replay bedroom.ctx --interval 100

  # Replay into a remote hub with a specific signal strength
  cortexctl replay bedroom.ctx --hub 192.168.1.50:7421 --rssi -72`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			cmd.Help()
			fmt.Println()
			logging.Error("Invalid arguments: expected 1 capture file, got %d", len(args))
			return fmt.Errorf("requires exactly 1 argument (capture file)")
		}
		return nil
	},
	// RunE is assigned by the main package
}

// GetReplayCommand returns the replay command for handler assignment
func GetReplayCommand() *cobra.Command {
	return replayCmd
}

// SetupReplayFlags configures flags for the replay command
func SetupReplayFlags(replayCmd *cobra.Command, linkAddrPtr *string, macPtr *string,
	rssiPtr *int, namePtr *string, intervalPtr *int) {
	replayCmd.Flags().StringVar(linkAddrPtr, "hub", "127.0.0.1:7421",
		"Hub link listener address")
	replayCmd.Flags().StringVar(macPtr, "mac", "02:00:00:00:00:01",
		"MAC address to present in the HELLO")
	replayCmd.Flags().IntVar(rssiPtr, "rssi", -60,
		"Signal strength to present in the HELLO (dBm)")
	replayCmd.Flags().StringVar(namePtr, "name", "",
		"Local name for the replayed node (random vanity name if empty)")
	replayCmd.Flags().IntVar(intervalPtr, "interval", 50,
		"Milliseconds between frames")
}
