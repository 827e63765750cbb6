// Package commands provides calibration command definitions for cortexctl.
package commands

import (
	"github.com/spf13/cobra"
)

// Calibration command (parent command for offset operations)
var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Manage cross-node sensor offsets",
	Long: `Commands for the hub's cross-node calibration offsets.

Offsets line up temperature, humidity, and pressure readings across nodes.
Run calibration right after a co-location burn-in, while the nodes have been
sitting together; running it on scattered nodes bakes real room gradients
into the offsets.`,
}

// Calibration list command
var calibrationLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored per-node offsets",
	Example: `  # List calibration offsets
  cortexctl calibration ls

  # Output in JSON format
  cortexctl -o json calibration ls`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// Calibration run command
var calibrationRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Recompute offsets from stored readings",
	Long: `Ask the hub to derive fresh offsets from each node's stored readings
and apply them to all future ingest immediately.`,
	Example: `  # Recalibrate after a burn-in
  cortexctl calibration run`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// SetupCalibrationCommands initializes calibration commands
func SetupCalibrationCommands() {
	calibrationCmd.AddCommand(calibrationLsCmd)
	calibrationCmd.AddCommand(calibrationRunCmd)
}

// GetCalibrationCommands returns the calibration commands for handler assignment
func GetCalibrationCommands() (*cobra.Command, *cobra.Command) {
	return calibrationLsCmd, calibrationRunCmd
}
