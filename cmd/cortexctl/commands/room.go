// Package commands provides room analytics command definitions for cortexctl.
//
// ROOM COMMANDS:
//   - occupancy: Rule-based occupancy estimate from the latest readings
//   - spatial: Median-fused room view and temperature gradient
//   - forecast: Linear extrapolation of one node's metric
package commands

import (
	"github.com/spf13/cobra"
)

// Room command (parent command for room analytics)
var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Room-level analytics across all nodes",
	Long: `Commands for room-level views computed across every reporting node:
occupancy estimation, spatially fused sensor values, and metric forecasts.`,
}

// Room occupancy command
var roomOccupancyCmd = &cobra.Command{
	Use:   "occupancy",
	Short: "Show the room occupancy estimate",
	Long: `Display the hub's occupancy estimate, derived from motion and the
number of linked devices.`,
	Example: `  # Show occupancy
  cortexctl room occupancy

  # Output in JSON format
  cortexctl -o json room occupancy`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// Room spatial command
var roomSpatialCmd = &cobra.Command{
	Use:   "spatial",
	Short: "Show the fused room view per metric",
	Long: `Display median-fused sensor values across all reporting nodes,
with per-metric spread and the strongest temperature gradient.`,
	Example: `  # Show the fused room view
  cortexctl room spatial

  # Output in JSON format
  cortexctl -o json room spatial`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// Room forecast command
var roomForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast one node's metric",
	Long: `Extrapolate a node's metric forward with a linear fit over recent
history, including a 95% confidence band and an optional time-to-threshold
estimate.`,
	Example: `  # Forecast node 7's temperature 30 minutes ahead
  cortexctl room forecast --node 7 --metric temp_c

  # When will it reach 28 degrees?
  cortexctl room forecast --node 7 --metric temp_c --threshold 28

  # Fit over 4 hours of history, look 60 minutes ahead
  cortexctl room forecast --node 7 --metric rh_pct --window 240 --horizon 60`,
	Args: cobra.NoArgs,
	// RunE is assigned by the main package
}

// SetupRoomCommands initializes room commands
func SetupRoomCommands() {
	roomCmd.AddCommand(roomOccupancyCmd)
	roomCmd.AddCommand(roomSpatialCmd)
	roomCmd.AddCommand(roomForecastCmd)
}

// GetRoomCommands returns the room command structures for handler assignment
func GetRoomCommands() (*cobra.Command, *cobra.Command, *cobra.Command) {
	return roomOccupancyCmd, roomSpatialCmd, roomForecastCmd
}

// SetupForecastFlags configures flags for the forecast command
func SetupForecastFlags(forecastCmd *cobra.Command, nodePtr *string, metricPtr *string,
	horizonPtr *float64, windowPtr *float64, thresholdPtr *string) {
	forecastCmd.Flags().StringVar(nodePtr, "node", "", "Node ID to forecast (required)")
	forecastCmd.Flags().StringVar(metricPtr, "metric", "", "Sensor metric to forecast (required)")
	forecastCmd.Flags().Float64Var(horizonPtr, "horizon", 30, "Minutes to extrapolate forward")
	forecastCmd.Flags().Float64Var(windowPtr, "window", 120, "Minutes of history to fit against")
	forecastCmd.Flags().StringVar(thresholdPtr, "threshold", "", "Level for time-to-threshold estimate")
	forecastCmd.MarkFlagRequired("node")
	forecastCmd.MarkFlagRequired("metric")
}
