// Package main provides the entry point for the CORTEX CLI tool (cortexctl).
//
// This package implements the main executable for the hub management CLI that
// lets operators inspect sensor nodes, query telemetry, drive room analytics,
// manage the hub mood, and replay captured frames.
//
// INITIALIZATION FLOW:
// 1. Command structure setup with hierarchical organization
// 2. Flag configuration for global and command-specific options
// 3. Handler assignment linking commands to API operations
// 4. Configuration validation before any command runs
// 5. Command execution with proper error handling and exit codes
//
// The CLI follows kubectl-style patterns with resource-grouped commands,
// consistent help text, and table or JSON output on every query.
package main

import (
	"os"

	"github.com/cortexhq/cortex/cmd/cortexctl/commands"
	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/handlers"
)

func init() {
	rootCmd := commands.RootCmd

	// Set version and validation
	rootCmd.Version = config.Version
	rootCmd.PersistentPreRunE = config.ValidateGlobalFlags

	// Setup all command structures
	commands.SetupCommands()
	commands.SetupNodeCommands()
	commands.SetupRoomCommands()
	commands.SetupPersonalityCommands()
	commands.SetupCalibrationCommands()
	commands.SetupHubCommands()

	// Setup global flags
	commands.SetupGlobalFlags(rootCmd, &config.Global.APIAddr, &config.Global.LogLevel,
		&config.Global.Timeout, &config.Global.Verbose, &config.Global.Output, config.DefaultAPIAddr)

	// Setup command-specific flags
	nodeLsCmd, _ := commands.GetNodeCommands()
	commands.SetupNodeFlags(nodeLsCmd, &config.Node.Watch)

	_, historyCmd := commands.GetTelemetryCommands()
	commands.SetupHistoryFlags(historyCmd,
		&config.History.Node, &config.History.Since, &config.History.Limit)

	_, _, forecastCmd := commands.GetRoomCommands()
	commands.SetupForecastFlags(forecastCmd,
		&config.Forecast.Node, &config.Forecast.Metric,
		&config.Forecast.Horizon, &config.Forecast.Window, &config.Forecast.Threshold)

	commands.SetupWatchFlags(commands.GetWatchCommand(),
		&config.Watch.IPCAddr, &config.Watch.Node, config.DefaultIPCAddr)

	commands.SetupReplayFlags(commands.GetReplayCommand(),
		&config.Replay.LinkAddr, &config.Replay.MAC, &config.Replay.RSSI,
		&config.Replay.Name, &config.Replay.Interval)

	// Setup command handlers
	setupCommandHandlers()
}

// setupCommandHandlers assigns RunE functions to commands
func setupCommandHandlers() {
	commands.GetInfoCommand().RunE = handlers.HandleHubInfo

	nodeLsCmd, nodeInfoCmd := commands.GetNodeCommands()
	nodeLsCmd.RunE = handlers.HandleNodeList
	nodeInfoCmd.RunE = handlers.HandleNodeInfo

	lastCmd, historyCmd := commands.GetTelemetryCommands()
	lastCmd.RunE = handlers.HandleLast
	historyCmd.RunE = handlers.HandleHistory

	occupancyCmd, spatialCmd, forecastCmd := commands.GetRoomCommands()
	occupancyCmd.RunE = handlers.HandleOccupancy
	spatialCmd.RunE = handlers.HandleSpatial
	forecastCmd.RunE = handlers.HandleForecast

	personalityGetCmd, personalitySetCmd := commands.GetPersonalityCommands()
	personalityGetCmd.RunE = handlers.HandlePersonalityGet
	personalitySetCmd.RunE = handlers.HandlePersonalitySet

	calibrationLsCmd, calibrationRunCmd := commands.GetCalibrationCommands()
	calibrationLsCmd.RunE = handlers.HandleCalibrationList
	calibrationRunCmd.RunE = handlers.HandleCalibrationRun

	commands.GetHubCommands().RunE = handlers.HandleHubList
	commands.GetWatchCommand().RunE = handlers.HandleWatch
	commands.GetReplayCommand().RunE = handlers.HandleReplay
}

// main is the main entry point
func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
