package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/spf13/cobra"
)

// HandleOccupancy shows the room occupancy estimate.
func HandleOccupancy(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	occ, err := apiClient.GetOccupancy()
	if err != nil {
		return err
	}

	display.ShowOccupancy(occ)
	return nil
}

// HandleSpatial shows the fused room view.
func HandleSpatial(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	spatial, err := apiClient.GetSpatial()
	if err != nil {
		return err
	}

	display.ShowSpatial(spatial)
	return nil
}

// HandleForecast shows a linear forecast of one node's metric.
func HandleForecast(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	result, err := apiClient.GetForecast(
		config.Forecast.Node, config.Forecast.Metric,
		config.Forecast.Horizon, config.Forecast.Window, config.Forecast.Threshold)
	if err != nil {
		return err
	}

	display.ShowForecast(result)
	return nil
}
