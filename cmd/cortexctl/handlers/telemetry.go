package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/spf13/cobra"
)

// HandleLast shows the latest reading per node from the hub's live cache.
func HandleLast(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	readings, err := apiClient.GetLast()
	if err != nil {
		return err
	}

	display.ShowReadings(readings)
	return nil
}

// HandleHistory queries the reading archive with the configured filters.
func HandleHistory(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	readings, err := apiClient.GetHistory(
		config.History.Node, config.History.Since, config.History.Limit)
	if err != nil {
		return err
	}

	display.ShowReadings(readings)
	return nil
}
