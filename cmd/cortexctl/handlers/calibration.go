package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/spf13/cobra"
)

// HandleCalibrationList shows all stored per-node offsets.
func HandleCalibrationList(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	cals, err := apiClient.GetCalibrations()
	if err != nil {
		return err
	}

	display.ShowCalibrations(cals)
	return nil
}

// HandleCalibrationRun triggers a recalibration and shows the new offsets.
func HandleCalibrationRun(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	cals, err := apiClient.RunCalibration()
	if err != nil {
		return err
	}

	display.ShowCalibrations(cals)
	return nil
}
