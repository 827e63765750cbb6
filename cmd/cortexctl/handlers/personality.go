package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/spf13/cobra"
)

// HandlePersonalityGet shows the hub's current mood state.
func HandlePersonalityGet(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	mood, err := apiClient.GetPersonality()
	if err != nil {
		return err
	}

	display.ShowPersonality(mood)
	return nil
}

// HandlePersonalitySet transitions the hub to a new mood state.
func HandlePersonalitySet(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	mood, err := apiClient.SetPersonality(args[0])
	if err != nil {
		return err
	}

	display.ShowPersonality(mood)
	return nil
}
