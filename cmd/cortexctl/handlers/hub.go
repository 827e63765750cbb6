package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/spf13/cobra"
)

// HandleHubList shows the federation member list.
func HandleHubList(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	hubs, err := apiClient.GetHubs()
	if err != nil {
		return err
	}

	display.ShowHubs(hubs)
	return nil
}
