package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/spf13/cobra"
)

// HandleHubInfo shows hub health together with the current mood. The mood
// fetch is best-effort so a degraded hub still reports its health.
func HandleHubInfo(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	health, err := apiClient.GetHealth()
	if err != nil {
		return err
	}

	mood, err := apiClient.GetPersonality()
	if err != nil {
		logging.Debug("Failed to fetch personality: %v", err)
		mood = nil
	}

	display.ShowHubInfo(health, mood)
	return nil
}
