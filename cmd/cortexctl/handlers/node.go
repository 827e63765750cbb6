package handlers

import (
	"github.com/cortexhq/cortex/cmd/cortexctl/client"
	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/display"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/spf13/cobra"
)

// HandleNodeList lists all known nodes, optionally refreshing in watch mode.
func HandleNodeList(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	return utils.RunWithWatch(func() error {
		nodes, err := apiClient.GetNodes()
		if err != nil {
			return err
		}
		display.ShowNodes(nodes)
		return nil
	}, config.Node.Watch)
}

// HandleNodeInfo shows one node's session and latest reading.
func HandleNodeInfo(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()
	apiClient := client.CreateAPIClient()

	node, err := apiClient.GetNode(args[0])
	if err != nil {
		return err
	}

	display.ShowNodeDetail(node)
	return nil
}
