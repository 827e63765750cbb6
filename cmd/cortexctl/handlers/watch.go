package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cortexhq/cortex/cmd/cortexctl/config"
	"github.com/cortexhq/cortex/cmd/cortexctl/utils"
	"github.com/cortexhq/cortex/internal/ipc"
	"github.com/spf13/cobra"
)

// HandleWatch subscribes to the hub's IPC stream and prints each reading as a
// JSON line until interrupted. With --node set, readings from other nodes are
// dropped client-side.
func HandleWatch(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	var filter *uint8
	if config.Watch.Node != "" {
		id, err := strconv.ParseUint(config.Watch.Node, 10, 8)
		if err != nil || id > 254 {
			return fmt.Errorf("node ID must be an integer between 0 and 254")
		}
		nodeID := uint8(id)
		filter = &nodeID
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := ipc.Subscribe(ctx, config.Watch.IPCAddr, func(line string) {
		if filter != nil && !lineMatchesNode(line, *filter) {
			return
		}
		fmt.Println(line)
	})

	// Ctrl+C is the normal way out of a watch
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nWatch interrupted")
		return nil
	}
	return err
}

// lineMatchesNode checks a published reading line against a node filter.
// Unparseable lines pass through so the operator still sees them.
func lineMatchesNode(line string, nodeID uint8) bool {
	var probe struct {
		NodeID *uint8 `json:"node_id"`
	}
	if err := json.Unmarshal([]byte(line), &probe); err != nil || probe.NodeID == nil {
		return true
	}
	return *probe.NodeID == nodeID
}
