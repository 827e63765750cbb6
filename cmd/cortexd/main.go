// Package main implements the CORTEX hub daemon (cortexd).
// The hub accepts node links, runs the ingest pipeline and room analytics,
// persists readings, publishes the IPC stream, and serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cortexhq/cortex/internal/analytics"
	"github.com/cortexhq/cortex/internal/api"
	"github.com/cortexhq/cortex/internal/cluster"
	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/ingest"
	"github.com/cortexhq/cortex/internal/ipc"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/personality"
	"github.com/cortexhq/cortex/internal/store"
	"github.com/cortexhq/cortex/internal/validate"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0-dev" // Version information
)

// Global configuration
var daemonConfig struct {
	BindAddr       string   // Address for the link and API listeners
	LinkPort       int      // Node link port
	APIPort        int      // HTTP API port
	IPCPort        int      // Local event stream port
	FederationPort int      // Gossip port
	HubName        string   // Name of this hub
	DataDir        string   // Directory for the database
	MinRSSI        int      // Weakest node signal admitted, dBm
	JoinAddrs      []string // Federation addresses to join
	LogLevel       string   // Log level: DEBUG, INFO, WARN, ERROR
	Personality    bool     // Run the automatic personality rules
}

// Root command
var rootCmd = &cobra.Command{
	Use:   "cortexd",
	Short: "CORTEX hub daemon for BLE sensor node telemetry",
	Long: `CORTEX hub daemon (cortexd) is the room brain of a CORTEX deployment.

It accepts telemetry links from sensor nodes, calibrates and persists their
readings, fuses them into a room-level view, and serves everything over a
local event stream and an HTTP API. Multiple hubs can federate so one CLI
session sees every room.`,
	Version: Version,
	Example: `  # Start a standalone hub
  cortexd --data-dir=/var/lib/cortex

  # Start a hub and join an existing federation
  cortexd --hub-name=hub-kitchen --join=192.168.1.10:7946

  # Admit only strong signals and log verbosely
  cortexd --min-rssi=-70 --log-level=DEBUG`,
	PreRunE: validateDaemonConfig,
	RunE:    runDaemon,
}

func init() {
	// Network flags
	rootCmd.Flags().StringVar(&daemonConfig.BindAddr, "bind", config.DefaultBindAddr,
		"Address to bind the link and API listeners to")
	rootCmd.Flags().IntVar(&daemonConfig.LinkPort, "link-port", config.DefaultLinkPort,
		"Port for node telemetry links")
	rootCmd.Flags().IntVar(&daemonConfig.APIPort, "api-port", config.DefaultAPIPort,
		"Port for the HTTP API")
	rootCmd.Flags().IntVar(&daemonConfig.IPCPort, "ipc-port", config.DefaultIPCPort,
		"Loopback port for the local event stream")
	rootCmd.Flags().IntVar(&daemonConfig.FederationPort, "federation-port", config.DefaultFederationPort,
		"Gossip port for hub federation")

	// Hub configuration flags
	rootCmd.Flags().StringVar(&daemonConfig.HubName, "hub-name", "",
		"Hub name, unique across the federation (defaults to hostname)")
	rootCmd.Flags().StringVar(&daemonConfig.DataDir, "data-dir", config.DefaultDataDir,
		"Directory for the hub database")
	rootCmd.Flags().IntVar(&daemonConfig.MinRSSI, "min-rssi", config.DefaultMinRSSI,
		"Weakest node signal admitted, in dBm")
	rootCmd.Flags().BoolVar(&daemonConfig.Personality, "personality", true,
		"Run the automatic personality transition rules")

	// Federation flags
	rootCmd.Flags().StringSliceVar(&daemonConfig.JoinAddrs, "join", nil,
		"Comma-separated federation addresses to join (e.g., hub1:7946,hub2:7946)\n"+
			"Multiple addresses provide fault tolerance - if the first hub is down, tries the next")

	// Operational flags
	rootCmd.Flags().StringVar(&daemonConfig.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
}

// Validates configuration before running
func validateDaemonConfig(cmd *cobra.Command, args []string) error {
	if err := validate.ValidateField(daemonConfig.BindAddr, "required,ip"); err != nil {
		return fmt.Errorf("invalid bind address %q: must be an IP address", daemonConfig.BindAddr)
	}

	ports := map[string]int{
		"link port":       daemonConfig.LinkPort,
		"API port":        daemonConfig.APIPort,
		"IPC port":        daemonConfig.IPCPort,
		"federation port": daemonConfig.FederationPort,
	}
	seen := map[int]string{}
	for name, port := range ports {
		if err := validate.ValidatePortRange(port); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if other, dup := seen[port]; dup {
			return fmt.Errorf("%s and %s cannot share port %d", name, other, port)
		}
		seen[port] = name
	}

	if daemonConfig.MinRSSI > 0 || daemonConfig.MinRSSI < -127 {
		return fmt.Errorf("invalid min RSSI %d: must be between -127 and 0 dBm", daemonConfig.MinRSSI)
	}

	if err := logging.ValidateLogLevel(daemonConfig.LogLevel); err != nil {
		return err
	}

	// Default the hub name to the hostname
	if daemonConfig.HubName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		daemonConfig.HubName = hostname
	}

	if len(daemonConfig.JoinAddrs) > 0 {
		if err := validate.ValidateAddressList(daemonConfig.JoinAddrs); err != nil {
			return fmt.Errorf("invalid join addresses: %w", err)
		}
	}

	return nil
}

// Runs the daemon with graceful shutdown handling
func runDaemon(cmd *cobra.Command, args []string) error {
	logging.SetLevel(daemonConfig.LogLevel)

	logging.Info("Starting CORTEX hub daemon v%s", Version)
	logging.Info("Hub: %s, data dir: %s", daemonConfig.HubName, daemonConfig.DataDir)

	if err := os.MkdirAll(daemonConfig.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Storage
	db, err := store.Open(filepath.Join(daemonConfig.DataDir, "cortex.db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	writer := store.NewWriter(db)
	writer.Start()

	// IPC event stream
	publisher, err := ipc.NewPublisher(&ipc.Config{
		BindAddr: config.DefaultIPCAddr,
		BindPort: daemonConfig.IPCPort,
	})
	if err != nil {
		return fmt.Errorf("failed to create IPC publisher: %w", err)
	}
	if err := publisher.Start(); err != nil {
		return err
	}

	// Ingest pipeline
	pipeline := ingest.New(db, writer, publisher)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := pipeline.LoadCalibrations(startupCtx); err != nil {
		cancelStartup()
		return fmt.Errorf("failed to load calibrations: %w", err)
	}

	// Personality state machine
	mood := personality.NewManager(db)
	if err := mood.Load(startupCtx); err != nil {
		cancelStartup()
		return err
	}
	cancelStartup()

	// Node link listener
	links, err := link.NewListener(&link.Config{
		BindAddr: daemonConfig.BindAddr,
		BindPort: daemonConfig.LinkPort,
		MinRSSI:  daemonConfig.MinRSSI,
		LogLevel: daemonConfig.LogLevel,
	}, pipeline.HandleFrame)
	if err != nil {
		return fmt.Errorf("failed to create link listener: %w", err)
	}
	links.OnDisconnect(pipeline.HandleDisconnect)
	if err := links.Start(); err != nil {
		return err
	}

	// Federation runs even on a solo hub so peers can find it later
	fedConfig := cluster.DefaultConfig()
	fedConfig.BindAddr = daemonConfig.BindAddr
	fedConfig.BindPort = daemonConfig.FederationPort
	fedConfig.HubName = daemonConfig.HubName
	fedConfig.LogLevel = daemonConfig.LogLevel
	fedConfig.Tags["api_port"] = fmt.Sprintf("%d", daemonConfig.APIPort)
	fedConfig.Tags["version"] = Version

	federation, err := cluster.NewManager(fedConfig, func() map[string]any {
		return map[string]any{
			"hub":       daemonConfig.HubName,
			"nodes":     len(links.Sessions()),
			"mood":      mood.State(),
			"version":   Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create federation manager: %w", err)
	}
	if err := federation.Start(); err != nil {
		return fmt.Errorf("failed to start federation manager: %w", err)
	}

	if len(daemonConfig.JoinAddrs) > 0 {
		if err := federation.Join(daemonConfig.JoinAddrs); err != nil {
			logging.Error("Failed to join federation: %v", err)
			// Don't fail startup - the hub still serves its own room
		}
	}

	// HTTP API
	apiConfig := api.DefaultConfig()
	apiConfig.BindAddr = daemonConfig.BindAddr
	apiConfig.BindPort = daemonConfig.APIPort
	apiConfig.Store = db
	apiConfig.Pipeline = pipeline
	apiConfig.Links = links
	apiConfig.Personality = mood
	apiConfig.Federation = federation
	if err := apiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid API configuration: %w", err)
	}

	apiServer := api.NewServer(apiConfig)
	if err := apiServer.Start(); err != nil {
		return err
	}

	// Personality auto-update loop
	moodCtx, cancelMood := context.WithCancel(context.Background())
	defer cancelMood()
	if daemonConfig.Personality {
		go runPersonalityLoop(moodCtx, mood, pipeline)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logging.Success("CORTEX hub daemon started successfully")
	logging.Info("Daemon running... Press Ctrl+C to shutdown")

	sig := <-sigCh
	logging.Info("Received signal: %v", sig)

	// Graceful shutdown, outermost first
	logging.Info("Initiating graceful shutdown...")
	cancelMood()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Error shutting down API server: %v", err)
	}
	if err := federation.Shutdown(); err != nil {
		logging.Error("Error shutting down federation manager: %v", err)
	}
	if err := links.Shutdown(); err != nil {
		logging.Error("Error shutting down link listener: %v", err)
	}
	if err := publisher.Shutdown(); err != nil {
		logging.Error("Error shutting down IPC publisher: %v", err)
	}
	writer.Shutdown()

	logging.Success("CORTEX hub daemon shutdown completed")
	return nil
}

// personalityInterval paces the automatic transition rules.
const personalityInterval = 1 * time.Minute

// runPersonalityLoop periodically runs the automatic personality rules over
// the fused room view.
func runPersonalityLoop(ctx context.Context, mood *personality.Manager, pipeline *ingest.Pipeline) {
	ticker := time.NewTicker(personalityInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fused := analytics.FuseReadings(pipeline.Latest())
			if err := mood.Update(ctx, fused, time.Now()); err != nil {
				logging.Warn("Personality update failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Main entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
