// Package main implements cortex-nodesim, a software CORTEX sensor node.
//
// The simulator carries a full node identity, advertises it over the link
// HELLO exactly like a hardware node behind the BLE-serial bridge, and
// streams synthetic telemetry with realistic drift. It exists so a hub, the
// CLI, and the analytics stack can be developed and demoed without a single
// physical node on the bench.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cortexhq/cortex/internal/identity"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/names"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/cortexhq/cortex/internal/validate"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0-dev" // Version information
)

// reconnectDelay paces redial attempts after the hub drops the link.
const reconnectDelay = 3 * time.Second

// Global configuration
var simConfig struct {
	NodeID    int           // Node ID to advertise (0-254)
	LocalName string        // BLE local name (generated when empty)
	HubAddr   string        // Hub link listener address
	Interval  time.Duration // Time between sensor sweeps
	RSSI      int           // Simulated signal strength, dBm
	MAC       string        // MAC to present (derived from node ID when empty)
	Disabled  []string      // Sensor metrics to report as absent (NaN)
	LogLevel  string        // Log level: DEBUG, INFO, WARN, ERROR
}

// Root command
var rootCmd = &cobra.Command{
	Use:   "cortex-nodesim",
	Short: "Software CORTEX sensor node for development and testing",
	Long: `CORTEX node simulator (cortex-nodesim) behaves like a hardware sensor
node: it advertises a node identity, links to a hub, and streams telemetry
packets with drifting synthetic sensor values.

Use it to exercise a hub, the analytics, and the CLI without hardware.`,
	Version: Version,
	Example: `  # Simulate node 7 against a local hub
  cortex-nodesim --node-id=7

  # A bedroom node without a microphone, reporting every 5 seconds
  cortex-nodesim --node-id=3 --local-name=CortexNode-Nimbus \
    --disable=sound_dbfs --interval=5s

  # A weak far-corner node against a remote hub
  cortex-nodesim --node-id=9 --hub=192.168.1.50:7421 --rssi=-78`,
	PreRunE: validateSimConfig,
	RunE:    runSimulator,
}

func init() {
	rootCmd.Flags().IntVar(&simConfig.NodeID, "node-id", 1,
		"Node ID to advertise (0-254)")
	rootCmd.Flags().StringVar(&simConfig.LocalName, "local-name", "",
		"BLE local name (random vanity name if empty)")
	rootCmd.Flags().StringVar(&simConfig.HubAddr, "hub", "127.0.0.1:7421",
		"Hub link listener address")
	rootCmd.Flags().DurationVar(&simConfig.Interval, "interval", 2*time.Second,
		"Time between sensor sweeps")
	rootCmd.Flags().IntVar(&simConfig.RSSI, "rssi", -60,
		"Simulated signal strength in dBm")
	rootCmd.Flags().StringVar(&simConfig.MAC, "mac", "",
		"MAC address to present (derived from node ID if empty)")
	rootCmd.Flags().StringSliceVar(&simConfig.Disabled, "disable", nil,
		"Sensor metrics to report as absent (e.g., sound_dbfs,lux)")
	rootCmd.Flags().StringVar(&simConfig.LogLevel, "log-level", "INFO",
		"Log level: DEBUG, INFO, WARN, ERROR")
}

// Validates configuration before running
func validateSimConfig(cmd *cobra.Command, args []string) error {
	if simConfig.NodeID < 0 || simConfig.NodeID > 254 {
		return fmt.Errorf("invalid node ID %d: must be between 0 and 254", simConfig.NodeID)
	}

	if simConfig.LocalName == "" {
		simConfig.LocalName = names.Generate()
	}

	if _, err := identity.New(uint8(simConfig.NodeID), simConfig.LocalName); err != nil {
		return err
	}

	if err := validate.ValidateAddressList([]string{simConfig.HubAddr}); err != nil {
		return fmt.Errorf("invalid hub address: %w", err)
	}

	if simConfig.Interval <= 0 {
		return fmt.Errorf("invalid interval %v: must be positive", simConfig.Interval)
	}

	if simConfig.RSSI < -127 || simConfig.RSSI > 0 {
		return fmt.Errorf("invalid RSSI %d: must be between -127 and 0 dBm", simConfig.RSSI)
	}

	for _, metric := range simConfig.Disabled {
		if !validMetric(metric) {
			return fmt.Errorf("unknown sensor metric %q: valid metrics are %s",
				metric, strings.Join(packet.MetricNames, ", "))
		}
	}

	if err := logging.ValidateLogLevel(simConfig.LogLevel); err != nil {
		return err
	}

	return nil
}

func validMetric(name string) bool {
	for _, m := range packet.MetricNames {
		if m == name {
			return true
		}
	}
	return false
}

// simMAC derives a stable locally-administered MAC from the node ID so the
// hub sees the same "device" across simulator restarts.
func simMAC(nodeID uint8) [6]byte {
	return [6]byte{0x02, 0xC0, 0x27, 0x7E, 0x00, nodeID}
}

// parseMAC parses a MAC flag value into the 6-byte wire form.
func parseMAC(raw string) ([6]byte, error) {
	var mac [6]byte

	hw, err := net.ParseMAC(raw)
	if err != nil || len(hw) != 6 {
		return mac, fmt.Errorf("invalid MAC %q: must be a 6-byte hardware address", raw)
	}

	copy(mac[:], hw)
	return mac, nil
}

// Runs the simulator until interrupted
func runSimulator(cmd *cobra.Command, args []string) error {
	logging.SetLevel(simConfig.LogLevel)

	id, err := identity.New(uint8(simConfig.NodeID), simConfig.LocalName)
	if err != nil {
		return err
	}

	mac := simMAC(id.NodeID)
	if simConfig.MAC != "" {
		if mac, err = parseMAC(simConfig.MAC); err != nil {
			return err
		}
	}

	logging.Info("Starting CORTEX node simulator v%s", Version)
	logging.Info("Node: %s, hub: %s, interval: %v", id, simConfig.HubAddr, simConfig.Interval)
	if len(simConfig.Disabled) > 0 {
		logging.Info("Disabled sensors: %s", strings.Join(simConfig.Disabled, ", "))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	node := newSimNode(id, simConfig.Disabled)
	ticker := time.NewTicker(simConfig.Interval)
	defer ticker.Stop()

	var client *link.Client
	defer func() {
		if client != nil {
			client.Close()
		}
	}()

	for {
		if client == nil {
			client, err = link.Dial(simConfig.HubAddr, id, mac, int8(simConfig.RSSI))
			if err != nil {
				logging.Warn("Failed to link to hub: %v, retrying in %v", err, reconnectDelay)
				select {
				case <-time.After(reconnectDelay):
					continue
				case sig := <-sigCh:
					logging.Info("Received signal: %v", sig)
					return nil
				}
			}
			logging.Success("Linked to hub %s as node %d", simConfig.HubAddr, id.NodeID)
		}

		select {
		case <-ticker.C:
			pkt := node.sweep()
			if err := client.Send(pkt); err != nil {
				logging.Warn("Link lost: %v, reconnecting", err)
				client.Close()
				client = nil
				continue
			}
			logging.Debug("Sent seq %d: temp %.2f, rh %.2f, batt %.2f",
				pkt.Seq, pkt.TempC, pkt.RHPct, pkt.BatteryV)
		case sig := <-sigCh:
			logging.Info("Received signal: %v", sig)
			logging.Success("Node simulator stopped after %d sweep(s)", node.seq)
			return nil
		}
	}
}

// simNode generates drifting synthetic sensor sweeps. Each metric follows a
// slow sinusoid with a distinct period plus white noise, so spike detection,
// forecasting, and fusion all see plausible data. Occasional motion bursts
// push accel past the occupancy threshold.
type simNode struct {
	id       identity.Identity
	disabled map[string]bool
	start    time.Time
	seq      uint16
	rng      *rand.Rand
}

func newSimNode(id identity.Identity, disabled []string) *simNode {
	off := make(map[string]bool, len(disabled))
	for _, m := range disabled {
		off[m] = true
	}

	return &simNode{
		id:       id,
		disabled: off,
		start:    time.Now(),
		// Seeded per node so two simulators don't move in lockstep
		rng: rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(id.NodeID)<<32)),
	}
}

// sweep produces the next telemetry packet.
func (n *simNode) sweep() *packet.Packet {
	elapsed := time.Since(n.start).Seconds()

	tempC := 21.5 + 2.0*math.Sin(elapsed/600) + n.noise(0.05)
	rhPct := 45.0 + 5.0*math.Sin(elapsed/900) + n.noise(0.3)
	pressure := 1013.0 + 1.5*math.Sin(elapsed/3600) + n.noise(0.1)
	lux := math.Max(0, 120.0+80.0*math.Sin(elapsed/1800)+n.noise(5))
	sound := -55.0 + 8.0*math.Sin(elapsed/300) + n.noise(1.5)

	accel := 1.0 + n.noise(0.02)
	// Roughly one motion burst per fifty sweeps
	if n.rng.Intn(50) == 0 {
		accel += 0.5 + n.rng.Float64()
	}

	// Slow battery drain, about 0.1 V per day of runtime
	battery := 4.1 - elapsed*0.1/86400 + n.noise(0.005)

	pkt := &packet.Packet{
		NodeID:      n.id.NodeID,
		Seq:         n.seq,
		TimestampMS: uint32(time.Since(n.start).Milliseconds()),
		TempC:       n.metric("temp_c", tempC),
		RHPct:       n.metric("rh_pct", rhPct),
		PressureHPa: n.metric("pressure_hpa", pressure),
		Lux:         n.metric("lux", lux),
		AccelG:      n.metric("accel_g", accel),
		SoundDBFS:   n.metric("sound_dbfs", sound),
		BatteryV:    n.metric("battery_v", battery),
	}
	if battery < 3.5 {
		pkt.Flags |= packet.FlagLowBattery
	}

	n.seq++
	return pkt
}

// metric returns the value, or NaN when the sensor is disabled.
func (n *simNode) metric(name string, value float64) float32 {
	if n.disabled[name] {
		return float32(math.NaN())
	}
	return float32(value)
}

// noise returns zero-centered noise scaled to the given amplitude.
func (n *simNode) noise(scale float64) float64 {
	return (n.rng.Float64()*2 - 1) * scale
}

// Main entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
