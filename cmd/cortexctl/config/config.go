// Package config provides configuration management for the cortexctl CLI.
package config

const (
	DefaultAPIAddr = "127.0.0.1:7420" // Default hub API address (routable)
	DefaultIPCAddr = "127.0.0.1:6789" // Default hub IPC stream address
)

// Version is the cortexctl CLI version, kept in lockstep with the daemon
const Version = "0.1.0-dev"

// Global holds the global CLI configuration
var Global struct {
	APIAddr  string // Address of the hub API server to connect to
	LogLevel string // Log level for CLI operations
	Timeout  int    // Connection timeout in seconds
	Verbose  bool   // Show verbose output
	Output   string // Output format: table, json
}

// Node holds the node command configuration
var Node struct {
	Watch bool // Enable watch mode for live updates
}

// History holds the history command configuration
var History struct {
	Node  string // Filter by node ID (0-254)
	Since string // RFC 3339 lower bound
	Limit int    // Maximum readings to return
}

// Forecast holds the forecast command configuration
var Forecast struct {
	Node      string  // Node ID to forecast (required)
	Metric    string  // Sensor metric to forecast (required)
	Horizon   float64 // Minutes to extrapolate forward
	Window    float64 // Minutes of history to fit against
	Threshold string  // Optional level for time-to-threshold
}

// Watch holds the watch command configuration
var Watch struct {
	IPCAddr string // Address of the hub IPC stream
	Node    string // Filter by node ID (0-254)
}

// Replay holds the replay command configuration
var Replay struct {
	LinkAddr string // Hub link listener address
	MAC      string // MAC to present in the HELLO
	RSSI     int    // RSSI to present in the HELLO
	Name     string // Local name for the replayed node
	Interval int    // Milliseconds between frames
}
