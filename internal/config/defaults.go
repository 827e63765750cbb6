// Package config provides common default configuration values shared across
// CORTEX components (node link listener, IPC publisher, HTTP API, federation).
// This centralizes configuration management and keeps the daemon, simulator,
// and CLI agreeing on ports and limits.
package config

const (
	// DefaultBindAddr is the default bind address for externally reachable
	// services (HTTP API, node link listener, federation gossip).
	// Using 0.0.0.0 allows binding to all available network interfaces.
	DefaultBindAddr = "0.0.0.0"

	// DefaultIPCAddr is the default bind address for the IPC publisher.
	// Loopback only: IPC subscribers (renderer, cortexctl watch) are expected
	// to run on the hub host itself.
	DefaultIPCAddr = "127.0.0.1"

	// DefaultLogLevel is the default log level for all components.
	// INFO provides good balance of visibility without verbose debug output.
	DefaultLogLevel = "INFO"

	// DefaultDataDir is the default data directory for the SQLite database.
	DefaultDataDir = "./data"

	// DefaultLinkPort is the default port for the framed TCP node link
	// listener that nodes and BLE-serial bridges connect to.
	DefaultLinkPort = 7421

	// DefaultIPCPort is the default port for the JSON-lines IPC publisher.
	// The on-device renderer subscribes here.
	DefaultIPCPort = 6789

	// DefaultAPIPort is the default port for the HTTP API.
	DefaultAPIPort = 7420

	// DefaultFederationPort is the default port for Serf hub federation gossip.
	DefaultFederationPort = 7946

	// DefaultMinRSSI is the weakest advertised signal strength (dBm) a node
	// may report and still be accepted. Links below this are considered out
	// of range and rejected at HELLO time.
	DefaultMinRSSI = -80
)
