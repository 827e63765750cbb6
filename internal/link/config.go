package link

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/validate"
)

// Config holds the link listener configuration
type Config struct {
	BindAddr string `validate:"required,ip"`                  // Address to bind the listener to
	BindPort int    `validate:"required,min=1,max=65535"`     // Port for node connections
	MinRSSI  int    `validate:"min=-127,max=0"`               // Weakest signal admitted, dBm
	LogLevel string `validate:"required,oneof=DEBUG INFO WARN ERROR"` // Log level
}

// DefaultConfig returns the default link listener configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr: config.DefaultBindAddr,
		BindPort: config.DefaultLinkPort,
		MinRSSI:  config.DefaultMinRSSI,
		LogLevel: config.DefaultLogLevel,
	}
}

// validateConfig validates the link listener configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validate.ValidateField(cfg.BindAddr, "required,ip"); err != nil {
		return fmt.Errorf("invalid bind address %q: must be a valid IP address", cfg.BindAddr)
	}
	if err := validate.ValidatePortRange(cfg.BindPort); err != nil {
		return fmt.Errorf("invalid bind port: %w", err)
	}
	if cfg.MinRSSI > 0 || cfg.MinRSSI < -127 {
		return fmt.Errorf("invalid minimum RSSI %d: must be between -127 and 0 dBm", cfg.MinRSSI)
	}

	return nil
}
