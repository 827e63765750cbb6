// Package cluster provides hub federation for CORTEX.
//
// Multiple hubs (one per room, usually) gossip membership over Serf so any
// hub can enumerate its peers and the CLI can discover every room from a
// single address. Federation carries membership and lightweight status
// queries only; telemetry never crosses hub boundaries.
package cluster

import (
	"fmt"
	"time"

	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/validate"
)

// Config holds configuration for the federation Manager
type Config struct {
	BindAddr string            // Bind address for gossip
	BindPort int               // Gossip port
	HubName  string            // Name of this hub, unique across the federation
	Tags     map[string]string // Extra tags advertised to peers

	EventBufferSize int           // Event buffer size
	JoinRetries     int           // Join retries
	JoinTimeout     time.Duration // Join timeout
	LogLevel        string        // Log level
}

// DefaultConfig returns a default federation configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:        config.DefaultBindAddr,
		BindPort:        config.DefaultFederationPort,
		EventBufferSize: 1024,
		JoinRetries:     3,
		JoinTimeout:     30 * time.Second,
		LogLevel:        config.DefaultLogLevel,
		Tags:            make(map[string]string),
	}
}

// validateConfig validates federation configuration
func validateConfig(cfg *Config) error {
	if err := validate.ValidateRequiredString(cfg.HubName, "hub name"); err != nil {
		return err
	}

	if err := validate.ValidateField(cfg.BindAddr, "required,ip"); err != nil {
		return fmt.Errorf("invalid bind address: %w", err)
	}
	if err := validate.ValidateField(cfg.BindPort, "min=0,max=65535"); err != nil {
		return fmt.Errorf("invalid bind port: %w", err)
	}
	if cfg.EventBufferSize < 1 {
		return fmt.Errorf("event buffer size must be positive, got: %d", cfg.EventBufferSize)
	}
	if err := validate.ValidatePositiveTimeout(cfg.JoinTimeout, "join timeout"); err != nil {
		return err
	}

	if err := validateTags(cfg.Tags); err != nil {
		return fmt.Errorf("invalid tags: %w", err)
	}

	return nil
}

// validateTags rejects user tags that collide with the system tags the hub
// advertises itself.
func validateTags(tags map[string]string) error {
	reservedTags := map[string]bool{
		"hub_id":   true,
		"api_port": true,
		"version":  true,
	}

	for tagName := range tags {
		if reservedTags[tagName] {
			return fmt.Errorf("tag name '%s' is reserved and cannot be used", tagName)
		}
	}

	return nil
}
