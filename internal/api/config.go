// Package api provides the HTTP API server for the CORTEX hub.
//
// The server exposes room state over REST: latest readings, history, the
// fused spatial view, occupancy, forecasts, calibration, and the hub's
// personality. cortexctl and the web dashboard are both clients of this
// surface; neither touches the database directly.
package api

import (
	"fmt"

	"github.com/cortexhq/cortex/internal/cluster"
	"github.com/cortexhq/cortex/internal/config"
	"github.com/cortexhq/cortex/internal/ingest"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/personality"
	"github.com/cortexhq/cortex/internal/store"
	"github.com/cortexhq/cortex/internal/validate"
)

// Config holds all dependencies the API server needs. It serves as a
// dependency injection container so the daemon controls initialization order
// and tests can substitute pieces.
type Config struct {
	BindAddr string // HTTP server bind address
	BindPort int    // HTTP server bind port

	Store       *store.Store         // Persistent readings and calibration
	Pipeline    *ingest.Pipeline     // Live cache and calibration application
	Links       *link.Listener       // Connected node sessions
	Personality *personality.Manager // Hub state machine
	Federation  *cluster.Manager     // Optional: nil when running solo
}

// DefaultConfig creates a Config with defaults suitable for local use.
// Component references must be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		BindAddr: config.DefaultIPCAddr, // loopback unless the daemon overrides
		BindPort: config.DefaultAPIPort,
	}
}

// Validate checks that the server can start and answer every route.
// Federation is deliberately not required; a solo hub has no peers.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(c.BindPort); err != nil {
		return fmt.Errorf("bind port validation failed: %w", err)
	}
	if c.Store == nil {
		return fmt.Errorf("store cannot be nil")
	}
	if c.Pipeline == nil {
		return fmt.Errorf("pipeline cannot be nil")
	}
	if c.Personality == nil {
		return fmt.Errorf("personality manager cannot be nil")
	}

	return nil
}
