// Package identity defines the node identity configuration for CORTEX nodes.
//
// Every node in a CORTEX deployment carries exactly two identity values: a
// numeric node ID and a BLE advertising local name. In the firmware these are
// compile-time constants baked into the image; here they form an immutable
// value type that the simulator, the link layer, and the ingest pipeline all
// consume. Uniqueness of node IDs across a deployment remains an operational
// discipline - nothing at this layer can see other nodes to enforce it.
//
// The firmware accepts any value silently and lets downstream code break;
// this package instead validates at construction so a bad ID or empty name
// fails at startup rather than after the node is deployed.
package identity

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MinNodeID is the lowest valid node identifier.
	MinNodeID = 0

	// MaxNodeID is the highest valid node identifier. 255 is reserved as the
	// broadcast value in the wire protocol and must never identify a node.
	MaxNodeID = 254

	// DefaultNodeID matches the reference firmware configuration.
	DefaultNodeID = 1

	// DefaultLocalName matches the reference firmware configuration.
	DefaultLocalName = "CortexNode-Vanity"
)

// Identity holds the two identity values of a CORTEX node. Treat constructed
// values as immutable: they correspond to constants burned into a firmware
// image and never change for the lifetime of a node process.
type Identity struct {
	NodeID    uint8  `json:"node_id"`    // Unique within a deployment, 0-254
	LocalName string `json:"local_name"` // BLE advertising name
}

// New constructs a validated Identity. Returns an error if the node ID is the
// reserved broadcast value or the local name is empty.
func New(nodeID uint8, localName string) (Identity, error) {
	id := Identity{NodeID: nodeID, LocalName: localName}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Default returns the identity the reference firmware ships with:
// node ID 1, local name "CortexNode-Vanity".
func Default() Identity {
	return Identity{NodeID: DefaultNodeID, LocalName: DefaultLocalName}
}

// Validate enforces the identity constraints: node ID in [0, 254] and a
// non-empty local name. Called at startup by every consumer instead of
// trusting the configuration.
func (id Identity) Validate() error {
	// NodeID is uint8 so only the reserved broadcast value can be out of range
	if id.NodeID > MaxNodeID {
		return fmt.Errorf("node ID %d out of range [%d, %d] (255 is reserved for broadcast)",
			id.NodeID, MinNodeID, MaxNodeID)
	}
	if id.LocalName == "" {
		return fmt.Errorf("local name cannot be empty")
	}
	return nil
}

// String returns a human-readable identity for logs.
func (id Identity) String() string {
	return fmt.Sprintf("%s (node %d)", id.LocalName, id.NodeID)
}

// AdvertisedName returns the local name truncated to fit within budget bytes
// of advertising payload. The BLE stack, not the identity, owns the budget:
// callers pass whatever room remains in their advertising packet.
//
// Truncation is idempotent - truncating an already-truncated name to the same
// budget returns it unchanged - and never splits a multi-byte UTF-8 rune, so
// the advertised name always remains valid UTF-8.
func (id Identity) AdvertisedName(budget int) string {
	if budget <= 0 {
		return ""
	}
	name := id.LocalName
	if len(name) <= budget {
		return name
	}

	// Back off to the nearest rune boundary at or below the budget
	cut := budget
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// IsShortened reports whether advertising within budget bytes would truncate
// the local name. The advertising layer uses this to pick between the
// Complete and Shortened Local Name AD types.
func (id Identity) IsShortened(budget int) bool {
	return len(id.LocalName) > budget
}
