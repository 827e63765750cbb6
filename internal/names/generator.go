// Package names provides vanity name generation for CORTEX nodes.
//
// Every node advertises a human-readable BLE local name so operators can tell
// devices apart during discovery without reading MAC addresses. Hardware nodes
// get their name from the firmware configuration ("CortexNode-Vanity" in the
// reference build); simulated nodes and provisioning tooling use this package
// to generate names in the same "CortexNode-<Word>" shape.
//
// Words are drawn from themes that suit an environmental sensing mesh
// (minerals, weather, optics, constellations) and chosen with secure random
// selection so bulk-provisioned fleets don't collide on boring prefixes of a
// sequential list.
//
// Examples: "CortexNode-Quartz", "CortexNode-Zephyr", "CortexNode-Lyra"
package names

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NamePrefix is the common prefix for all generated node names. Keeping the
// prefix stable lets scanners and humans spot CORTEX nodes in a crowded
// BLE neighborhood.
const NamePrefix = "CortexNode"

// Vanity words for node names, themed for an environmental sensing mesh
var words = []string{
	// Minerals and stones
	"Quartz", "Basalt", "Granite", "Obsidian", "Amber",
	"Opal", "Jasper", "Flint", "Slate", "Pyrite",
	"Garnet", "Beryl", "Topaz", "Onyx", "Mica",

	// Weather and atmosphere
	"Zephyr", "Cirrus", "Nimbus", "Stratus", "Mistral",
	"Sirocco", "Monsoon", "Aurora", "Halo", "Rime",
	"Drizzle", "Squall", "Thermal", "Breeze", "Frost",

	// Optics and light
	"Prism", "Lumen", "Photon", "Spectra", "Iris",
	"Candela", "Flux", "Glint", "Shimmer", "Refract",

	// Constellations and sky
	"Lyra", "Vega", "Altair", "Orion", "Cygnus",
	"Draco", "Polaris", "Rigel", "Sirius", "Deneb",

	// Reference firmware ships with this one
	"Vanity",
}

// Generate creates a random vanity name in "CortexNode-<Word>" format.
// Returns names suitable for immediate use as BLE local names; callers that
// need the name to fit a legacy advertising payload should run it through
// identity.AdvertisedName.
func Generate() string {
	word := words[randomIndex(len(words))]
	return fmt.Sprintf("%s-%s", NamePrefix, word)
}

// GenerateMany creates multiple unique node names with collision detection for
// bulk provisioning scenarios. Uses bounded retries (100 max per name) to
// handle vocabulary exhaustion gracefully; once the vocabulary is spent,
// duplicates are allowed rather than looping forever.
func GenerateMany(count int) []string {
	if count <= 0 {
		return []string{}
	}

	names := make([]string, count)
	used := make(map[string]bool)

	for i := 0; i < count; i++ {
		var name string
		attempts := 0

		for {
			name = Generate()
			if !used[name] || attempts > 100 {
				break
			}
			attempts++
		}

		used[name] = true
		names[i] = name
	}

	return names
}

// randomIndex generates a random index within the specified range using
// crypto/rand for unpredictable selection, with a fallback if the system
// entropy source fails.
func randomIndex(max int) int {
	if max <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}

	return int(n.Int64())
}
