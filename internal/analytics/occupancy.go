package analytics

import "github.com/cortexhq/cortex/internal/packet"

// Occupancy states. The rules engine only distinguishes empty from someone
// present; multi-person estimation needs signals the nodes do not carry yet.
const (
	OccupancyVacant = "vacant"
	OccupancySingle = "single"
)

// MotionThresholdG is the acceleration magnitude, in g, above which a node is
// considered to be sensing motion. Resting accelerometers read ~1.0g of
// gravity; desk bumps and footsteps push the magnitude past 1.2g.
const MotionThresholdG = 1.2

// OccupancySource identifies the rules revision that produced an estimate,
// so stored estimates stay comparable when the rules change.
const OccupancySource = "rules_v1"

// Occupancy is the room occupancy estimate.
type Occupancy struct {
	State      string  `json:"state"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// EstimateOccupancy applies the occupancy rules to the latest readings.
// A room counts as occupied when any node senses motion or when the number
// of connected devices exceeds the ambient baseline of the hub's own nodes.
func EstimateOccupancy(latest []*packet.Reading, deviceCount int) Occupancy {
	motion := false
	for _, r := range latest {
		if r.AccelG != nil && *r.AccelG > MotionThresholdG {
			motion = true
			break
		}
	}

	if motion || deviceCount > 3 {
		return Occupancy{State: OccupancySingle, Confidence: 0.6, Source: OccupancySource}
	}
	return Occupancy{State: OccupancyVacant, Confidence: 0.8, Source: OccupancySource}
}
