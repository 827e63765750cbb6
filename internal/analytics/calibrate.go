package analytics

// CalibratedMetrics are the slow-moving metrics worth cross-calibrating.
// Fast signals (lux, sound, accel) genuinely differ between positions in a
// room even during co-location, so offsets for them would encode placement,
// not sensor bias.
var CalibratedMetrics = []string{"temp_c", "rh_pct", "pressure_hpa"}

// DeriveOffsets computes per-node additive offsets from co-location means.
// nodeMeans maps node ID to that node's mean for one metric over the burn-in
// period. The offset for each node is the distance from the all-node
// consensus to its own mean, so adding the offset at ingest pulls every node
// onto the consensus.
//
// Needs at least two nodes; with one there is nothing to agree on, and an
// empty map yields an empty result.
func DeriveOffsets(nodeMeans map[uint8]float64) map[uint8]float64 {
	if len(nodeMeans) < 2 {
		return map[uint8]float64{}
	}

	var sum float64
	for _, mean := range nodeMeans {
		sum += mean
	}
	consensus := sum / float64(len(nodeMeans))

	offsets := make(map[uint8]float64, len(nodeMeans))
	for nodeID, mean := range nodeMeans {
		offsets[nodeID] = consensus - mean
	}
	return offsets
}

// ApplyOffset adds a calibration offset to a nullable metric value in place.
// Nil stays nil; a node that lacks a sensor cannot be calibrated into having
// one.
func ApplyOffset(value *float64, offset float64) {
	if value != nil {
		*value += offset
	}
}
