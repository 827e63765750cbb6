// Package analytics implements the hub's room-model computations: spatial
// fusion across nodes, spike detection, occupancy inference, short-horizon
// forecasting, and calibration offset derivation.
//
// Everything here is pure computation over readings; persistence and
// transport live elsewhere. Sensors are cheap and disagree, so the package
// leans on order statistics (median, MAD) rather than means wherever a
// single flaky node could otherwise drag the room estimate.
package analytics

import (
	"math"
	"sort"

	"github.com/cortexhq/cortex/internal/packet"
)

// Median returns the median of values. Returns NaN for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// RoomEstimate is the fused room-level view of one metric.
type RoomEstimate struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`   // median across reporting nodes
	Spread  float64 `json:"spread"`  // max - min across reporting nodes
	Sources int     `json:"sources"` // nodes that reported this metric
}

// FuseReadings computes a room estimate per metric from the latest reading of
// each node. Nodes without a given sensor simply do not contribute to that
// metric. Metrics nobody reports are omitted.
func FuseReadings(latest []*packet.Reading) map[string]RoomEstimate {
	estimates := make(map[string]RoomEstimate)

	for _, metric := range packet.MetricNames {
		var values []float64
		for _, r := range latest {
			if v := r.Metric(metric); v != nil {
				values = append(values, *v)
			}
		}
		if len(values) == 0 {
			continue
		}

		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}

		estimates[metric] = RoomEstimate{
			Metric:  metric,
			Value:   Median(values),
			Spread:  hi - lo,
			Sources: len(values),
		}
	}

	return estimates
}

// GradientThresholdC is the temperature spread, in degrees, above which two
// nodes are considered to sit in genuinely different microclimates rather
// than within sensor tolerance of each other.
const GradientThresholdC = 1.0

// Gradient describes a significant temperature difference between two nodes.
type Gradient struct {
	WarmNodeID uint8   `json:"warm_node_id"`
	CoolNodeID uint8   `json:"cool_node_id"`
	DeltaC     float64 `json:"delta_c"`
}

// TemperatureGradient finds the largest pairwise temperature difference in
// the latest readings. Returns nil when fewer than two nodes report
// temperature or the spread stays under the threshold.
func TemperatureGradient(latest []*packet.Reading) *Gradient {
	var warm, cool *packet.Reading

	for _, r := range latest {
		if r.TempC == nil {
			continue
		}
		if warm == nil || *r.TempC > *warm.TempC {
			warm = r
		}
		if cool == nil || *r.TempC < *cool.TempC {
			cool = r
		}
	}

	if warm == nil || cool == nil || warm.NodeID == cool.NodeID {
		return nil
	}

	delta := *warm.TempC - *cool.TempC
	if delta < GradientThresholdC {
		return nil
	}

	return &Gradient{
		WarmNodeID: warm.NodeID,
		CoolNodeID: cool.NodeID,
		DeltaC:     delta,
	}
}
