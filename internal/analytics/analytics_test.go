package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cortexhq/cortex/internal/packet"
)

func reading(nodeID uint8, temp, accel float64) *packet.Reading {
	p := &packet.Packet{
		NodeID: nodeID, TempC: float32(temp), RHPct: 50, PressureHPa: 1013,
		Lux: 100, AccelG: float32(accel), SoundDBFS: -40, BatteryV: 3.7,
	}
	return p.ToReading("AA:BB:CC:DD:EE:FF", time.Now())
}

// TestMedian tests odd, even, and empty inputs
func TestMedian(t *testing.T) {
	if got := Median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("Median(odd) = %v, want 2", got)
	}
	if got := Median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("Median(even) = %v, want 2.5", got)
	}
	if !math.IsNaN(Median(nil)) {
		t.Error("Median(empty) is not NaN")
	}

	// Median must not reorder the caller's slice
	in := []float64{9, 1, 5}
	Median(in)
	if in[0] != 9 || in[1] != 1 || in[2] != 5 {
		t.Error("Median mutated its input")
	}
}

// TestFuseReadings verifies median fusion ignores absent sensors
func TestFuseReadings(t *testing.T) {
	readings := []*packet.Reading{
		reading(1, 20.0, 1.0),
		reading(2, 22.0, 1.0),
		reading(3, 30.0, 1.0), // outlier node near the window
	}
	readings[2].Lux = nil // that node has no light sensor

	fused := FuseReadings(readings)

	temp, ok := fused["temp_c"]
	if !ok {
		t.Fatal("no fused temperature")
	}
	if temp.Value != 22.0 {
		t.Errorf("fused temp = %v, want the median 22.0", temp.Value)
	}
	if temp.Spread != 10.0 || temp.Sources != 3 {
		t.Errorf("temp spread/sources = %v/%d, want 10.0/3", temp.Spread, temp.Sources)
	}

	if lux := fused["lux"]; lux.Sources != 2 {
		t.Errorf("lux sources = %d, want 2 (nil sensor must not contribute)", lux.Sources)
	}
}

// TestTemperatureGradient tests the significance threshold
func TestTemperatureGradient(t *testing.T) {
	// Below threshold: within sensor tolerance
	if g := TemperatureGradient([]*packet.Reading{reading(1, 21.0, 1), reading(2, 21.8, 1)}); g != nil {
		t.Errorf("gradient reported for 0.8 C spread: %+v", g)
	}

	g := TemperatureGradient([]*packet.Reading{
		reading(1, 19.5, 1), reading(2, 21.0, 1), reading(3, 22.0, 1),
	})
	if g == nil {
		t.Fatal("no gradient for 2.5 C spread")
	}
	if g.WarmNodeID != 3 || g.CoolNodeID != 1 {
		t.Errorf("gradient endpoints = warm %d / cool %d, want 3 / 1", g.WarmNodeID, g.CoolNodeID)
	}
	if math.Abs(g.DeltaC-2.5) > 1e-9 {
		t.Errorf("DeltaC = %v, want 2.5", g.DeltaC)
	}

	// One node cannot have a gradient
	if g := TemperatureGradient([]*packet.Reading{reading(1, 20, 1)}); g != nil {
		t.Error("gradient reported for a single node")
	}
}

// TestEstimateOccupancy tests the rules
func TestEstimateOccupancy(t *testing.T) {
	still := []*packet.Reading{reading(1, 21, 1.0), reading(2, 21, 1.01)}

	occ := EstimateOccupancy(still, 2)
	if occ.State != OccupancyVacant || occ.Confidence != 0.8 {
		t.Errorf("still room = %+v, want vacant/0.8", occ)
	}
	if occ.Source != OccupancySource {
		t.Errorf("source = %q, want %q", occ.Source, OccupancySource)
	}

	motion := []*packet.Reading{reading(1, 21, 1.0), reading(2, 21, 1.5)}
	if occ := EstimateOccupancy(motion, 2); occ.State != OccupancySingle || occ.Confidence != 0.6 {
		t.Errorf("motion = %+v, want single/0.6", occ)
	}

	// Crowd of devices with no motion still counts as occupied
	if occ := EstimateOccupancy(still, 5); occ.State != OccupancySingle {
		t.Errorf("device crowd = %+v, want single", occ)
	}

	// A node without an accelerometer must not trip the motion rule
	noAccel := []*packet.Reading{reading(1, 21, 1.0)}
	noAccel[0].AccelG = nil
	if occ := EstimateOccupancy(noAccel, 0); occ.State != OccupancyVacant {
		t.Errorf("nil accel = %+v, want vacant", occ)
	}
}

// TestDetectSpikes tests the MAD outlier detector
func TestDetectSpikes(t *testing.T) {
	// Steady series with one excursion
	series := []float64{21.0, 21.1, 20.9, 21.0, 21.2, 27.0, 21.1, 21.0}
	spikes := DetectSpikes(series)
	if len(spikes) != 1 {
		t.Fatalf("got %d spikes, want 1: %+v", len(spikes), spikes)
	}
	if spikes[0].Index != 5 || spikes[0].Value != 27.0 {
		t.Errorf("spike = %+v, want index 5 value 27.0", spikes[0])
	}
	if spikes[0].ZScore <= SpikeThreshold {
		t.Errorf("z-score = %v, should exceed %v", spikes[0].ZScore, SpikeThreshold)
	}

	// Clean series
	if s := DetectSpikes([]float64{21.0, 21.1, 20.9, 21.0, 21.1}); len(s) != 0 {
		t.Errorf("clean series produced spikes: %+v", s)
	}

	// Too short to judge
	if s := DetectSpikes([]float64{1, 100, 1}); s != nil {
		t.Errorf("3-sample series produced spikes: %+v", s)
	}
}

// TestDetectSpikesFlatline tests the MAD == 0 case
func TestDetectSpikesFlatline(t *testing.T) {
	series := []float64{440.0, 440.0, 440.0, 440.0, 441.5, 440.0}
	spikes := DetectSpikes(series)
	if len(spikes) != 1 || spikes[0].Index != 4 {
		t.Fatalf("flatline spikes = %+v, want just index 4", spikes)
	}
	if !math.IsInf(spikes[0].ZScore, 1) {
		t.Errorf("flatline z-score = %v, want +Inf", spikes[0].ZScore)
	}
}

// TestIsSpike tests the live single-sample check
func TestIsSpike(t *testing.T) {
	history := []float64{21.0, 21.1, 20.9, 21.0, 21.2}

	if IsSpike(21.1, history) {
		t.Error("in-band value flagged as spike")
	}
	if !IsSpike(28.0, history) {
		t.Error("7-degree excursion not flagged")
	}
	if IsSpike(100, nil) {
		t.Error("empty history produced a spike")
	}

	// Flatline history: any deviation is a spike
	flat := []float64{10, 10, 10, 10}
	if !IsSpike(10.1, flat) {
		t.Error("deviation from flatline not flagged")
	}
	if IsSpike(10, flat) {
		t.Error("flatline value flagged against flatline history")
	}
}

// TestForecastLinear fits a known trend
func TestForecastLinear(t *testing.T) {
	// 0.1 degrees per minute, 15 samples
	var points [][2]float64
	for i := 0; i < 15; i++ {
		points = append(points, [2]float64{float64(i) * 60, 20.0 + 0.1*float64(i)})
	}

	f, err := ForecastLinear(points, 30, math.NaN())
	if err != nil {
		t.Fatalf("ForecastLinear failed: %v", err)
	}

	// Last sample is 21.4; 30 minutes later the trend reaches 24.4
	if math.Abs(f.Prediction-24.4) > 1e-6 {
		t.Errorf("Prediction = %v, want 24.4", f.Prediction)
	}
	// A perfect line has a degenerate band
	if f.Upper-f.Lower > 1e-6 {
		t.Errorf("band width = %v for a noiseless fit", f.Upper-f.Lower)
	}
	if f.Threshold != nil {
		t.Error("crossing reported without a threshold")
	}
}

// TestForecastTimeToThreshold verifies crossing estimation
func TestForecastTimeToThreshold(t *testing.T) {
	var points [][2]float64
	for i := 0; i < 12; i++ {
		points = append(points, [2]float64{float64(i) * 60, 20.0 + 0.1*float64(i)})
	}

	// Last value 21.1, rising 0.1/minute: 25.0 is 39 minutes out
	f, err := ForecastLinear(points, 10, 25.0)
	if err != nil {
		t.Fatalf("ForecastLinear failed: %v", err)
	}
	if f.Threshold == nil {
		t.Fatal("no crossing for a rising trend below threshold")
	}
	if math.Abs(f.Threshold.Minutes-39.0) > 0.01 {
		t.Errorf("Minutes = %v, want 39.0", f.Threshold.Minutes)
	}

	// A rising trend never reaches a threshold below it
	f, err = ForecastLinear(points, 10, 15.0)
	if err != nil {
		t.Fatalf("ForecastLinear failed: %v", err)
	}
	if f.Threshold != nil {
		t.Errorf("crossing reported for a receding threshold: %+v", f.Threshold)
	}
}

// TestForecastInsufficientHistory tests the sample floor
func TestForecastInsufficientHistory(t *testing.T) {
	points := [][2]float64{{0, 1}, {60, 2}, {120, 3}}
	if _, err := ForecastLinear(points, 10, math.NaN()); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("error = %v, want ErrInsufficientHistory", err)
	}
}

// TestDeriveOffsets verifies offsets pull nodes onto the consensus
func TestDeriveOffsets(t *testing.T) {
	means := map[uint8]float64{1: 21.0, 2: 22.0, 3: 23.0}
	offsets := DeriveOffsets(means)

	if len(offsets) != 3 {
		t.Fatalf("got %d offsets, want 3", len(offsets))
	}
	// Consensus is 22.0
	if offsets[1] != 1.0 || offsets[2] != 0.0 || offsets[3] != -1.0 {
		t.Errorf("offsets = %+v", offsets)
	}

	// Applying each offset lands every node on the consensus
	for nodeID, mean := range means {
		if got := mean + offsets[nodeID]; math.Abs(got-22.0) > 1e-9 {
			t.Errorf("node %d calibrates to %v, want 22.0", nodeID, got)
		}
	}

	if got := DeriveOffsets(map[uint8]float64{1: 21.0}); len(got) != 0 {
		t.Errorf("single node produced offsets: %+v", got)
	}
}

// TestApplyOffset tests nil passthrough
func TestApplyOffset(t *testing.T) {
	v := 20.0
	p := &v
	ApplyOffset(p, 0.5)
	if *p != 20.5 {
		t.Errorf("value = %v, want 20.5", *p)
	}

	var nilP *float64
	ApplyOffset(nilP, 0.5) // must not panic
}
