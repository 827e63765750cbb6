package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cortexhq/cortex/internal/ble"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/cortexhq/cortex/internal/store"
)

// capturePublisher collects published lines in memory
type capturePublisher struct {
	mu    sync.Mutex
	lines []string
}

func (c *capturePublisher) Publish(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *capturePublisher) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func testPipeline(t *testing.T) (*Pipeline, *store.Store, *capturePublisher) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "cortex.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	pub := &capturePublisher{}
	return New(s, nil, pub), s, pub
}

func testReading(nodeID uint8, seq uint16, temp float64) *packet.Reading {
	p := &packet.Packet{
		NodeID: nodeID, Seq: seq, TimestampMS: uint32(seq) * 1000,
		TempC: float32(temp), RHPct: 45, PressureHPa: 1013, Lux: 120,
		AccelG: 1.0, SoundDBFS: -40, BatteryV: 3.7,
	}
	return p.ToReading("AA:BB:CC:DD:EE:01", time.Now())
}

// TestIngestPublishesAndCaches tests the basic flow
func TestIngestPublishesAndCaches(t *testing.T) {
	p, _, pub := testPipeline(t)

	p.Ingest(testReading(1, 1, 21.5))
	p.Ingest(testReading(1, 2, 21.6))
	p.Ingest(testReading(2, 1, 23.0))

	lines := pub.all()
	if len(lines) != 3 {
		t.Fatalf("published %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], `"node_id":1`) {
		t.Errorf("first line = %s", lines[0])
	}

	latest := p.Latest()
	if len(latest) != 2 {
		t.Fatalf("cache holds %d nodes, want 2", len(latest))
	}

	r, ok := p.LatestForNode(1)
	if !ok {
		t.Fatal("node 1 missing from cache")
	}
	if r.Seq != 2 {
		t.Errorf("cached seq = %d, want the newest (2)", r.Seq)
	}
	if _, ok := p.LatestForNode(99); ok {
		t.Error("cache returned a reading for an unknown node")
	}
}

// TestCalibrationAppliedAtIngest verifies stored offsets correct readings
func TestCalibrationAppliedAtIngest(t *testing.T) {
	p, s, _ := testPipeline(t)
	ctx := context.Background()

	if err := s.UpsertCalibration(ctx, &store.Calibration{NodeID: 1, TempOffset: -0.5, RHOffset: 2.0}); err != nil {
		t.Fatalf("UpsertCalibration failed: %v", err)
	}
	if err := p.LoadCalibrations(ctx); err != nil {
		t.Fatalf("LoadCalibrations failed: %v", err)
	}

	p.Ingest(testReading(1, 1, 21.5))
	p.Ingest(testReading(2, 1, 21.5)) // no calibration row

	r1, _ := p.LatestForNode(1)
	if *r1.TempC != 21.0 {
		t.Errorf("calibrated temp = %v, want 21.0", *r1.TempC)
	}
	if *r1.RHPct != 47.0 {
		t.Errorf("calibrated RH = %v, want 47.0", *r1.RHPct)
	}
	// Lux has no offset column and must pass through untouched
	if *r1.Lux != 120 {
		t.Errorf("lux = %v, want 120", *r1.Lux)
	}

	r2, _ := p.LatestForNode(2)
	if *r2.TempC != 21.5 {
		t.Errorf("uncalibrated temp = %v, want 21.5", *r2.TempC)
	}
}

// TestCalibrationSkipsAbsentSensor verifies nil metrics stay nil
func TestCalibrationSkipsAbsentSensor(t *testing.T) {
	p, s, _ := testPipeline(t)
	ctx := context.Background()

	s.UpsertCalibration(ctx, &store.Calibration{NodeID: 1, TempOffset: 1.0})
	p.LoadCalibrations(ctx)

	r := testReading(1, 1, 21.5)
	r.TempC = nil
	p.Ingest(r)

	got, _ := p.LatestForNode(1)
	if got.TempC != nil {
		t.Errorf("nil sensor became %v after calibration", *got.TempC)
	}
}

// TestDisconnectEvictsLiveCache verifies a departed node stops feeding the
// room view while other nodes stay cached
func TestDisconnectEvictsLiveCache(t *testing.T) {
	p, _, _ := testPipeline(t)

	p.Ingest(testReading(1, 1, 21.5))
	p.Ingest(testReading(2, 1, 23.0))

	sess := &link.Session{
		MAC:  "AA:BB:CC:DD:EE:01",
		Node: ble.NodeInfo{NodeID: 1, LocalName: "CortexNode-Moss"},
	}
	p.HandleDisconnect(sess)

	if _, ok := p.LatestForNode(1); ok {
		t.Error("node 1 still cached after its link went down")
	}
	if latest := p.Latest(); len(latest) != 1 {
		t.Fatalf("cache holds %d nodes after disconnect, want 1", len(latest))
	}
	if _, ok := p.LatestForNode(2); !ok {
		t.Error("node 2 evicted alongside the departed node")
	}

	// Evicting a node that was never cached is a no-op
	p.Evict(99)
	if len(p.Latest()) != 1 {
		t.Error("no-op eviction disturbed the cache")
	}
}

// TestEvictClearsSpikeHistory verifies a reconnecting node warms up fresh
// instead of spiking against pre-outage samples
func TestEvictClearsSpikeHistory(t *testing.T) {
	p, _, _ := testPipeline(t)

	for i := 0; i < 10; i++ {
		p.Ingest(testReading(1, uint16(i), 21.0))
	}
	p.Evict(1)

	// Against the old history this reading would be a clear spike
	p.Ingest(testReading(1, 100, 35.0))
	if n := p.SpikeCount(); n != 0 {
		t.Errorf("post-eviction reading flagged %d spike(s) against stale history", n)
	}
}

// TestLiveSpikeDetection verifies the pipeline flags excursions
func TestLiveSpikeDetection(t *testing.T) {
	p, _, _ := testPipeline(t)

	for i := 0; i < 10; i++ {
		p.Ingest(testReading(1, uint16(i), 21.0+0.05*float64(i%3)))
	}
	if n := p.SpikeCount(); n != 0 {
		t.Fatalf("steady series produced %d spikes", n)
	}

	p.Ingest(testReading(1, 11, 35.0)) // radiator burst
	if n := p.SpikeCount(); n == 0 {
		t.Error("14-degree excursion not flagged")
	}
}

// TestRecalibrateDerivesAndPersistsOffsets runs the burn-in flow end to end
func TestRecalibrateDerivesAndPersistsOffsets(t *testing.T) {
	p, s, _ := testPipeline(t)
	ctx := context.Background()

	// Co-located burn-in: node 1 reads warm, node 2 reads cool
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		pk1 := &packet.Packet{NodeID: 1, Seq: uint16(i), TempC: 22.0, RHPct: 45, PressureHPa: 1013}
		pk2 := &packet.Packet{NodeID: 2, Seq: uint16(i), TempC: 21.0, RHPct: 45, PressureHPa: 1013}
		s.InsertReading(ctx, pk1.ToReading("AA:00:00:00:00:01", at))
		s.InsertReading(ctx, pk2.ToReading("AA:00:00:00:00:02", at))
	}

	updated, err := p.Recalibrate(ctx)
	if err != nil {
		t.Fatalf("Recalibrate failed: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("recalibrated %d nodes, want 2", len(updated))
	}

	// Consensus 21.5: warm node corrects down, cool node corrects up
	if got := updated[1].TempOffset; got > -0.49 || got < -0.51 {
		t.Errorf("node 1 temp offset = %v, want -0.5", got)
	}
	if got := updated[2].TempOffset; got < 0.49 || got > 0.51 {
		t.Errorf("node 2 temp offset = %v, want 0.5", got)
	}

	// Offsets are live immediately
	p.Ingest(testReading(1, 100, 22.0))
	r, _ := p.LatestForNode(1)
	if got := *r.TempC; got > 21.51 || got < 21.49 {
		t.Errorf("post-calibration ingest temp = %v, want 21.5", got)
	}

	// And persisted
	stored, err := s.Calibrations(ctx)
	if err != nil {
		t.Fatalf("Calibrations failed: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d calibration rows, want 2", len(stored))
	}
}
