// Package ingest is the hub's telemetry pipeline. Every frame accepted by
// the link layer flows through here: calibration offsets are applied, the
// last-values cache and spike history are updated, the reading is queued for
// persistence, and the JSON line goes out on the IPC stream.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cortexhq/cortex/internal/analytics"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/cortexhq/cortex/internal/store"
)

// spikeHistoryDepth is how many recent samples per node and metric the live
// spike detector compares against. minSpikeHistory keeps the detector quiet
// during warm-up, when a couple of samples make everything look anomalous.
const (
	spikeHistoryDepth = 32
	minSpikeHistory   = 8
)

// Publisher is the slice of the IPC layer the pipeline needs.
type Publisher interface {
	Publish(line string)
}

// Pipeline processes accepted telemetry frames.
type Pipeline struct {
	store     *store.Store
	writer    *store.Writer
	publisher Publisher

	calLock sync.RWMutex
	offsets map[uint8]*store.Calibration

	cacheLock sync.RWMutex
	latest    map[uint8]*packet.Reading
	history   map[historyKey][]float64

	spikeLock sync.Mutex
	spikes    uint64
}

type historyKey struct {
	nodeID uint8
	metric string
}

// New creates a pipeline. The publisher may be nil when no IPC stream is
// wanted, as in the replay tool's dry-run mode.
func New(s *store.Store, w *store.Writer, pub Publisher) *Pipeline {
	return &Pipeline{
		store:     s,
		writer:    w,
		publisher: pub,
		offsets:   make(map[uint8]*store.Calibration),
		latest:    make(map[uint8]*packet.Reading),
		history:   make(map[historyKey][]float64),
	}
}

// LoadCalibrations pulls stored offsets into memory. Called at startup and
// after recalibration.
func (p *Pipeline) LoadCalibrations(ctx context.Context) error {
	offsets, err := p.store.Calibrations(ctx)
	if err != nil {
		return err
	}

	p.calLock.Lock()
	p.offsets = offsets
	p.calLock.Unlock()

	logging.Info("Loaded calibration offsets for %d nodes", len(offsets))
	return nil
}

// HandleFrame is the link.Handler entry point.
func (p *Pipeline) HandleFrame(sess *link.Session, pkt *packet.Packet) {
	r := pkt.ToReading(sess.MAC, time.Now())
	p.Ingest(r)
}

// HandleDisconnect is the link disconnect hook: a node whose link went down
// must stop contributing to fusion, occupancy, and /last.
func (p *Pipeline) HandleDisconnect(sess *link.Session) {
	p.Evict(sess.Node.NodeID)
}

// Evict drops a node from the last-values cache along with its spike
// history, so a reconnecting node warms up against fresh samples instead of
// pre-outage ones.
func (p *Pipeline) Evict(nodeID uint8) {
	p.cacheLock.Lock()
	defer p.cacheLock.Unlock()

	if _, ok := p.latest[nodeID]; !ok {
		return
	}

	delete(p.latest, nodeID)
	for _, metric := range packet.MetricNames {
		delete(p.history, historyKey{nodeID: nodeID, metric: metric})
	}
	logging.Debug("Evicted node %d from the live cache", nodeID)
}

// Ingest runs one reading through the pipeline.
func (p *Pipeline) Ingest(r *packet.Reading) {
	p.applyCalibration(r)
	p.updateCache(r)

	if p.writer != nil {
		p.writer.Enqueue(r)
	}

	if p.publisher != nil {
		line, err := r.MarshalJSONString()
		if err != nil {
			logging.Error("Failed to serialize reading from node %d: %v", r.NodeID, err)
			return
		}
		p.publisher.Publish(line)
	}
}

// applyCalibration adds the node's stored offsets. Only the slow metrics are
// calibrated; see analytics.CalibratedMetrics.
func (p *Pipeline) applyCalibration(r *packet.Reading) {
	p.calLock.RLock()
	cal, ok := p.offsets[r.NodeID]
	p.calLock.RUnlock()
	if !ok {
		return
	}

	analytics.ApplyOffset(r.TempC, cal.TempOffset)
	analytics.ApplyOffset(r.RHPct, cal.RHOffset)
	analytics.ApplyOffset(r.PressureHPa, cal.PressureOffset)
}

// updateCache refreshes the last-values cache and the per-metric spike
// history, flagging outliers as they arrive.
func (p *Pipeline) updateCache(r *packet.Reading) {
	p.cacheLock.Lock()
	defer p.cacheLock.Unlock()

	p.latest[r.NodeID] = r

	for _, metric := range packet.MetricNames {
		v := r.Metric(metric)
		if v == nil {
			continue
		}

		key := historyKey{nodeID: r.NodeID, metric: metric}
		hist := p.history[key]

		if len(hist) >= minSpikeHistory && analytics.IsSpike(*v, hist) {
			p.spikeLock.Lock()
			p.spikes++
			p.spikeLock.Unlock()
			logging.Warn("Spike on node %d %s: %.2f (history median %.2f)",
				r.NodeID, metric, *v, analytics.Median(hist))
		}

		hist = append(hist, *v)
		if len(hist) > spikeHistoryDepth {
			hist = hist[len(hist)-spikeHistoryDepth:]
		}
		p.history[key] = hist
	}
}

// Latest returns the most recent reading per node.
func (p *Pipeline) Latest() []*packet.Reading {
	p.cacheLock.RLock()
	defer p.cacheLock.RUnlock()

	out := make([]*packet.Reading, 0, len(p.latest))
	for _, r := range p.latest {
		copied := *r
		out = append(out, &copied)
	}
	return out
}

// LatestForNode returns the most recent reading for one node.
func (p *Pipeline) LatestForNode(nodeID uint8) (*packet.Reading, bool) {
	p.cacheLock.RLock()
	defer p.cacheLock.RUnlock()

	r, ok := p.latest[nodeID]
	if !ok {
		return nil, false
	}
	copied := *r
	return &copied, true
}

// SpikeCount returns how many spikes the live detector has flagged.
func (p *Pipeline) SpikeCount() uint64 {
	p.spikeLock.Lock()
	defer p.spikeLock.Unlock()
	return p.spikes
}

// Recalibrate derives fresh offsets from all stored readings and persists
// them. Run after a co-location burn-in: place every node on the same shelf
// for an hour, then call this. The new offsets take effect immediately for
// subsequent readings.
func (p *Pipeline) Recalibrate(ctx context.Context) (map[uint8]*store.Calibration, error) {
	updated := make(map[uint8]*store.Calibration)

	for _, metric := range analytics.CalibratedMetrics {
		means, err := p.store.NodeMeans(ctx, metric)
		if err != nil {
			return nil, fmt.Errorf("failed to compute node means for %s: %w", metric, err)
		}

		for nodeID, offset := range analytics.DeriveOffsets(means) {
			cal, ok := updated[nodeID]
			if !ok {
				cal = &store.Calibration{NodeID: nodeID}
				updated[nodeID] = cal
			}
			switch metric {
			case "temp_c":
				cal.TempOffset = offset
			case "rh_pct":
				cal.RHOffset = offset
			case "pressure_hpa":
				cal.PressureOffset = offset
			}
		}
	}

	for _, cal := range updated {
		if err := p.store.UpsertCalibration(ctx, cal); err != nil {
			return nil, err
		}
	}

	if err := p.LoadCalibrations(ctx); err != nil {
		return nil, err
	}

	logging.Success("Recalibrated %d nodes", len(updated))
	return updated, nil
}
