package store

import (
	"context"
	"sync"
	"time"

	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/packet"
)

// Writer batches reading inserts so the ingest path never blocks on SD-card
// fsync latency. Readings queue on a channel; a single goroutine flushes on
// size or interval, whichever comes first.
type Writer struct {
	store *Store

	queue  chan *packet.Reading
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	batchSize     int
	flushInterval time.Duration
}

const (
	defaultBatchSize     = 64
	defaultFlushInterval = 1 * time.Second
	writerQueueDepth     = 1024
)

// NewWriter creates a buffered writer over the store.
func NewWriter(store *Store) *Writer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Writer{
		store:         store,
		queue:         make(chan *packet.Reading, writerQueueDepth),
		ctx:           ctx,
		cancel:        cancel,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
}

// Start launches the flush goroutine.
func (w *Writer) Start() {
	w.wg.Add(1)
	go w.run()
}

// Enqueue queues a reading for persistence. When the queue is full the
// reading is dropped with a warning rather than stalling the link goroutine;
// the sequence counters still account for it upstream.
func (w *Writer) Enqueue(r *packet.Reading) {
	select {
	case w.queue <- r:
	default:
		logging.Warn("Reading queue full, dropping reading from node %d seq %d", r.NodeID, r.Seq)
	}
}

// Shutdown stops the writer after flushing whatever is queued.
func (w *Writer) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

func (w *Writer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]*packet.Reading, 0, w.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.store.InsertReadings(ctx, batch); err != nil {
			logging.Error("Failed to flush %d readings: %v", len(batch), err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case r := <-w.queue:
			batch = append(batch, r)
			if len(batch) >= w.batchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-w.ctx.Done():
			// Drain the queue before the final flush
			for {
				select {
				case r := <-w.queue:
					batch = append(batch, r)
				default:
					flush()
					return
				}
			}
		}
	}
}
