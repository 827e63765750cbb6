package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cortexhq/cortex/internal/ble"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/cortexhq/cortex/internal/packet"
)

// Session tracks one connected node for the lifetime of its link.
type Session struct {
	MAC         string       // hardware address from HELLO
	RSSI        int8         // signal strength observed at connect time
	Node        ble.NodeInfo // identity parsed from the advertisement
	ConnectedAt time.Time

	mu        sync.Mutex
	lastSeq   uint16
	hasSeq    bool
	frames    uint64
	gaps      uint64 // sequence numbers skipped (dropped frames)
	resets    uint64 // counter restarts (node reboots)
	crcErrors uint64
}

// SessionStats is a point-in-time copy of a session's counters.
type SessionStats struct {
	MAC         string    `json:"mac"`
	RSSI        int8      `json:"rssi"`
	NodeID      uint8     `json:"node_id"`
	LocalName   string    `json:"local_name"`
	ConnectedAt time.Time `json:"connected_at"`
	Frames      uint64    `json:"frames"`
	Gaps        uint64    `json:"gaps"`
	Resets      uint64    `json:"resets"`
	CRCErrors   uint64    `json:"crc_errors"`
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionStats{
		MAC:         s.MAC,
		RSSI:        s.RSSI,
		NodeID:      s.Node.NodeID,
		LocalName:   s.Node.LocalName,
		ConnectedAt: s.ConnectedAt,
		Frames:      s.frames,
		Gaps:        s.gaps,
		Resets:      s.resets,
		CRCErrors:   s.crcErrors,
	}
}

// seqResetWindow splits the modular sequence space: a delta at or beyond it
// reads as a backward jump, which a counter that only increments cannot make.
const seqResetWindow = 0x8000

// recordSeq updates the per-session sequence accounting and returns how many
// frames were skipped since the last one. The counter wraps at 65535, so the
// gap is computed in modular arithmetic. A backward jump means the node
// rebooted and restarted its counter, not that half the stream was lost; it
// counts as a reset, never as a gap.
func (s *Session) recordSeq(seq uint16) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	if !s.hasSeq {
		s.hasSeq = true
		s.lastSeq = seq
		return 0
	}

	delta := seq - s.lastSeq
	s.lastSeq = seq

	switch {
	case delta == 0:
		return 0 // retransmit, not a gap
	case delta >= seqResetWindow:
		s.resets++
		return 0
	}

	gap := uint64(delta) - 1
	s.gaps += gap
	return gap
}

func (s *Session) recordCRCError() {
	s.mu.Lock()
	s.crcErrors++
	s.mu.Unlock()
}

// Handler receives every accepted telemetry packet with its session context.
// Called from the per-connection goroutine; implementations that block stall
// only that node's link.
type Handler func(sess *Session, pkt *packet.Packet)

// Listener accepts node links and streams their telemetry to a Handler.
type Listener struct {
	config       *Config
	handler      Handler
	onDisconnect func(*Session)

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	sessionLock sync.RWMutex
	sessions    map[string]*Session // keyed by MAC
}

// NewListener creates a link listener. The handler is invoked for every
// telemetry frame that passes admission and CRC checks.
func NewListener(cfg *Config, handler Handler) (*Listener, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Listener{
		config:   cfg,
		handler:  handler,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}, nil
}

// OnDisconnect registers a hook invoked after a node's session is removed,
// so downstream caches can evict the departed source. Not invoked when a
// reconnect has already replaced the session. Must be set before Start.
func (l *Listener) OnDisconnect(fn func(*Session)) {
	l.onDisconnect = fn
}

// Start binds the listener and begins accepting node links.
func (l *Listener) Start() error {
	addr := fmt.Sprintf("%s:%d", l.config.BindAddr, l.config.BindPort)
	logging.Info("Starting link listener on %s (min RSSI %d dBm)", addr, l.config.MinRSSI)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind link listener to %s: %w", addr, err)
	}
	l.listener = listener

	l.wg.Add(1)
	go l.acceptLoop()

	logging.Success("Link listener started successfully")
	return nil
}

// Addr returns the bound address. Useful when the configured port is 0 in
// tests.
func (l *Listener) Addr() net.Addr {
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Shutdown stops accepting links and closes all active sessions.
func (l *Listener) Shutdown() error {
	logging.Info("Shutting down link listener")

	l.cancel()
	if l.listener != nil {
		if err := l.listener.Close(); err != nil {
			logging.Warn("Error closing link listener: %v", err)
		}
	}
	l.wg.Wait()

	logging.Success("Link listener shutdown completed")
	return nil
}

// Sessions returns stats for all currently connected nodes.
func (l *Listener) Sessions() []SessionStats {
	l.sessionLock.RLock()
	defer l.sessionLock.RUnlock()

	stats := make([]SessionStats, 0, len(l.sessions))
	for _, sess := range l.sessions {
		stats = append(stats, sess.Stats())
	}
	return stats
}

// Session returns the session for a MAC, if connected.
func (l *Listener) Session(mac string) (*Session, bool) {
	l.sessionLock.RLock()
	defer l.sessionLock.RUnlock()

	sess, ok := l.sessions[mac]
	return sess, ok
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-l.ctx.Done():
				return
			default:
			}
			logging.Warn("Link accept failed: %v", err)
			continue
		}

		l.wg.Add(1)
		go l.handleConn(conn)
	}
}

// handleConn runs one node link: HELLO admission, then the telemetry stream.
func (l *Listener) handleConn(conn net.Conn) {
	defer l.wg.Done()
	defer conn.Close()

	// A node that connects and never sends HELLO should not pin a goroutine
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	sess, err := l.admit(conn)
	if err != nil {
		if !errors.Is(err, ble.ErrNotCortex) {
			logging.Debug("Rejected link from %s: %v", conn.RemoteAddr(), err)
		}
		return
	}
	conn.SetReadDeadline(time.Time{})

	l.sessionLock.Lock()
	if prev, ok := l.sessions[sess.MAC]; ok {
		// A node reconnecting through the bridge replaces its stale session
		logging.Warn("Node %s reconnected, replacing session from %s",
			sess.MAC, prev.ConnectedAt.Format(time.RFC3339))
	}
	l.sessions[sess.MAC] = sess
	l.sessionLock.Unlock()

	logging.Info("Node link up: %s (%s, node %d, RSSI %d dBm)",
		sess.Node.LocalName, sess.MAC, sess.Node.NodeID, sess.RSSI)

	l.streamTelemetry(conn, sess)

	l.sessionLock.Lock()
	current := l.sessions[sess.MAC] == sess
	if current {
		delete(l.sessions, sess.MAC)
	}
	l.sessionLock.Unlock()

	if current && l.onDisconnect != nil {
		l.onDisconnect(sess)
	}

	stats := sess.Stats()
	logging.Info("Node link down: %s (%d frames, %d gaps, %d resets, %d CRC errors)",
		sess.MAC, stats.Frames, stats.Gaps, stats.Resets, stats.CRCErrors)
}

// admit reads the HELLO frame and applies the admission rules: the frame must
// parse, the advertisement must carry the CORTEX service UUID, and the signal
// must clear the RSSI floor.
func (l *Listener) admit(conn net.Conn) (*Session, error) {
	frameType, payload, err := ReadFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read HELLO: %w", err)
	}
	if frameType != FrameHello {
		return nil, fmt.Errorf("expected HELLO, got frame type 0x%02x", frameType)
	}

	hello, err := DecodeHello(payload)
	if err != nil {
		return nil, err
	}

	info, err := ble.ParseAdvertisement(&ble.Advertisement{
		AdvData: hello.AdvData,
		ScanRsp: hello.ScanRsp,
	})
	if err != nil {
		return nil, err
	}

	if int(hello.RSSI) < l.config.MinRSSI {
		return nil, fmt.Errorf("signal too weak: %d dBm below floor %d dBm",
			hello.RSSI, l.config.MinRSSI)
	}

	return &Session{
		MAC:         hello.MACString(),
		RSSI:        hello.RSSI,
		Node:        *info,
		ConnectedAt: time.Now(),
	}, nil
}

// streamTelemetry consumes telemetry frames until the link closes.
func (l *Listener) streamTelemetry(conn net.Conn, sess *Session) {
	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		frameType, payload, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logging.Debug("Link %s read error: %v", sess.MAC, err)
			}
			return
		}
		if frameType != FrameTelemetry {
			logging.Debug("Link %s sent unexpected frame type 0x%02x, dropping link",
				sess.MAC, frameType)
			return
		}

		pkt, err := packet.Decode(payload)
		if err != nil {
			if errors.Is(err, packet.ErrBadCRC) {
				sess.recordCRCError()
				logging.Debug("Link %s: dropping corrupted frame: %v", sess.MAC, err)
				continue
			}
			// Size or magic errors mean the stream itself is broken
			logging.Warn("Link %s: unrecoverable frame error: %v", sess.MAC, err)
			return
		}

		if gap := sess.recordSeq(pkt.Seq); gap > 0 {
			logging.Debug("Link %s: %d frames lost before seq %d", sess.MAC, gap, pkt.Seq)
		}

		l.handler(sess, pkt)
	}
}
