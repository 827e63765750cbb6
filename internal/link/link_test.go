package link

import (
	"bytes"
	"context"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cortexhq/cortex/internal/identity"
	"github.com/cortexhq/cortex/internal/packet"
)

// TestFrameRoundTrip verifies the wire framing
func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	if err := WriteFrame(&buf, FrameTelemetry, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	frameType, got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if frameType != FrameTelemetry {
		t.Errorf("frame type = 0x%02x, want 0x%02x", frameType, FrameTelemetry)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
}

// TestFrameRejectsOversized enforces the frame length bound on both sides
func TestFrameRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, FrameTelemetry, make([]byte, MaxFrameLen+1)); err == nil {
		t.Error("WriteFrame accepted an oversized payload")
	}

	// Hand-craft an oversized header
	oversized := []byte{FrameTelemetry, 0xFF, 0xFF}
	if _, _, err := ReadFrame(bytes.NewReader(oversized)); err == nil {
		t.Error("ReadFrame accepted an oversized length")
	}
}

// TestHelloRoundTrip verifies the HELLO codec
func TestHelloRoundTrip(t *testing.T) {
	hello := &Hello{
		MAC:     [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		RSSI:    -63,
		AdvData: []byte{0x02, 0x01, 0x06},
		ScanRsp: []byte{0x05, 0x09, 'N', 'o', 'd', 'e'},
	}

	encoded, err := hello.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := DecodeHello(encoded)
	if err != nil {
		t.Fatalf("DecodeHello failed: %v", err)
	}

	if decoded.MACString() != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MACString = %q", decoded.MACString())
	}
	if decoded.RSSI != -63 {
		t.Errorf("RSSI = %d, want -63", decoded.RSSI)
	}
	if !bytes.Equal(decoded.AdvData, hello.AdvData) || !bytes.Equal(decoded.ScanRsp, hello.ScanRsp) {
		t.Error("advertising payloads lost in round trip")
	}
}

// TestSessionSeqGapAccounting tests gap tracking across the uint16 wrap
func TestSessionSeqGapAccounting(t *testing.T) {
	sess := &Session{}

	if gap := sess.recordSeq(10); gap != 0 {
		t.Errorf("first frame reported gap %d", gap)
	}
	if gap := sess.recordSeq(11); gap != 0 {
		t.Errorf("consecutive frame reported gap %d", gap)
	}
	if gap := sess.recordSeq(15); gap != 3 {
		t.Errorf("gap after skip = %d, want 3", gap)
	}
	if gap := sess.recordSeq(15); gap != 0 {
		t.Errorf("retransmit reported gap %d", gap)
	}

	// Wrap: 65535 -> 1 skips seq 0
	sess2 := &Session{}
	sess2.recordSeq(65535)
	if gap := sess2.recordSeq(1); gap != 1 {
		t.Errorf("gap across wrap = %d, want 1", gap)
	}

	stats := sess.Stats()
	if stats.Frames != 4 || stats.Gaps != 3 {
		t.Errorf("stats = %d frames / %d gaps, want 4 / 3", stats.Frames, stats.Gaps)
	}
}

// TestSessionSeqRebootDetection verifies that a counter restarting from zero
// is booked as a reset, not as tens of thousands of lost frames
func TestSessionSeqRebootDetection(t *testing.T) {
	sess := &Session{}
	sess.recordSeq(5000)

	if gap := sess.recordSeq(0); gap != 0 {
		t.Errorf("counter restart reported gap %d, want 0", gap)
	}
	if stats := sess.Stats(); stats.Gaps != 0 || stats.Resets != 1 {
		t.Errorf("stats after restart = %d gaps / %d resets, want 0 / 1",
			stats.Gaps, stats.Resets)
	}

	// Accounting resumes normally against the restarted counter
	if gap := sess.recordSeq(4); gap != 3 {
		t.Errorf("gap after restart = %d, want 3", gap)
	}
}

// testListener starts a listener on an ephemeral port and collects packets
func testListener(t *testing.T, minRSSI int) (*Listener, *sync.Map) {
	return testListenerHooked(t, minRSSI, nil)
}

// testListenerHooked additionally installs a disconnect hook before accepting
func testListenerHooked(t *testing.T, minRSSI int, onDisconnect func(*Session)) (*Listener, *sync.Map) {
	t.Helper()

	var received sync.Map // seq -> *packet.Packet
	cfg := DefaultConfig()
	cfg.BindAddr = "127.0.0.1"
	cfg.BindPort = 0
	cfg.MinRSSI = minRSSI

	// Port 0 is rejected by config validation but fine for tests
	listener := &Listener{
		config:       cfg,
		handler:      func(sess *Session, pkt *packet.Packet) { received.Store(pkt.Seq, pkt) },
		onDisconnect: onDisconnect,
		sessions:     make(map[string]*Session),
	}
	listener.ctx, listener.cancel = context.WithCancel(context.Background())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to bind test listener: %v", err)
	}
	listener.listener = l
	listener.wg.Add(1)
	go listener.acceptLoop()

	t.Cleanup(func() { listener.Shutdown() })
	return listener, &received
}

// TestLinkEndToEnd drives a client through HELLO and telemetry
func TestLinkEndToEnd(t *testing.T) {
	listener, received := testListener(t, -80)

	id, _ := identity.New(9, "CortexNode-Basalt")
	client, err := Dial(listener.Addr().String(), id, [6]byte{1, 2, 3, 4, 5, 6}, -55)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	pkt := &packet.Packet{
		NodeID: 9, Seq: 100, TimestampMS: 5000,
		TempC: 21.0, RHPct: 50.0, PressureHPa: 1000.0,
		Lux: float32(math.NaN()), AccelG: 1.0, SoundDBFS: -40.0, BatteryV: 3.6,
	}
	if err := client.Send(pkt); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	waitFor(t, func() bool {
		_, ok := received.Load(uint16(100))
		return ok
	}, "packet never reached the handler")

	sessions := listener.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].NodeID != 9 || sessions[0].LocalName != "CortexNode-Basalt" {
		t.Errorf("session identity = %+v", sessions[0])
	}
	if sessions[0].RSSI != -55 {
		t.Errorf("session RSSI = %d, want -55", sessions[0].RSSI)
	}
}

// TestLinkRejectsWeakSignal verifies the RSSI floor
func TestLinkRejectsWeakSignal(t *testing.T) {
	listener, received := testListener(t, -80)

	id, _ := identity.New(3, "CortexNode-Fog")
	client, err := Dial(listener.Addr().String(), id, [6]byte{9, 9, 9, 9, 9, 9}, -92)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	// The hub closes the link instead of consuming telemetry
	pkt := &packet.Packet{NodeID: 3, Seq: 1}
	client.Send(pkt)

	time.Sleep(200 * time.Millisecond)
	if _, ok := received.Load(uint16(1)); ok {
		t.Error("handler received a packet from a below-floor link")
	}
	if len(listener.Sessions()) != 0 {
		t.Error("below-floor link got a session")
	}
}

// TestLinkEvictsSessionOnDisconnect verifies cleanup
func TestLinkEvictsSessionOnDisconnect(t *testing.T) {
	listener, _ := testListener(t, -80)

	id, _ := identity.New(7, "CortexNode-Iris")
	client, err := Dial(listener.Addr().String(), id, [6]byte{1, 1, 1, 1, 1, 1}, -60)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	waitFor(t, func() bool { return len(listener.Sessions()) == 1 }, "session never registered")

	client.Close()

	waitFor(t, func() bool { return len(listener.Sessions()) == 0 }, "session not evicted after disconnect")
}

// TestLinkDisconnectHookFires verifies the downstream eviction hook runs when
// a node that streamed telemetry drops its link
func TestLinkDisconnectHookFires(t *testing.T) {
	var gone sync.Map // MAC -> node ID
	listener, received := testListenerHooked(t, -80, func(sess *Session) {
		gone.Store(sess.MAC, sess.Node.NodeID)
	})

	id, _ := identity.New(4, "CortexNode-Slate")
	client, err := Dial(listener.Addr().String(), id, [6]byte{4, 4, 4, 4, 4, 4}, -58)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := client.Send(&packet.Packet{NodeID: 4, Seq: 1, TempC: 22}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	waitFor(t, func() bool {
		_, ok := received.Load(uint16(1))
		return ok
	}, "packet never reached the handler")

	client.Close()

	waitFor(t, func() bool {
		_, ok := gone.Load("04:04:04:04:04:04")
		return ok
	}, "disconnect hook never fired for the departed node")

	nodeID, _ := gone.Load("04:04:04:04:04:04")
	if nodeID != uint8(4) {
		t.Errorf("hook saw node %v, want 4", nodeID)
	}
}

// TestLinkReconnectSkipsStaleDisconnect verifies that when a node reconnects,
// the death of its replaced link does not evict the fresh session
func TestLinkReconnectSkipsStaleDisconnect(t *testing.T) {
	var hookCalls sync.Map
	listener, _ := testListenerHooked(t, -80, func(sess *Session) {
		hookCalls.Store(sess.ConnectedAt, sess.MAC)
	})

	mac := [6]byte{6, 6, 6, 6, 6, 6}
	id, _ := identity.New(6, "CortexNode-Cedar")

	first, err := Dial(listener.Addr().String(), id, mac, -60)
	if err != nil {
		t.Fatalf("first Dial failed: %v", err)
	}
	waitFor(t, func() bool { return len(listener.Sessions()) == 1 }, "first session never registered")
	stale, _ := listener.Session("06:06:06:06:06:06")

	second, err := Dial(listener.Addr().String(), id, mac, -60)
	if err != nil {
		t.Fatalf("second Dial failed: %v", err)
	}
	defer second.Close()
	waitFor(t, func() bool {
		sess, ok := listener.Session("06:06:06:06:06:06")
		return ok && sess != stale
	}, "reconnect never replaced the session")

	// The replaced link dying must not disturb the live session
	first.Close()
	time.Sleep(200 * time.Millisecond)

	fired := 0
	hookCalls.Range(func(_, _ any) bool { fired++; return true })
	if fired != 0 {
		t.Errorf("disconnect hook fired %d time(s) for a replaced link", fired)
	}
	if len(listener.Sessions()) != 1 {
		t.Errorf("live session lost after the replaced link closed")
	}
}

// TestLinkSurvivesCorruptedFrame verifies a bad CRC drops the frame, not the link
func TestLinkSurvivesCorruptedFrame(t *testing.T) {
	listener, received := testListener(t, -80)

	id, _ := identity.New(5, "CortexNode-Onyx")
	client, err := Dial(listener.Addr().String(), id, [6]byte{2, 2, 2, 2, 2, 2}, -50)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	good := &packet.Packet{NodeID: 5, Seq: 1, TempC: 20}
	corrupted, _ := good.Encode()
	corrupted[12] ^= 0xFF

	if err := client.SendRaw(corrupted); err != nil {
		t.Fatalf("SendRaw failed: %v", err)
	}

	follow := &packet.Packet{NodeID: 5, Seq: 2, TempC: 20}
	if err := client.Send(follow); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	waitFor(t, func() bool {
		_, ok := received.Load(uint16(2))
		return ok
	}, "link did not survive the corrupted frame")

	if _, ok := received.Load(uint16(1)); ok {
		t.Error("corrupted frame reached the handler")
	}

	sess, ok := listener.Session("02:02:02:02:02:02")
	if !ok {
		t.Fatal("session missing")
	}
	if stats := sess.Stats(); stats.CRCErrors != 1 {
		t.Errorf("CRCErrors = %d, want 1", stats.CRCErrors)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
