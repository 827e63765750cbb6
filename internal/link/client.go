package link

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cortexhq/cortex/internal/ble"
	"github.com/cortexhq/cortex/internal/identity"
	"github.com/cortexhq/cortex/internal/packet"
)

// Client is the node side of a link: it dials the hub, presents an
// advertisement in its HELLO, and streams telemetry frames. The simulator and
// the BLE-serial bridge both use it.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to a hub and performs the HELLO handshake. The rssi value is
// what the bridge observed for a hardware node; the simulator passes a
// configured value.
func Dial(hubAddr string, id identity.Identity, mac [6]byte, rssi int8) (*Client, error) {
	adv, err := ble.BuildAdvertisement(id)
	if err != nil {
		return nil, fmt.Errorf("failed to build advertisement: %w", err)
	}

	conn, err := net.DialTimeout("tcp", hubAddr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to dial hub %s: %w", hubAddr, err)
	}

	hello := &Hello{
		MAC:     mac,
		RSSI:    rssi,
		AdvData: adv.AdvData,
		ScanRsp: adv.ScanRsp,
	}
	payload, err := hello.Encode()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := WriteFrame(conn, FrameHello, payload); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send HELLO: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Send encodes and transmits one telemetry packet.
func (c *Client) Send(pkt *packet.Packet) error {
	data, err := pkt.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteFrame(c.conn, FrameTelemetry, data)
}

// SendRaw transmits an already-encoded telemetry frame. The replay tool uses
// this to push captured frames through the full ingest path, bad CRCs and all.
func (c *Client) SendRaw(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteFrame(c.conn, FrameTelemetry, frame)
}

// Close closes the link.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
