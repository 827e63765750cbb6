// Package link implements the node-to-hub transport for CORTEX telemetry.
//
// Hardware nodes reach the hub over a BLE-serial bridge; the bridge, the node
// simulator, and test tooling all speak the same framed TCP protocol to the
// hub's link listener. A connection opens with a HELLO frame carrying the
// node's advertising payload and the RSSI the bridge observed, then streams
// telemetry frames until the node disconnects. The hub applies the same
// admission rules a BLE central would: service UUID filter and minimum RSSI.
package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame types on the wire
const (
	FrameHello     = 0x01 // connection opener: advertising payload + RSSI
	FrameTelemetry = 0x02 // one 44-byte telemetry frame
)

// MaxFrameLen bounds a single frame payload. HELLO carries at most two
// 31-byte advertising payloads plus the MAC and RSSI; telemetry is fixed at
// 44 bytes. Anything larger is a protocol violation, not a big message.
const MaxFrameLen = 128

var (
	ErrFrameTooLarge = errors.New("link: frame exceeds maximum length")
	ErrBadHello      = errors.New("link: malformed HELLO frame")
)

// WriteFrame writes a single frame: [type: 1 byte] [length: 2 bytes LE]
// [payload]. The length counts the payload only.
func WriteFrame(w io.Writer, frameType byte, payload []byte) error {
	if len(payload) > MaxFrameLen {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	header := make([]byte, 3)
	header[0] = frameType
	binary.LittleEndian.PutUint16(header[1:3], uint16(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}

	return nil
}

// ReadFrame reads a single frame from the wire. Returns io.EOF on a clean
// close between frames.
func ReadFrame(r io.Reader) (frameType byte, payload []byte, err error) {
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint16(header[1:3])
	if length > MaxFrameLen {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("failed to read frame payload: %w", err)
	}

	return header[0], payload, nil
}

// Hello is the connection opener. It carries what a BLE central learns during
// a scan: the device address, the observed signal strength, and the raw
// advertising payloads.
type Hello struct {
	MAC     [6]byte // node hardware address
	RSSI    int8    // observed signal strength, dBm
	AdvData []byte
	ScanRsp []byte
}

// MACString formats the hardware address in the usual colon notation.
func (h *Hello) MACString() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		h.MAC[0], h.MAC[1], h.MAC[2], h.MAC[3], h.MAC[4], h.MAC[5])
}

// Encode serializes the HELLO payload:
// [MAC: 6] [RSSI: 1, signed] [advLen: 1] [advData] [rspLen: 1] [scanRsp]
func (h *Hello) Encode() ([]byte, error) {
	if len(h.AdvData) > 255 || len(h.ScanRsp) > 255 {
		return nil, fmt.Errorf("%w: advertising payload too long", ErrBadHello)
	}

	buf := make([]byte, 0, 9+len(h.AdvData)+len(h.ScanRsp))
	buf = append(buf, h.MAC[:]...)
	buf = append(buf, byte(h.RSSI))
	buf = append(buf, byte(len(h.AdvData)))
	buf = append(buf, h.AdvData...)
	buf = append(buf, byte(len(h.ScanRsp)))
	buf = append(buf, h.ScanRsp...)

	return buf, nil
}

// DecodeHello parses a HELLO payload.
func DecodeHello(data []byte) (*Hello, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadHello, len(data))
	}

	h := &Hello{RSSI: int8(data[6])}
	copy(h.MAC[:], data[0:6])

	offset := 7
	advLen := int(data[offset])
	offset++
	if offset+advLen+1 > len(data) {
		return nil, fmt.Errorf("%w: advertising data overruns payload", ErrBadHello)
	}
	h.AdvData = append([]byte(nil), data[offset:offset+advLen]...)
	offset += advLen

	rspLen := int(data[offset])
	offset++
	if offset+rspLen != len(data) {
		return nil, fmt.Errorf("%w: scan response length mismatch", ErrBadHello)
	}
	h.ScanRsp = append([]byte(nil), data[offset:offset+rspLen]...)

	return h, nil
}
