// Package packet implements the CORTEX telemetry wire format.
//
// Nodes emit fixed-size 44-byte little-endian frames, one per sensor sweep.
// The layout is:
//
//	offset  size  field
//	0       4     magic "CTX1"
//	4       1     node ID (0-254; 255 reserved for broadcast)
//	5       1     flags (bit0: low battery)
//	6       2     sequence counter (wraps at 65535)
//	8       4     node uptime in milliseconds
//	12      4     temperature, degrees C (float32)
//	16      4     relative humidity, percent (float32)
//	20      4     barometric pressure, hPa (float32)
//	24      4     illuminance, lux (float32)
//	28      4     acceleration magnitude, g (float32)
//	32      4     sound level, dBFS (float32)
//	36      4     battery voltage, V (float32)
//	40      4     CRC-32 (IEEE) over bytes 0-39
//
// A node without a given sensor reports NaN in that field; decoding maps NaN
// to nil so downstream JSON carries null rather than a value JSON cannot
// represent. The CRC catches the corruption a flaky BLE-serial bridge can
// introduce that a length check alone would miss.
package packet

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"time"
)

const (
	// Size is the exact encoded frame size in bytes.
	Size = 44

	// BroadcastNodeID is reserved in the wire protocol and never identifies
	// a real node.
	BroadcastNodeID = 255

	// FlagLowBattery is set by nodes running below their battery cutoff.
	FlagLowBattery = 0x01
)

// Magic identifies a CORTEX telemetry frame.
var Magic = [4]byte{'C', 'T', 'X', '1'}

// Decode error sentinels. Callers distinguish framing bugs (size), foreign
// traffic (magic), and corruption (CRC) for link accounting.
var (
	ErrBadSize        = errors.New("packet: wrong frame size")
	ErrBadMagic       = errors.New("packet: bad magic")
	ErrBadCRC         = errors.New("packet: CRC mismatch")
	ErrReservedNodeID = errors.New("packet: node ID 255 is reserved")
)

// Packet is a decoded telemetry frame. Sensor fields hold NaN when the node
// has no such sensor; use Reading for the nullable JSON view.
type Packet struct {
	NodeID      uint8
	Flags       uint8
	Seq         uint16
	TimestampMS uint32

	TempC       float32
	RHPct       float32
	PressureHPa float32
	Lux         float32
	AccelG      float32
	SoundDBFS   float32
	BatteryV    float32
}

// Encode serializes the packet into the 44-byte wire format, computing the
// trailing CRC. Returns an error if the node ID is the reserved broadcast
// value; a validated identity can never trip this.
func (p *Packet) Encode() ([]byte, error) {
	if p.NodeID == BroadcastNodeID {
		return nil, ErrReservedNodeID
	}

	buf := make([]byte, Size)
	copy(buf[0:4], Magic[:])
	buf[4] = p.NodeID
	buf[5] = p.Flags
	binary.LittleEndian.PutUint16(buf[6:8], p.Seq)
	binary.LittleEndian.PutUint32(buf[8:12], p.TimestampMS)
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(p.TempC))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(p.RHPct))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(p.PressureHPa))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(p.Lux))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(p.AccelG))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(p.SoundDBFS))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(p.BatteryV))
	binary.LittleEndian.PutUint32(buf[40:44], crc32.ChecksumIEEE(buf[0:40]))

	return buf, nil
}

// Decode parses and verifies a 44-byte telemetry frame.
func Decode(data []byte) (*Packet, error) {
	if len(data) != Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadSize, len(data), Size)
	}
	if [4]byte(data[0:4]) != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, data[0:4])
	}

	wantCRC := binary.LittleEndian.Uint32(data[40:44])
	if gotCRC := crc32.ChecksumIEEE(data[0:40]); gotCRC != wantCRC {
		return nil, fmt.Errorf("%w: computed %08x, frame carries %08x", ErrBadCRC, gotCRC, wantCRC)
	}

	p := &Packet{
		NodeID:      data[4],
		Flags:       data[5],
		Seq:         binary.LittleEndian.Uint16(data[6:8]),
		TimestampMS: binary.LittleEndian.Uint32(data[8:12]),
		TempC:       math.Float32frombits(binary.LittleEndian.Uint32(data[12:16])),
		RHPct:       math.Float32frombits(binary.LittleEndian.Uint32(data[16:20])),
		PressureHPa: math.Float32frombits(binary.LittleEndian.Uint32(data[20:24])),
		Lux:         math.Float32frombits(binary.LittleEndian.Uint32(data[24:28])),
		AccelG:      math.Float32frombits(binary.LittleEndian.Uint32(data[28:32])),
		SoundDBFS:   math.Float32frombits(binary.LittleEndian.Uint32(data[32:36])),
		BatteryV:    math.Float32frombits(binary.LittleEndian.Uint32(data[36:40])),
	}

	if p.NodeID == BroadcastNodeID {
		return nil, ErrReservedNodeID
	}

	return p, nil
}

// LowBattery reports whether the node set its low battery flag.
func (p *Packet) LowBattery() bool {
	return p.Flags&FlagLowBattery != 0
}

// Reading is the ingested view of a packet: sensor values become nullable so
// absent sensors serialize as JSON null, and the hub's receive timestamp and
// the source link address are attached. This is the shape stored in the
// database and published over IPC.
type Reading struct {
	TsUTC  string `json:"ts_utc"`
	MAC    string `json:"mac"`
	NodeID uint8  `json:"node_id"`
	Seq    uint16 `json:"seq"`
	TMS    uint32 `json:"t_ms"`

	TempC       *float64 `json:"temp_c"`
	RHPct       *float64 `json:"rh_pct"`
	PressureHPa *float64 `json:"pressure_hpa"`
	Lux         *float64 `json:"lux"`
	AccelG      *float64 `json:"accel_g"`
	SoundDBFS   *float64 `json:"sound_dbfs"`
	BatteryV    *float64 `json:"battery_v"`

	LowBattery bool `json:"low_battery,omitempty"`
}

// ToReading converts a decoded packet into a Reading attributed to the given
// source address at the given receive time. NaN sensor values become nil.
func (p *Packet) ToReading(mac string, at time.Time) *Reading {
	return &Reading{
		TsUTC:       at.UTC().Format(time.RFC3339Nano),
		MAC:         mac,
		NodeID:      p.NodeID,
		Seq:         p.Seq,
		TMS:         p.TimestampMS,
		TempC:       nullableF32(p.TempC),
		RHPct:       nullableF32(p.RHPct),
		PressureHPa: nullableF32(p.PressureHPa),
		Lux:         nullableF32(p.Lux),
		AccelG:      nullableF32(p.AccelG),
		SoundDBFS:   nullableF32(p.SoundDBFS),
		BatteryV:    nullableF32(p.BatteryV),
		LowBattery:  p.LowBattery(),
	}
}

// Metric returns the named sensor value, or nil when the sensor is absent.
// Metric names match the JSON/database column names.
func (r *Reading) Metric(name string) *float64 {
	switch name {
	case "temp_c":
		return r.TempC
	case "rh_pct":
		return r.RHPct
	case "pressure_hpa":
		return r.PressureHPa
	case "lux":
		return r.Lux
	case "accel_g":
		return r.AccelG
	case "sound_dbfs":
		return r.SoundDBFS
	case "battery_v":
		return r.BatteryV
	}
	return nil
}

// MetricNames lists the sensor metrics carried by a reading, in wire order.
var MetricNames = []string{
	"temp_c", "rh_pct", "pressure_hpa", "lux", "accel_g", "sound_dbfs", "battery_v",
}

// MarshalJSONString renders the reading as a single JSON line for the IPC
// stream.
func (r *Reading) MarshalJSONString() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reading: %w", err)
	}
	return string(b), nil
}

func nullableF32(v float32) *float64 {
	if math.IsNaN(float64(v)) {
		return nil
	}
	f := float64(v)
	return &f
}
