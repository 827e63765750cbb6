// Package ble implements the BLE advertising data layer for CORTEX nodes.
//
// Only the advertising surface lives here: AD structure (TLV) encoding with
// the 31-byte legacy payload budget, the CORTEX service and characteristic
// UUIDs, and construction of the advertisement a node presents at discovery
// time. The radio itself is out of scope - hardware nodes advertise from
// firmware and reach the hub through a BLE-serial bridge; this package is what
// the bridge, the simulator, and the hub's HELLO validation share.
package ble

import (
	"github.com/google/uuid"
)

// CORTEX GATT identifiers. The characteristic UUID differs from the service
// UUID only in the third hex digit group of the first field, mirroring the
// usual base-UUID convention for custom services.
var (
	// ServiceUUID identifies the CORTEX telemetry service in advertisements.
	// Hubs ignore devices that do not advertise it.
	ServiceUUID = uuid.MustParse("6b3a0001-b5a3-f393-e0a9-e50e24dcca9e")

	// TelemetryCharUUID identifies the notify characteristic carrying CTX1
	// frames on hardware nodes.
	TelemetryCharUUID = uuid.MustParse("6b3a0002-b5a3-f393-e0a9-e50e24dcca9e")
)

// CompanyID is the manufacturer-specific data company identifier used in
// CORTEX advertisements. 0xFFFF is the Bluetooth SIG value reserved for
// internal use and prototypes.
const CompanyID uint16 = 0xFFFF

// UUIDToAirOrder converts a UUID to the little-endian byte order used on air
// in 128-bit service UUID AD structures.
func UUIDToAirOrder(u uuid.UUID) [16]byte {
	var out [16]byte
	for i := 0; i < 16; i++ {
		out[i] = u[15-i]
	}
	return out
}

// UUIDFromAirOrder converts on-air little-endian bytes back to a UUID.
func UUIDFromAirOrder(b [16]byte) uuid.UUID {
	var u uuid.UUID
	for i := 0; i < 16; i++ {
		u[i] = b[15-i]
	}
	return u
}
