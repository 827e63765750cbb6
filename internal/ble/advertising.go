package ble

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cortexhq/cortex/internal/identity"
	"github.com/google/uuid"
)

// AD Types (Advertising Data Types) used by CORTEX advertisements
const (
	ADTypeFlags                      = 0x01 // Flags
	ADTypeComplete128BitServiceUUIDs = 0x07 // Complete List of 128-bit Service UUIDs
	ADTypeShortenedLocalName         = 0x08 // Shortened Local Name
	ADTypeCompleteLocalName          = 0x09 // Complete Local Name
	ADTypeTxPowerLevel               = 0x0A // Tx Power Level
	ADTypeManufacturerSpecificData   = 0xFF // Manufacturer Specific Data
)

// Advertising Flags (used in ADTypeFlags)
const (
	FlagLEGeneralDiscoverableMode = 0x02 // LE General Discoverable Mode
	FlagBREDRNotSupported         = 0x04 // BR/EDR Not Supported
)

// MaxAdvertisingDataLen is the BLE 4.x legacy advertising payload limit.
// Both the advertising data and the scan response get this budget.
const MaxAdvertisingDataLen = 31

// ADStructure is a single TLV entry in advertising data.
// Wire format: [Length: 1 byte] [Type: 1 byte] [Data: N bytes], where Length
// counts the Type byte but not itself.
type ADStructure struct {
	Type byte
	Data []byte
}

// EncodeADStructures encodes AD structures into a single advertising payload,
// enforcing the 31-byte budget.
func EncodeADStructures(structures []ADStructure) ([]byte, error) {
	var buf []byte

	for _, s := range structures {
		length := 1 + len(s.Data)
		if length > 255 {
			return nil, fmt.Errorf("AD structure too long: %d bytes (max 255)", length)
		}

		buf = append(buf, byte(length))
		buf = append(buf, s.Type)
		buf = append(buf, s.Data...)
	}

	if len(buf) > MaxAdvertisingDataLen {
		return nil, fmt.Errorf("advertising data exceeds %d bytes: %d", MaxAdvertisingDataLen, len(buf))
	}

	return buf, nil
}

// DecodeADStructures parses advertising data into individual AD structures.
// A zero length byte terminates parsing (padding convention).
func DecodeADStructures(data []byte) ([]ADStructure, error) {
	var structures []ADStructure
	offset := 0

	for offset < len(data) {
		length := int(data[offset])
		if length == 0 {
			break
		}

		offset++
		if offset+length > len(data) {
			return nil, fmt.Errorf("AD structure length exceeds data: length=%d, remaining=%d",
				length, len(data)-offset)
		}

		adType := data[offset]
		offset++
		adData := make([]byte, length-1)
		copy(adData, data[offset:offset+length-1])
		offset += length - 1

		structures = append(structures, ADStructure{Type: adType, Data: adData})
	}

	return structures, nil
}

// Advertisement is the discovery-time presentation of a node: the advertising
// payload proper plus the scan response. CORTEX puts flags, the service UUID,
// and the node ID in the advertising payload; the local name rides in the scan
// response where it gets a 29-byte budget of its own.
type Advertisement struct {
	AdvData []byte // flags + service UUID + manufacturer data
	ScanRsp []byte // complete or shortened local name
}

// nameBudget is the room left for the local name inside a scan response:
// the 31-byte payload minus the TLV length and type bytes.
const nameBudget = MaxAdvertisingDataLen - 2

// BuildAdvertisement constructs the advertisement for a node identity.
// The local name is truncated to the scan response budget when necessary and
// advertised with the Shortened Local Name type in that case, so scanners can
// tell a clipped name from a complete one.
func BuildAdvertisement(id identity.Identity) (*Advertisement, error) {
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("invalid identity: %w", err)
	}

	airUUID := UUIDToAirOrder(ServiceUUID)

	mfg := make([]byte, 3)
	binary.LittleEndian.PutUint16(mfg[0:2], CompanyID)
	mfg[2] = id.NodeID

	advData, err := EncodeADStructures([]ADStructure{
		{Type: ADTypeFlags, Data: []byte{FlagLEGeneralDiscoverableMode | FlagBREDRNotSupported}},
		{Type: ADTypeComplete128BitServiceUUIDs, Data: airUUID[:]},
		{Type: ADTypeManufacturerSpecificData, Data: mfg},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode advertising data: %w", err)
	}

	nameType := byte(ADTypeCompleteLocalName)
	if id.IsShortened(nameBudget) {
		nameType = ADTypeShortenedLocalName
	}
	scanRsp, err := EncodeADStructures([]ADStructure{
		{Type: nameType, Data: []byte(id.AdvertisedName(nameBudget))},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scan response: %w", err)
	}

	return &Advertisement{AdvData: advData, ScanRsp: scanRsp}, nil
}

// ErrNotCortex marks advertisements that do not carry the CORTEX service UUID.
var ErrNotCortex = errors.New("ble: advertisement does not carry the CORTEX service UUID")

// NodeInfo is what a hub learns about a node from its advertisement.
type NodeInfo struct {
	NodeID    uint8
	LocalName string
	Shortened bool // name was truncated to fit the scan response
}

// ParseAdvertisement validates an advertisement against the CORTEX service
// UUID and extracts the node identity details. Returns ErrNotCortex for
// foreign devices so scanners can skip them quietly.
func ParseAdvertisement(adv *Advertisement) (*NodeInfo, error) {
	advStructs, err := DecodeADStructures(adv.AdvData)
	if err != nil {
		return nil, fmt.Errorf("malformed advertising data: %w", err)
	}

	if !carriesServiceUUID(advStructs, ServiceUUID) {
		return nil, ErrNotCortex
	}

	info := &NodeInfo{}

	companyID, mfgData, ok := manufacturerData(advStructs)
	if !ok || companyID != CompanyID || len(mfgData) < 1 {
		return nil, fmt.Errorf("advertisement carries no CORTEX node ID")
	}
	info.NodeID = mfgData[0]

	if len(adv.ScanRsp) > 0 {
		rspStructs, err := DecodeADStructures(adv.ScanRsp)
		if err != nil {
			return nil, fmt.Errorf("malformed scan response: %w", err)
		}
		for _, s := range rspStructs {
			switch s.Type {
			case ADTypeCompleteLocalName:
				info.LocalName = string(s.Data)
			case ADTypeShortenedLocalName:
				info.LocalName = string(s.Data)
				info.Shortened = true
			}
		}
	}

	return info, nil
}

// carriesServiceUUID reports whether any 128-bit service UUID list contains
// the given UUID.
func carriesServiceUUID(structures []ADStructure, want uuid.UUID) bool {
	for _, s := range structures {
		if s.Type != ADTypeComplete128BitServiceUUIDs || len(s.Data)%16 != 0 {
			continue
		}
		for i := 0; i+16 <= len(s.Data); i += 16 {
			var air [16]byte
			copy(air[:], s.Data[i:i+16])
			if UUIDFromAirOrder(air) == want {
				return true
			}
		}
	}
	return false
}

// manufacturerData extracts the first manufacturer-specific data structure.
func manufacturerData(structures []ADStructure) (companyID uint16, data []byte, found bool) {
	for _, s := range structures {
		if s.Type == ADTypeManufacturerSpecificData && len(s.Data) >= 2 {
			return binary.LittleEndian.Uint16(s.Data[0:2]), s.Data[2:], true
		}
	}
	return 0, nil, false
}
