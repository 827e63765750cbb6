package ble

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/cortexhq/cortex/internal/identity"
)

// TestEncodeDecodeADStructures verifies the TLV codec round-trips
func TestEncodeDecodeADStructures(t *testing.T) {
	structures := []ADStructure{
		{Type: ADTypeFlags, Data: []byte{FlagLEGeneralDiscoverableMode | FlagBREDRNotSupported}},
		{Type: ADTypeCompleteLocalName, Data: []byte("CortexNode-Opal")},
	}

	encoded, err := EncodeADStructures(structures)
	if err != nil {
		t.Fatalf("EncodeADStructures failed: %v", err)
	}

	decoded, err := DecodeADStructures(encoded)
	if err != nil {
		t.Fatalf("DecodeADStructures failed: %v", err)
	}
	if len(decoded) != len(structures) {
		t.Fatalf("decoded %d structures, want %d", len(decoded), len(structures))
	}
	for i := range structures {
		if decoded[i].Type != structures[i].Type || !bytes.Equal(decoded[i].Data, structures[i].Data) {
			t.Errorf("structure %d mismatch: got %+v, want %+v", i, decoded[i], structures[i])
		}
	}
}

// TestEncodeRejectsOversizedPayload enforces the 31-byte legacy limit
func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := EncodeADStructures([]ADStructure{
		{Type: ADTypeCompleteLocalName, Data: []byte(strings.Repeat("x", 30))},
	})
	if err == nil {
		t.Fatal("EncodeADStructures accepted a 32-byte payload")
	}
}

// TestDecodeTruncatedStructure rejects a length byte that overruns the data
func TestDecodeTruncatedStructure(t *testing.T) {
	if _, err := DecodeADStructures([]byte{0x05, ADTypeFlags, 0x06}); err == nil {
		t.Fatal("DecodeADStructures accepted a truncated structure")
	}
}

// TestDecodeStopsAtZeroPadding verifies the padding convention
func TestDecodeStopsAtZeroPadding(t *testing.T) {
	data := []byte{0x02, ADTypeFlags, 0x06, 0x00, 0xAA, 0xBB}

	decoded, err := DecodeADStructures(data)
	if err != nil {
		t.Fatalf("DecodeADStructures failed: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("decoded %d structures, want 1 (parsing must stop at zero padding)", len(decoded))
	}
}

// TestBuildAdvertisementRoundTrip verifies a built advertisement parses back
// to the identity that produced it
func TestBuildAdvertisementRoundTrip(t *testing.T) {
	id, err := identity.New(42, "CortexNode-Quartz")
	if err != nil {
		t.Fatalf("identity.New failed: %v", err)
	}

	adv, err := BuildAdvertisement(id)
	if err != nil {
		t.Fatalf("BuildAdvertisement failed: %v", err)
	}
	if len(adv.AdvData) > MaxAdvertisingDataLen {
		t.Errorf("AdvData is %d bytes, exceeds %d", len(adv.AdvData), MaxAdvertisingDataLen)
	}
	if len(adv.ScanRsp) > MaxAdvertisingDataLen {
		t.Errorf("ScanRsp is %d bytes, exceeds %d", len(adv.ScanRsp), MaxAdvertisingDataLen)
	}

	info, err := ParseAdvertisement(adv)
	if err != nil {
		t.Fatalf("ParseAdvertisement failed: %v", err)
	}
	if info.NodeID != 42 {
		t.Errorf("NodeID = %d, want 42", info.NodeID)
	}
	if info.LocalName != "CortexNode-Quartz" {
		t.Errorf("LocalName = %q, want %q", info.LocalName, "CortexNode-Quartz")
	}
	if info.Shortened {
		t.Error("17-byte name should not be marked shortened")
	}
}

// TestBuildAdvertisementShortensLongName verifies long names are clipped and
// advertised with the Shortened Local Name type
func TestBuildAdvertisementShortensLongName(t *testing.T) {
	longName := strings.Repeat("CortexNode-", 4) // 44 bytes
	id, err := identity.New(7, longName)
	if err != nil {
		t.Fatalf("identity.New failed: %v", err)
	}

	adv, err := BuildAdvertisement(id)
	if err != nil {
		t.Fatalf("BuildAdvertisement failed: %v", err)
	}
	if len(adv.ScanRsp) != MaxAdvertisingDataLen {
		t.Errorf("ScanRsp is %d bytes, want the full %d-byte budget", len(adv.ScanRsp), MaxAdvertisingDataLen)
	}

	info, err := ParseAdvertisement(adv)
	if err != nil {
		t.Fatalf("ParseAdvertisement failed: %v", err)
	}
	if !info.Shortened {
		t.Error("clipped name not marked shortened")
	}
	if len(info.LocalName) != nameBudget {
		t.Errorf("clipped name is %d bytes, want %d", len(info.LocalName), nameBudget)
	}
	if !strings.HasPrefix(longName, info.LocalName) {
		t.Errorf("clipped name %q is not a prefix of %q", info.LocalName, longName)
	}
}

// TestParseAdvertisementRejectsForeignDevice verifies the service UUID filter
func TestParseAdvertisementRejectsForeignDevice(t *testing.T) {
	advData, err := EncodeADStructures([]ADStructure{
		{Type: ADTypeFlags, Data: []byte{FlagLEGeneralDiscoverableMode}},
		{Type: ADTypeCompleteLocalName, Data: []byte("FitnessTracker")},
	})
	if err != nil {
		t.Fatalf("EncodeADStructures failed: %v", err)
	}

	_, err = ParseAdvertisement(&Advertisement{AdvData: advData})
	if !errors.Is(err, ErrNotCortex) {
		t.Errorf("ParseAdvertisement error = %v, want ErrNotCortex", err)
	}
}

// TestUUIDAirOrderRoundTrip verifies the on-air byte reversal
func TestUUIDAirOrderRoundTrip(t *testing.T) {
	air := UUIDToAirOrder(ServiceUUID)

	// The UUID's leading byte lands at the end on air
	if air[15] != ServiceUUID[0] {
		t.Errorf("air order not reversed: air[15] = %02x, want %02x", air[15], ServiceUUID[0])
	}
	if got := UUIDFromAirOrder(air); got != ServiceUUID {
		t.Errorf("round trip = %s, want %s", got, ServiceUUID)
	}
}
