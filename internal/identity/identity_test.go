package identity

import (
	"strings"
	"testing"
)

// TestNewBoundaries tests node ID range enforcement at the domain edges
func TestNewBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		nodeID  uint8
		local   string
		wantErr bool
	}{
		{"minimum node ID", 0, "CortexNode-A", false},
		{"maximum node ID", 254, "CortexNode-B", false},
		{"reserved broadcast ID", 255, "CortexNode-C", true},
		{"empty local name", 7, "", true},
		{"typical configuration", 1, "CortexNode-Vanity", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := New(tt.nodeID, tt.local)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%d, %q) error = %v, wantErr %v", tt.nodeID, tt.local, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if id.NodeID != tt.nodeID || id.LocalName != tt.local {
				t.Errorf("New() = %+v, want NodeID=%d LocalName=%q", id, tt.nodeID, tt.local)
			}
		})
	}
}

// TestDefaultMatchesReferenceFirmware pins the shipped configuration
func TestDefaultMatchesReferenceFirmware(t *testing.T) {
	id := Default()

	if id.NodeID != 1 {
		t.Errorf("Default().NodeID = %d, want 1", id.NodeID)
	}
	if id.LocalName != "CortexNode-Vanity" {
		t.Errorf("Default().LocalName = %q, want %q", id.LocalName, "CortexNode-Vanity")
	}
	if err := id.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

// TestIdentityImmutableAcrossReads verifies repeated reads yield identical values
func TestIdentityImmutableAcrossReads(t *testing.T) {
	id, err := New(42, "CortexNode-Quartz")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first := id
	second := id
	if first != second {
		t.Error("identity value differs between reads")
	}
	if first.String() != second.String() {
		t.Error("String() differs between reads")
	}
}

// TestAdvertisedNameTruncation tests budget enforcement
func TestAdvertisedNameTruncation(t *testing.T) {
	id, _ := New(3, "CortexNode-Vanity") // 17 bytes

	tests := []struct {
		budget int
		want   string
	}{
		{0, ""},
		{-1, ""},
		{5, "Corte"},
		{17, "CortexNode-Vanity"},
		{100, "CortexNode-Vanity"},
	}

	for _, tt := range tests {
		if got := id.AdvertisedName(tt.budget); got != tt.want {
			t.Errorf("AdvertisedName(%d) = %q, want %q", tt.budget, got, tt.want)
		}
	}
}

// TestAdvertisedNameIdempotent verifies truncating an already-truncated name
// to the same budget is a no-op
func TestAdvertisedNameIdempotent(t *testing.T) {
	id, _ := New(9, strings.Repeat("CortexNode-", 5))

	for _, budget := range []int{1, 8, 21, 31} {
		once := id.AdvertisedName(budget)

		truncated, err := New(9, once)
		if err != nil {
			t.Fatalf("New with truncated name failed: %v", err)
		}
		twice := truncated.AdvertisedName(budget)

		if once != twice {
			t.Errorf("budget %d: truncation not idempotent: %q -> %q", budget, once, twice)
		}
	}
}

// TestAdvertisedNameRuneBoundary verifies multi-byte runes are never split
func TestAdvertisedNameRuneBoundary(t *testing.T) {
	id, _ := New(5, "Nodo-Señal") // ñ is 2 bytes, spans indexes 7-8

	got := id.AdvertisedName(8)
	if got != "Nodo-Se" {
		t.Errorf("AdvertisedName(8) = %q, want %q (must not split the rune)", got, "Nodo-Se")
	}

	for _, budget := range []int{1, 2, 7, 8, 9, 10} {
		name := id.AdvertisedName(budget)
		if !strings.HasPrefix(id.LocalName, name) {
			t.Errorf("AdvertisedName(%d) = %q is not a prefix of %q", budget, name, id.LocalName)
		}
	}
}

// TestIsShortened tests the complete-vs-shortened advertising decision
func TestIsShortened(t *testing.T) {
	id, _ := New(2, "CortexNode-Vanity")

	if id.IsShortened(31) {
		t.Error("17-byte name should fit a 31-byte budget")
	}
	if !id.IsShortened(10) {
		t.Error("17-byte name should be shortened for a 10-byte budget")
	}
}
