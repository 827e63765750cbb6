package validate

import (
	"testing"
	"time"
)

// TestParseBindAddress tests parsing and validation of host:port strings
func TestParseBindAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
		host    string
		port    int
	}{
		{"valid IPv4", "127.0.0.1:6789", false, "127.0.0.1", 6789},
		{"valid all interfaces", "0.0.0.0:7420", false, "0.0.0.0", 7420},
		{"empty address", "", true, "", 0},
		{"missing port", "127.0.0.1", true, "", 0},
		{"non-numeric port", "127.0.0.1:abc", true, "", 0},
		{"hostname not IP", "localhost:6789", true, "", 0},
		{"port too large", "127.0.0.1:70000", true, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBindAddress(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBindAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Host != tt.host || got.Port != tt.port {
				t.Errorf("ParseBindAddress(%q) = %s:%d, want %s:%d",
					tt.addr, got.Host, got.Port, tt.host, tt.port)
			}
		})
	}
}

// TestNetworkAddressString tests the host:port formatting
func TestNetworkAddressString(t *testing.T) {
	na := NetworkAddress{Host: "192.168.1.10", Port: 7420}
	if na.String() != "192.168.1.10:7420" {
		t.Errorf("String() = %q, want %q", na.String(), "192.168.1.10:7420")
	}
}

// TestValidateAddressList tests federation join address validation
func TestValidateAddressList(t *testing.T) {
	if err := ValidateAddressList(nil); err == nil {
		t.Error("expected error for empty list")
	}

	valid := []string{"10.0.0.1:7946", "10.0.0.2:7946"}
	if err := ValidateAddressList(valid); err != nil {
		t.Errorf("unexpected error for valid list: %v", err)
	}

	invalid := []string{"10.0.0.1:7946", "not-an-address"}
	if err := ValidateAddressList(invalid); err == nil {
		t.Error("expected error for list with malformed address")
	}
}

// TestValidatePortRange tests port boundary validation
func TestValidatePortRange(t *testing.T) {
	if err := ValidatePortRange(0); err == nil {
		t.Error("port 0 should be rejected")
	}
	if err := ValidatePortRange(1); err != nil {
		t.Errorf("port 1 should be valid: %v", err)
	}
	if err := ValidatePortRange(65535); err != nil {
		t.Errorf("port 65535 should be valid: %v", err)
	}
	if err := ValidatePortRange(65536); err == nil {
		t.Error("port 65536 should be rejected")
	}
}

// TestValidatePositiveTimeout tests duration validation
func TestValidatePositiveTimeout(t *testing.T) {
	if err := ValidatePositiveTimeout(0, "join timeout"); err == nil {
		t.Error("zero timeout should be rejected")
	}
	if err := ValidatePositiveTimeout(-time.Second, "join timeout"); err == nil {
		t.Error("negative timeout should be rejected")
	}
	if err := ValidatePositiveTimeout(5*time.Second, "join timeout"); err != nil {
		t.Errorf("positive timeout should be valid: %v", err)
	}
}
