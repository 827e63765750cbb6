package logging

import (
	"testing"
)

// TestValidateLogLevel tests the canonical log level set
func TestValidateLogLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"DEBUG", false},
		{"INFO", false},
		{"WARN", false},
		{"ERROR", false},
		{"TRACE", true},
		{"info", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateLogLevel(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}
}

// TestLevelWriterSplitsLines verifies multi-line writes are logged line by line
func TestLevelWriterSplitsLines(t *testing.T) {
	w := NewLevelWriter("INFO", "test")

	input := []byte("line one\nline two\n\n")
	n, err := w.Write(input)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(input) {
		t.Errorf("Write returned %d, want %d", n, len(input))
	}
}

// TestLevelWriterUnknownLevel verifies unknown levels fall back to INFO without panicking
func TestLevelWriterUnknownLevel(t *testing.T) {
	w := NewLevelWriter("BOGUS", "")
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}
