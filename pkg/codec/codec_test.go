package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCompress_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("unit-town-hall")},
		{"repetitive", bytes.Repeat([]byte{0, 0, 0, 255}, 256*256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := Compress(tt.data)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			out, err := Decompress(packed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(out, tt.data) {
				t.Errorf("Expected %d bytes back, got %d", len(tt.data), len(out))
			}
		})
	}
}

func TestCompress_ShrinksFrames(t *testing.T) {
	frame := bytes.Repeat([]byte{34, 139, 34, 255}, 256*256)
	packed, err := Compress(frame)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(packed) >= len(frame)/10 {
		t.Errorf("Expected a uniform frame to compress well, got %d of %d bytes", len(packed), len(frame))
	}
}

func TestDecompress_Corrupt(t *testing.T) {
	_, err := Decompress([]byte("definitely not lz4"))
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt, got %v", err)
	}
}

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("cycle 42"))
	b := Checksum([]byte("cycle 42"))
	c := Checksum([]byte("cycle 43"))

	if len(a) != 64 || strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("Expected 64 hex digits, got %q", a)
	}
	if a != b {
		t.Error("Expected equal input to give equal checksums")
	}
	if a == c {
		t.Error("Expected different input to give different checksums")
	}
}
