package dpt

import "testing"

func TestHVACModeRoundTrip(t *testing.T) {
	for mode := HVACModeAuto; mode <= HVACModeProtection; mode++ {
		data, err := EncodeHVACMode(mode)
		if err != nil {
			t.Fatalf("EncodeHVACMode(%d) failed: %v", mode, err)
		}
		got, err := DecodeHVACMode(data)
		if err != nil {
			t.Fatalf("DecodeHVACMode failed: %v", err)
		}
		if got != mode {
			t.Errorf("round trip: got %d, want %d", got, mode)
		}
	}
}

func TestHVACModeOutOfRange(t *testing.T) {
	if _, err := EncodeHVACMode(5); err == nil {
		t.Error("expected error for mode 5")
	}
	if _, err := DecodeHVACMode([]byte{5}); err == nil {
		t.Error("expected error decoding mode 5")
	}
}
