package dpt

import "testing"

func TestFloat4RoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 3.14159, -273.15, 1e6, -1e6}
	for _, v := range values {
		data := EncodeFloat4(v)
		if len(data) != 4 {
			t.Fatalf("EncodeFloat4(%v) returned %d bytes, want 4", v, len(data))
		}
		got, err := DecodeFloat4(data)
		if err != nil {
			t.Fatalf("DecodeFloat4 failed: %v", err)
		}
		diff := got - v
		if diff < 0 {
			diff = -diff
		}
		// float32 precision tolerance.
		if diff > 0.001*abs(v)+0.0001 {
			t.Errorf("round trip for %v: got %v", v, got)
		}
	}
}

func TestDecodeFloat4ShortData(t *testing.T) {
	if _, err := DecodeFloat4([]byte{0x00, 0x00, 0x00}); err == nil {
		t.Error("expected error for short data")
	}
}
