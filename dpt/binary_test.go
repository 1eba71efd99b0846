package dpt

import "testing"

func TestEncodeDecodeBool(t *testing.T) {
	for _, v := range []bool{true, false} {
		data := EncodeBool(v)
		got, err := DecodeBool(data)
		if err != nil {
			t.Fatalf("DecodeBool failed: %v", err)
		}
		if got != v {
			t.Errorf("round trip: got %v, want %v", got, v)
		}
	}
}

func TestDecodeBoolEmpty(t *testing.T) {
	if _, err := DecodeBool(nil); err == nil {
		t.Error("expected error decoding empty data")
	}
}

func TestDecodeBoolIgnoresUpperBits(t *testing.T) {
	got, err := DecodeBool([]byte{0xFE})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != false {
		t.Errorf("expected false (only LSB significant), got %v", got)
	}
}
