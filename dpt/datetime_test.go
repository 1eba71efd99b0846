package dpt

import (
	"testing"
	"time"
)

func TestDateTimeRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2026, time.July, 30, 14, 30, 45, 0, time.UTC),
		time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2089, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, in := range cases {
		data := EncodeDateTime(in)
		if len(data) != 8 {
			t.Fatalf("EncodeDateTime returned %d bytes, want 8", len(data))
		}
		out, err := DecodeDateTime(data)
		if err != nil {
			t.Fatalf("DecodeDateTime failed: %v", err)
		}
		if !out.Equal(in) {
			t.Errorf("round trip: got %v, want %v", out, in)
		}
	}
}

func TestDecodeDateTimeInvalidMonth(t *testing.T) {
	data := []byte{26, 13, 1, 0, 0, 0, 0, 0}
	if _, err := DecodeDateTime(data); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestDecodeDateTimeShortData(t *testing.T) {
	if _, err := DecodeDateTime([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short data")
	}
}
