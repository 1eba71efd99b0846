package cemi

import "testing"

func TestControl1RoundTrip(t *testing.T) {
	cases := []Control1{
		{StandardFrame: true, DoNotRepeat: true, Broadcast: true, Priority: PriorityLow},
		{StandardFrame: true, Priority: PriorityUrgent, AckRequested: true},
		{StandardFrame: false, Priority: PrioritySystem, Error: true},
	}
	for _, c := range cases {
		got := DecodeControl1(c.Encode())
		if got != c {
			t.Errorf("round trip: got %+v, want %+v", got, c)
		}
	}
}

func TestControl2RoundTrip(t *testing.T) {
	cases := []Control2{
		{GroupAddress: true, HopCount: 7, ExtendedFrameFormat: 0},
		{GroupAddress: false, HopCount: 3, ExtendedFrameFormat: 5},
	}
	for _, c := range cases {
		got := DecodeControl2(c.Encode())
		if got != c {
			t.Errorf("round trip: got %+v, want %+v", got, c)
		}
	}
}

func TestControl1ExactByte(t *testing.T) {
	c := Control1{StandardFrame: true, DoNotRepeat: true, Broadcast: true, Priority: PriorityLow}
	if got := c.Encode(); got != 0xbc {
		t.Errorf("Encode() = 0x%02x, want 0xbc", got)
	}
}

func TestControl2ExactByte(t *testing.T) {
	c := Control2{GroupAddress: true, HopCount: 6, ExtendedFrameFormat: 0}
	if got := c.Encode(); got != 0xe0 {
		t.Errorf("Encode() = 0x%02x, want 0xe0", got)
	}
}
