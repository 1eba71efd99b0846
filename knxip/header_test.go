package knxip

import (
	"bytes"
	"testing"
)

func TestEncodeHeader(t *testing.T) {
	got := encodeHeader(ConnectRequestType, 18)
	want := []byte{0x06, 0x10, 0x02, 0x05, 0x00, 0x18}
	if !bytes.Equal(got, want) {
		t.Errorf("encodeHeader() = % x, want % x", got, want)
	}
}

func TestDecodeHeader(t *testing.T) {
	h, err := decodeHeader([]byte{0x06, 0x10, 0x02, 0x06, 0x00, 0x14, 0xff})
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if h.ServiceType != ConnectResponseType || h.TotalLength != 0x14 {
		t.Errorf("got %+v", h)
	}
}

func TestDecodeHeaderBadMarker(t *testing.T) {
	if _, err := decodeHeader([]byte{0x05, 0x10, 0x02, 0x06, 0x00, 0x14}); err == nil {
		t.Error("expected an error for a wrong header_length byte")
	}
	if _, err := decodeHeader([]byte{0x06, 0x11, 0x02, 0x06, 0x00, 0x14}); err == nil {
		t.Error("expected an error for a wrong protocol version byte")
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	if _, err := decodeHeader([]byte{0x06, 0x10}); err == nil {
		t.Error("expected an error for a 2-byte buffer")
	}
}
