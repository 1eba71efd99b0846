package knxip

import (
	"bytes"
	"net"
	"testing"
)

func TestSecureWrapperRoundTrip(t *testing.T) {
	w := SecureWrapper{
		SessionID:     1,
		SequenceInfo:  [6]byte{1, 2, 3, 4, 5, 6},
		SerialNumber:  [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		MessageTag:    0x0001,
		EncryptedData: []byte{0x10, 0x20, 0x30, 0x40},
		MAC:           [16]byte{1: 1, 15: 1},
	}
	decoded, err := Decode(Frame{Body: w}.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.Body.(SecureWrapper)
	if !ok {
		t.Fatalf("Body type = %T", decoded.Body)
	}
	if got.SessionID != w.SessionID || !bytes.Equal(got.EncryptedData, w.EncryptedData) || got.MAC != w.MAC {
		t.Errorf("got %+v, want %+v", got, w)
	}
}

func TestSessionRequestRoundTrip(t *testing.T) {
	var pk [32]byte
	pk[0] = 0x42
	req := SessionRequest{ControlEndpoint: HPAI{Protocol: HostProtocolTCP, IP: net.IPv4(10, 0, 0, 1), Port: 3671}, PublicKey: pk}
	decoded, err := Decode(Frame{Body: req}.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := decoded.Body.(SessionRequest)
	if got.PublicKey != pk {
		t.Error("public key not preserved")
	}
}

func TestSessionAuthenticateAndStatusRoundTrip(t *testing.T) {
	auth := SessionAuthenticate{UserID: 2, MAC: [16]byte{0: 9}}
	decoded, err := Decode(Frame{Body: auth}.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := decoded.Body.(SessionAuthenticate); got.UserID != 2 {
		t.Errorf("UserID = %d, want 2", got.UserID)
	}

	status := SessionStatus{Status: SessionStatusAuthFailed}
	decoded, err = Decode(Frame{Body: status}.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := decoded.Body.(SessionStatus); got.Status != SessionStatusAuthFailed {
		t.Errorf("Status = %d, want %d", got.Status, SessionStatusAuthFailed)
	}
}
