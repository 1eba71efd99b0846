package knxip

import "fmt"

func init() {
	registerBody(SecureWrapperType, decodeSecureWrapper)
	registerBody(SessionRequestType, decodeSessionRequest)
	registerBody(SessionResponseType, decodeSessionResponse)
	registerBody(SessionAuthenticateType, decodeSessionAuthenticate)
	registerBody(SessionStatusType, decodeSessionStatus)
}

// SecureWrapper carries an encrypted KNXnet/IP frame plus the framing
// needed to decrypt and authenticate it. This package decodes and
// re-encodes the envelope only; encryption and MAC verification are
// out of scope.
type SecureWrapper struct {
	SessionID     uint16
	SequenceInfo  [6]byte
	SerialNumber  [6]byte
	MessageTag    uint16
	EncryptedData []byte
	MAC           [16]byte
}

func (w SecureWrapper) ServiceType() ServiceType { return SecureWrapperType }

func (w SecureWrapper) Encode() []byte {
	out := make([]byte, 0, 2+6+6+2+len(w.EncryptedData)+16)
	out = append(out, byte(w.SessionID>>8), byte(w.SessionID))
	out = append(out, w.SequenceInfo[:]...)
	out = append(out, w.SerialNumber[:]...)
	out = append(out, byte(w.MessageTag>>8), byte(w.MessageTag))
	out = append(out, w.EncryptedData...)
	return append(out, w.MAC[:]...)
}

func decodeSecureWrapper(data []byte) (Body, error) {
	const fixed = 2 + 6 + 6 + 2 + 16
	if len(data) < fixed {
		return nil, fmt.Errorf("%w: secure wrapper needs at least %d bytes, got %d", ErrFrameTooShort, fixed, len(data))
	}
	var w SecureWrapper
	w.SessionID = uint16(data[0])<<8 | uint16(data[1])
	copy(w.SequenceInfo[:], data[2:8])
	copy(w.SerialNumber[:], data[8:14])
	w.MessageTag = uint16(data[14])<<8 | uint16(data[15])
	w.EncryptedData = append([]byte(nil), data[16:len(data)-16]...)
	copy(w.MAC[:], data[len(data)-16:])
	return w, nil
}

// SessionRequest opens a KNXnet/IP Secure session with an ECDH public
// key exchange.
type SessionRequest struct {
	ControlEndpoint HPAI
	PublicKey       [32]byte
}

func (r SessionRequest) ServiceType() ServiceType { return SessionRequestType }

func (r SessionRequest) Encode() []byte {
	out := r.ControlEndpoint.Encode()
	return append(out, r.PublicKey[:]...)
}

func decodeSessionRequest(data []byte) (Body, error) {
	hpai, n, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	if len(data)-n < 32 {
		return nil, fmt.Errorf("%w: session request public key needs 32 bytes", ErrFrameTooShort)
	}
	var r SessionRequest
	r.ControlEndpoint = hpai
	copy(r.PublicKey[:], data[n:n+32])
	return r, nil
}

// SessionResponse answers a SessionRequest with the gateway's public
// key and a MAC authenticating the exchange.
type SessionResponse struct {
	SessionID uint16
	PublicKey [32]byte
	MAC       [16]byte
}

func (r SessionResponse) ServiceType() ServiceType { return SessionResponseType }

func (r SessionResponse) Encode() []byte {
	out := []byte{byte(r.SessionID >> 8), byte(r.SessionID)}
	out = append(out, r.PublicKey[:]...)
	return append(out, r.MAC[:]...)
}

func decodeSessionResponse(data []byte) (Body, error) {
	const want = 2 + 32 + 16
	if len(data) < want {
		return nil, fmt.Errorf("%w: session response needs %d bytes, got %d", ErrFrameTooShort, want, len(data))
	}
	var r SessionResponse
	r.SessionID = uint16(data[0])<<8 | uint16(data[1])
	copy(r.PublicKey[:], data[2:34])
	copy(r.MAC[:], data[34:50])
	return r, nil
}

// SessionAuthenticate authenticates a user on an established secure
// session.
type SessionAuthenticate struct {
	UserID byte
	MAC    [16]byte
}

func (a SessionAuthenticate) ServiceType() ServiceType { return SessionAuthenticateType }

func (a SessionAuthenticate) Encode() []byte {
	out := []byte{0x00, a.UserID}
	return append(out, a.MAC[:]...)
}

func decodeSessionAuthenticate(data []byte) (Body, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("%w: session authenticate needs 18 bytes, got %d", ErrFrameTooShort, len(data))
	}
	var a SessionAuthenticate
	a.UserID = data[1]
	copy(a.MAC[:], data[2:18])
	return a, nil
}

// Session status codes (KNX 03_08_06).
const (
	SessionStatusAuthSuccess      byte = 0x00
	SessionStatusAuthFailed       byte = 0x01
	SessionStatusUnauthenticated  byte = 0x02
	SessionStatusTimeout          byte = 0x03
	SessionStatusKeepAlive        byte = 0x04
	SessionStatusClose            byte = 0x05
	SessionStatusUnknownCommand   byte = 0x06
)

// SessionStatus reports or requests the state of a secure session.
type SessionStatus struct {
	Status byte
}

func (s SessionStatus) ServiceType() ServiceType { return SessionStatusType }
func (s SessionStatus) Encode() []byte             { return []byte{s.Status} }

func decodeSessionStatus(data []byte) (Body, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: session status needs 1 byte", ErrFrameTooShort)
	}
	return SessionStatus{Status: data[0]}, nil
}
