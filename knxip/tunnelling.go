package knxip

import "fmt"

func init() {
	registerBody(TunnellingRequestType, decodeTunnellingRequest)
	registerBody(TunnellingAckType, decodeTunnellingAck)
}

const connectionHeaderLength = 4

// TunnellingRequest carries one CEMI frame from client to gateway (or
// vice versa) over an established tunnel connection.
type TunnellingRequest struct {
	ChannelID       byte
	SequenceCounter byte
	CEMIFrame       []byte
}

func (r TunnellingRequest) ServiceType() ServiceType { return TunnellingRequestType }

func (r TunnellingRequest) Encode() []byte {
	out := make([]byte, 0, connectionHeaderLength+len(r.CEMIFrame))
	out = append(out, connectionHeaderLength, r.ChannelID, r.SequenceCounter, 0x00)
	return append(out, r.CEMIFrame...)
}

func decodeTunnellingRequest(data []byte) (Body, error) {
	if len(data) < connectionHeaderLength {
		return nil, fmt.Errorf("%w: tunnelling request needs %d bytes, got %d", ErrFrameTooShort, connectionHeaderLength, len(data))
	}
	if data[0] != connectionHeaderLength {
		return nil, fmt.Errorf("%w: connection header structure_length=0x%02x", ErrBadHeader, data[0])
	}
	return TunnellingRequest{
		ChannelID:       data[1],
		SequenceCounter: data[2],
		CEMIFrame:       append([]byte(nil), data[connectionHeaderLength:]...),
	}, nil
}

// Status codes common to connection-oriented acknowledgements and
// responses (KNX 03_08_04).
const (
	StatusNoError               byte = 0x00
	StatusHostProtocolType      byte = 0x01
	StatusVersionNotSupported   byte = 0x02
	StatusSequenceNumber        byte = 0x04
	StatusConnectionID          byte = 0x21
	StatusConnectionType        byte = 0x22
	StatusConnectionOption      byte = 0x23
	StatusNoMoreConnections     byte = 0x24
	StatusNoMoreUniqueConnections byte = 0x25
	StatusDataConnection        byte = 0x26
	StatusKNXConnection         byte = 0x27
	StatusTunnellingLayer       byte = 0x29
)

// TunnellingAck acknowledges receipt of one TunnellingRequest.
type TunnellingAck struct {
	ChannelID       byte
	SequenceCounter byte
	Status          byte
}

func (a TunnellingAck) ServiceType() ServiceType { return TunnellingAckType }

func (a TunnellingAck) Encode() []byte {
	return []byte{connectionHeaderLength, a.ChannelID, a.SequenceCounter, a.Status}
}

func decodeTunnellingAck(data []byte) (Body, error) {
	if len(data) < connectionHeaderLength {
		return nil, fmt.Errorf("%w: tunnelling ack needs %d bytes, got %d", ErrFrameTooShort, connectionHeaderLength, len(data))
	}
	if data[0] != connectionHeaderLength {
		return nil, fmt.Errorf("%w: connection header structure_length=0x%02x", ErrBadHeader, data[0])
	}
	return TunnellingAck{
		ChannelID:       data[1],
		SequenceCounter: data[2],
		Status:          data[3],
	}, nil
}
