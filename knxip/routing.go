package knxip

import "fmt"

func init() {
	registerBody(RoutingIndicationType, decodeRoutingIndication)
	registerBody(RoutingLostMessageType, decodeRoutingLostMessage)
	registerBody(RoutingBusyType, decodeRoutingBusy)
}

// RoutingIndication carries one CEMI frame over the multicast routing
// group; unlike TunnellingRequest it is fire-and-forget, with no
// channel, sequence counter, or acknowledgement.
type RoutingIndication struct {
	CEMIFrame []byte
}

func (r RoutingIndication) ServiceType() ServiceType { return RoutingIndicationType }
func (r RoutingIndication) Encode() []byte             { return append([]byte(nil), r.CEMIFrame...) }

func decodeRoutingIndication(data []byte) (Body, error) {
	return RoutingIndication{CEMIFrame: append([]byte(nil), data...)}, nil
}

// RoutingLostMessage reports that a router's receive queue overflowed
// and LostMessageCount frames were dropped.
type RoutingLostMessage struct {
	DeviceState      byte
	LostMessageCount uint16
}

func (r RoutingLostMessage) ServiceType() ServiceType { return RoutingLostMessageType }

func (r RoutingLostMessage) Encode() []byte {
	const structLen = 4
	return []byte{structLen, r.DeviceState, byte(r.LostMessageCount >> 8), byte(r.LostMessageCount)}
}

func decodeRoutingLostMessage(data []byte) (Body, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: routing lost message needs 4 bytes, got %d", ErrFrameTooShort, len(data))
	}
	return RoutingLostMessage{
		DeviceState:      data[1],
		LostMessageCount: uint16(data[2])<<8 | uint16(data[3]),
	}, nil
}

// RoutingBusy asks senders to back off: WaitTime is in milliseconds,
// applied as the base of the router's randomized busy wait.
type RoutingBusy struct {
	DeviceState  byte
	WaitTime     uint16
	ControlField uint16
}

func (r RoutingBusy) ServiceType() ServiceType { return RoutingBusyType }

func (r RoutingBusy) Encode() []byte {
	const structLen = 6
	return []byte{
		structLen, r.DeviceState,
		byte(r.WaitTime >> 8), byte(r.WaitTime),
		byte(r.ControlField >> 8), byte(r.ControlField),
	}
}

func decodeRoutingBusy(data []byte) (Body, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: routing busy needs 6 bytes, got %d", ErrFrameTooShort, len(data))
	}
	return RoutingBusy{
		DeviceState:  data[1],
		WaitTime:     uint16(data[2])<<8 | uint16(data[3]),
		ControlField: uint16(data[4])<<8 | uint16(data[5]),
	}, nil
}
