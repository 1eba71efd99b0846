package knxip

import "fmt"

// ProtocolVersion is the KNXnet/IP protocol version byte (header byte 1).
const ProtocolVersion = 0x10

// HeaderSize is the fixed header length in bytes.
const HeaderSize = 6

// ServiceType identifies the body that follows the header.
type ServiceType uint16

// Service type identifiers implemented by this package.
const (
	SearchRequestType           ServiceType = 0x0201
	SearchResponseType          ServiceType = 0x0202
	DescriptionRequestType      ServiceType = 0x0203
	DescriptionResponseType     ServiceType = 0x0204
	ConnectRequestType          ServiceType = 0x0205
	ConnectResponseType         ServiceType = 0x0206
	ConnectionStateRequestType  ServiceType = 0x0207
	ConnectionStateResponseType ServiceType = 0x0208
	DisconnectRequestType       ServiceType = 0x0209
	DisconnectResponseType      ServiceType = 0x020A
	SearchRequestExtendedType   ServiceType = 0x020B
	SearchResponseExtendedType  ServiceType = 0x020C

	TunnellingRequestType ServiceType = 0x0420
	TunnellingAckType     ServiceType = 0x0421

	RoutingIndicationType   ServiceType = 0x0530
	RoutingLostMessageType  ServiceType = 0x0531
	RoutingBusyType         ServiceType = 0x0532

	SecureWrapperType      ServiceType = 0x0950
	SessionRequestType     ServiceType = 0x0951
	SessionResponseType    ServiceType = 0x0952
	SessionAuthenticateType ServiceType = 0x0953
	SessionStatusType      ServiceType = 0x0954
)

// Header is the fixed 6-byte frame header.
type Header struct {
	ServiceType ServiceType
	TotalLength uint16 // header + body
}

// encodeHeader builds the 6 fixed header bytes for a body of the given
// length.
func encodeHeader(st ServiceType, bodyLen int) []byte {
	total := HeaderSize + bodyLen
	return []byte{
		0x06, 0x10,
		byte(st >> 8), byte(st),
		byte(total >> 8), byte(total),
	}
}

// decodeHeader parses and validates the 6 fixed header bytes.
func decodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrFrameTooShort, HeaderSize, len(data))
	}
	if data[0] != HeaderSize || data[1] != ProtocolVersion {
		return Header{}, fmt.Errorf("%w: header_length=0x%02x version=0x%02x", ErrBadHeader, data[0], data[1])
	}
	st := ServiceType(uint16(data[2])<<8 | uint16(data[3]))
	total := uint16(data[4])<<8 | uint16(data[5])
	if int(total) < HeaderSize {
		return Header{}, fmt.Errorf("%w: total_length %d shorter than header", ErrLengthMismatch, total)
	}
	return Header{ServiceType: st, TotalLength: total}, nil
}
