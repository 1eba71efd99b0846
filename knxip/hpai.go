package knxip

import (
	"fmt"
	"net"
)

// HostProtocol identifies the transport an HPAI endpoint uses.
type HostProtocol byte

const (
	HostProtocolUDP HostProtocol = 0x01
	HostProtocolTCP HostProtocol = 0x02
)

// hpaiLength is the fixed encoded length of an HPAI structure.
const hpaiLength = 8

// HPAI (Host Protocol Address Information) identifies an endpoint: a
// transport protocol, an IPv4 address, and a port. An HPAI of
// 0.0.0.0:0 requests "route back" behaviour from the gateway.
type HPAI struct {
	Protocol HostProtocol
	IP       net.IP // 4-byte IPv4
	Port     uint16
}

// RouteBack is the sentinel HPAI (0.0.0.0:0) requesting the gateway
// reply to the packet's source address instead of the stated endpoint.
func RouteBack(protocol HostProtocol) HPAI {
	return HPAI{Protocol: protocol, IP: net.IPv4zero, Port: 0}
}

// Encode serializes the HPAI to its fixed 8-byte wire form.
func (h HPAI) Encode() []byte {
	ip4 := h.IP.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	out := make([]byte, 0, hpaiLength)
	out = append(out, hpaiLength, byte(h.Protocol))
	out = append(out, ip4...)
	out = append(out, byte(h.Port>>8), byte(h.Port))
	return out
}

// DecodeHPAI parses an 8-byte HPAI structure and returns the number of
// bytes consumed.
func DecodeHPAI(data []byte) (HPAI, int, error) {
	if len(data) < hpaiLength {
		return HPAI{}, 0, fmt.Errorf("%w: HPAI requires %d bytes, got %d", ErrFrameTooShort, hpaiLength, len(data))
	}
	structLen := int(data[0])
	if structLen != hpaiLength {
		return HPAI{}, 0, fmt.Errorf("%w: HPAI structure_length=%d, want %d", ErrBadHeader, structLen, hpaiLength)
	}
	h := HPAI{
		Protocol: HostProtocol(data[1]),
		IP:       net.IPv4(data[2], data[3], data[4], data[5]),
		Port:     uint16(data[6])<<8 | uint16(data[7]),
	}
	return h, hpaiLength, nil
}
