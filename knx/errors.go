package knx

import "errors"

var (
	// ErrNoGatewayFound is returned by AUTOMATIC connection when the
	// gateway scan finds nothing matching any supported transport.
	ErrNoGatewayFound = errors.New("knx: no gateway found")

	// ErrGatewayRequired is returned when a declared-endpoint connection
	// type (TUNNELING, TUNNELING_TCP) is configured without gateway_ip.
	ErrGatewayRequired = errors.New("knx: connection.gateway_ip is required for this connection type")

	// ErrSecureNotImplemented is returned for the two KNX/IP Secure
	// connection types: this module decodes/encodes the Secure envelope
	// but does not implement the AES-CCM handshake, so it cannot
	// actually establish a secure session.
	ErrSecureNotImplemented = errors.New("knx: KNX/IP Secure session establishment is not implemented")

	// ErrUnsupportedConnectionType is returned for a connection.Type
	// value Validate didn't already reject.
	ErrUnsupportedConnectionType = errors.New("knx: unsupported connection type")

	// ErrInvalidMulticastGroup is returned when a ROUTING connection's
	// multicast group does not parse as an IPv4 address.
	ErrInvalidMulticastGroup = errors.New("knx: invalid multicast group")

	// ErrNotStarted is returned by operations that require Start to
	// have already brought up a transport.
	ErrNotStarted = errors.New("knx: client not started")
)
