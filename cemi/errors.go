package cemi

import "errors"

// Domain errors for CEMI frame parsing.
var (
	// ErrUnsupportedMessage is returned for an unknown CEMI message code,
	// an unsupported APCI, or a length mismatch. Per the error-handling
	// policy these are recoverable: the transport still acknowledges the
	// frame to the peer, but it is dropped from higher layers with a
	// warning rather than surfaced as a fatal error.
	ErrUnsupportedMessage = errors.New("cemi: unsupported message")

	// ErrFrameTooShort is returned when a buffer is too small to contain
	// a valid frame of the message code it claims.
	ErrFrameTooShort = errors.New("cemi: frame too short")

	// ErrLengthMismatch is returned when the NPDU length field disagrees
	// with the number of bytes actually present.
	ErrLengthMismatch = errors.New("cemi: NPDU length mismatch")

	// ErrUnsupportedAPCI is returned for an APDU whose service isn't one
	// this package decodes, even when its bits happen to match a
	// recognized APCI constant: this package only implements the
	// group-value application services.
	ErrUnsupportedAPCI = errors.New("cemi: unsupported APCI")
)
