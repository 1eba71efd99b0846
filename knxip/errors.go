package knxip

import "errors"

// Domain errors for KNXnet/IP frame parsing.
var (
	// ErrFrameTooShort is returned when a buffer is too small to contain
	// the structure it claims to hold.
	ErrFrameTooShort = errors.New("knxip: frame too short")

	// ErrBadHeader is returned when the header protocol version or
	// version/length marker bytes are wrong.
	ErrBadHeader = errors.New("knxip: malformed header")

	// ErrLengthMismatch is returned when the header's total_length is
	// smaller than the header itself or larger than the number of bytes
	// actually present.
	ErrLengthMismatch = errors.New("knxip: total length mismatch")
)
