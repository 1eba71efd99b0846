package transport

import "errors"

// Domain errors for transport lifecycle and I/O.
var (
	// ErrClosed is returned by Send when the transport has already
	// been stopped.
	ErrClosed = errors.New("transport: closed")

	// ErrAlreadyStarted is returned by Start when called twice.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrFrameReassembly names a malformed USB-HID fragment sequence
	// (out-of-order or skipped sequence numbers). The USB receive loop
	// discards such a sequence and counts it in Stats.ErrorsTotal; it
	// does not return this error.
	ErrFrameReassembly = errors.New("transport: USB frame reassembly failed")
)
