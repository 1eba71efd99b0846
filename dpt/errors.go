package dpt

import "errors"

// Domain errors for datapoint type conversion.
var (
	// ErrUnknownDPT is returned by Lookup when no codec is registered for
	// the requested identifier.
	ErrUnknownDPT = errors.New("dpt: unknown datapoint type")

	// ErrEncodingFailed is returned when a value cannot be represented in
	// a DPT's octet format (out of range, wrong type, …).
	ErrEncodingFailed = errors.New("dpt: encoding failed")

	// ErrDecodingFailed is returned when received octets cannot be
	// interpreted as a valid value of the DPT (wrong length, sentinel
	// "invalid" pattern, …).
	ErrDecodingFailed = errors.New("dpt: decoding failed")
)
