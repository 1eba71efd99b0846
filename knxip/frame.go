package knxip

import "fmt"

// Body is a decoded KNXnet/IP service-type body.
type Body interface {
	ServiceType() ServiceType
	Encode() []byte
}

// OpaqueBody preserves the bytes of a body whose service type this
// package does not decode concretely: unknown service types are
// decoded as opaque rather than rejected. This package does not log
// them.
type OpaqueBody struct {
	Type ServiceType
	Data []byte
}

func (b OpaqueBody) ServiceType() ServiceType { return b.Type }
func (b OpaqueBody) Encode() []byte           { return append([]byte(nil), b.Data...) }

// Frame is a full KNXnet/IP frame: header plus body.
type Frame struct {
	Header Header
	Body   Body
}

// Encode serializes the frame, computing TotalLength from the body.
func (f Frame) Encode() []byte {
	body := f.Body.Encode()
	out := encodeHeader(f.Body.ServiceType(), len(body))
	return append(out, body...)
}

type bodyDecoder func([]byte) (Body, error)

var bodyDecoders = map[ServiceType]bodyDecoder{}

func registerBody(st ServiceType, fn bodyDecoder) {
	bodyDecoders[st] = fn
}

// Decode parses a full KNXnet/IP frame: header, then body dispatched by
// service type. A buffer shorter than the header's TotalLength is a
// length mismatch; bytes beyond TotalLength are ignored. An
// unrecognized service type
// decodes to OpaqueBody rather than erroring.
func Decode(data []byte) (Frame, error) {
	header, err := decodeHeader(data)
	if err != nil {
		return Frame{}, err
	}
	if len(data) < int(header.TotalLength) {
		return Frame{}, fmt.Errorf("%w: header declares %d bytes, %d available", ErrLengthMismatch, header.TotalLength, len(data))
	}

	bodyBytes := data[HeaderSize:header.TotalLength]

	decode, ok := bodyDecoders[header.ServiceType]
	if !ok {
		return Frame{Header: header, Body: OpaqueBody{Type: header.ServiceType, Data: append([]byte(nil), bodyBytes...)}}, nil
	}

	body, err := decode(bodyBytes)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Header: header, Body: body}, nil
}
