package cemi

import (
	"fmt"

	"github.com/nerrad567/knxip/address"
)

// Frame is a decoded CEMI L_Data.req/con/ind message.
type Frame struct {
	Code           MessageCode
	AdditionalInfo []byte
	Control1       Control1
	Control2       Control2
	Source         address.IndividualAddress

	// Destination holds the raw 16-bit destination value; interpret it
	// as a group or individual address according to Control2.GroupAddress.
	Destination uint16

	APDU APDU
}

// DestinationGroup interprets Destination as a group address. Callers
// must check Control2.GroupAddress first.
func (f Frame) DestinationGroup() address.GroupAddress {
	return address.GroupAddressFromUint16(f.Destination)
}

// DestinationIndividual interprets Destination as an individual address.
// Callers must check !Control2.GroupAddress first.
func (f Frame) DestinationIndividual() address.IndividualAddress {
	return address.IndividualAddressFromUint16(f.Destination)
}

// Encode serializes the frame to its wire bytes.
func (f Frame) Encode() []byte {
	apdu := EncodeAPDU(f.APDU)

	out := make([]byte, 0, 8+len(f.AdditionalInfo)+len(apdu))
	out = append(out, byte(f.Code), byte(len(f.AdditionalInfo)))
	out = append(out, f.AdditionalInfo...)
	out = append(out, f.Control1.Encode(), f.Control2.Encode())
	out = append(out, byte(f.Source.ToUint16()>>8), byte(f.Source.ToUint16()))
	out = append(out, byte(f.Destination>>8), byte(f.Destination))
	out = append(out, byte(len(apdu)-1))
	out = append(out, apdu...)
	return out
}

// Decode parses a CEMI frame. Unknown message codes, and APDUs whose
// declared length disagrees with the bytes present, are reported as
// ErrUnsupportedMessage / ErrLengthMismatch: both are recoverable, not
// fatal.
func Decode(data []byte) (Frame, error) {
	if len(data) < 2 {
		return Frame{}, fmt.Errorf("%w: frame requires at least 2 bytes, got %d", ErrFrameTooShort, len(data))
	}

	code := MessageCode(data[0])
	if !code.supported() {
		return Frame{}, fmt.Errorf("%w: message code 0x%02x", ErrUnsupportedMessage, data[0])
	}

	addInfoLen := int(data[1])
	idx := 2 + addInfoLen
	if len(data) < idx {
		return Frame{}, fmt.Errorf("%w: frame too short for additional info length %d", ErrFrameTooShort, addInfoLen)
	}
	// 2 bytes control + 2 source + 2 dest + 1 npdu length + 2 minimum APDU.
	if len(data) < idx+9 {
		return Frame{}, fmt.Errorf("%w: frame too short after additional info", ErrFrameTooShort)
	}

	addInfo := append([]byte(nil), data[2:idx]...)
	control1 := DecodeControl1(data[idx])
	control2 := DecodeControl2(data[idx+1])
	idx += 2

	source := address.IndividualAddressFromUint16(uint16(data[idx])<<8 | uint16(data[idx+1]))
	idx += 2
	destination := uint16(data[idx])<<8 | uint16(data[idx+1])
	idx += 2

	npduLen := int(data[idx])
	idx++

	apduLen := npduLen + 1
	if len(data) < idx+apduLen {
		return Frame{}, fmt.Errorf("%w: %w: NPDU declares %d bytes, only %d available", ErrUnsupportedMessage, ErrLengthMismatch, apduLen, len(data)-idx)
	}

	apdu, err := DecodeAPDU(data[idx : idx+apduLen])
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrUnsupportedMessage, err)
	}

	return Frame{
		Code:           code,
		AdditionalInfo: addInfo,
		Control1:       control1,
		Control2:       control2,
		Source:         source,
		Destination:    destination,
		APDU:           apdu,
	}, nil
}
