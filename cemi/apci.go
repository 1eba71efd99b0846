package cemi

import "fmt"

// APCI identifies the application-layer service carried by an APDU. It
// is a 10-bit value; the low 6 bits of its low byte double as a short
// payload for services that support packing a value ≤6 bits directly
// into the APCI octet.
type APCI uint16

// Application-layer services. Group value services pack short payloads
// into their own low 6 bits per KNX 03_03_07; the others always carry
// their payload in separate data bytes.
const (
	GroupValueRead     APCI = 0x000
	GroupValueResponse APCI = 0x040
	GroupValueWrite    APCI = 0x080

	IndividualAddressWrite    APCI = 0x0C0
	IndividualAddressRead     APCI = 0x100
	IndividualAddressResponse APCI = 0x140

	ADCRead     APCI = 0x180
	ADCResponse APCI = 0x1C0

	MemoryRead     APCI = 0x200
	MemoryResponse APCI = 0x240
	MemoryWrite    APCI = 0x280

	DeviceDescriptorRead     APCI = 0x300
	DeviceDescriptorResponse APCI = 0x340
	Restart                  APCI = 0x380
)

// packsShortData reports whether this service stores small payloads
// (≤6 bits) in the low bits of the APCI's low byte instead of a
// trailing data byte.
func (a APCI) packsShortData() bool {
	switch a {
	case GroupValueRead, GroupValueResponse, GroupValueWrite:
		return true
	default:
		return false
	}
}

func (a APCI) String() string {
	switch a {
	case GroupValueRead:
		return "GroupValueRead"
	case GroupValueResponse:
		return "GroupValueResponse"
	case GroupValueWrite:
		return "GroupValueWrite"
	case IndividualAddressWrite:
		return "IndividualAddressWrite"
	case IndividualAddressRead:
		return "IndividualAddressRead"
	case IndividualAddressResponse:
		return "IndividualAddressResponse"
	case ADCRead:
		return "ADCRead"
	case ADCResponse:
		return "ADCResponse"
	case MemoryRead:
		return "MemoryRead"
	case MemoryResponse:
		return "MemoryResponse"
	case MemoryWrite:
		return "MemoryWrite"
	case DeviceDescriptorRead:
		return "DeviceDescriptorRead"
	case DeviceDescriptorResponse:
		return "DeviceDescriptorResponse"
	case Restart:
		return "Restart"
	default:
		return fmt.Sprintf("APCI(0x%03x)", uint16(a))
	}
}

// APDU is the decoded transport+application protocol data unit carried
// after the destination address in an L_Data frame.
type APDU struct {
	TPCI      uint8  // transport-layer control, low 6 bits significant
	Service   APCI
	ShortData uint8  // valid only when Service.packsShortData()
	Data      []byte // trailing data bytes for services that don't pack short data
}

// EncodeAPDU serializes an APDU to its wire bytes (2 bytes minimum).
func EncodeAPDU(a APDU) []byte {
	hi := (a.TPCI&0x3F)<<2 | byte(uint16(a.Service)>>8&0x03)
	if a.Service.packsShortData() {
		lo := byte(uint16(a.Service)&0xFF) | (a.ShortData & 0x3F)
		return []byte{hi, lo}
	}
	lo := byte(uint16(a.Service) & 0xFF)
	out := make([]byte, 0, 2+len(a.Data))
	out = append(out, hi, lo)
	out = append(out, a.Data...)
	return out
}

// DecodeAPDU parses APDU wire bytes. service is looked up by masking
// out the low 6 bits of the low byte (the short-data bits, which are
// meaningless as part of the service selector) only for services that
// are known to pack short data; for other services the low byte is the
// service selector verbatim.
func DecodeAPDU(data []byte) (APDU, error) {
	if len(data) < 2 {
		return APDU{}, fmt.Errorf("%w: APDU requires at least 2 bytes, got %d", ErrFrameTooShort, len(data))
	}

	tpci := (data[0] >> 2) & 0x3F
	serviceHi := uint16(data[0]&0x03) << 8

	// Try the group-value services first: they're identified by their
	// top 2 bits (bits7-6 of the low byte) with the low 6 bits free for
	// short data.
	groupService := APCI(serviceHi | uint16(data[1]&0xC0))
	if groupService == GroupValueRead || groupService == GroupValueResponse || groupService == GroupValueWrite {
		return APDU{
			TPCI:      tpci,
			Service:   groupService,
			ShortData: data[1] & 0x3F,
		}, nil
	}

	service := APCI(serviceHi | uint16(data[1]))
	return APDU{}, fmt.Errorf("%w: %s", ErrUnsupportedAPCI, service)
}
