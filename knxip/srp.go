package knxip

import "fmt"

// SRPType identifies the kind of Search Request Parameter used by
// SearchRequestExtended to filter discovery responses.
type SRPType byte

// SRP type codes (KNX 03_08_04).
const (
	SRPProgrammingMode SRPType = 0x01
	SRPMACAddress      SRPType = 0x02
	SRPService         SRPType = 0x03
	SRPRequestDIBs     SRPType = 0x04
)

// SRP is a single Search Request Parameter.
type SRP interface {
	Type() SRPType
	Mandatory() bool
	Encode() []byte
}

// ProgrammingModeSRP restricts responses to devices in programming
// mode.
type ProgrammingModeSRP struct {
	MandatoryFlag bool
}

func (s ProgrammingModeSRP) Type() SRPType { return SRPProgrammingMode }
func (s ProgrammingModeSRP) Mandatory() bool { return s.MandatoryFlag }

func (s ProgrammingModeSRP) Encode() []byte {
	return []byte{srpLengthByte(2, s.MandatoryFlag), byte(SRPProgrammingMode)}
}

// MACAddressSRP restricts responses to the device with the given MAC.
type MACAddressSRP struct {
	MandatoryFlag bool
	MAC           [6]byte
}

func (s MACAddressSRP) Type() SRPType { return SRPMACAddress }
func (s MACAddressSRP) Mandatory() bool { return s.MandatoryFlag }

func (s MACAddressSRP) Encode() []byte {
	out := []byte{srpLengthByte(8, s.MandatoryFlag), byte(SRPMACAddress)}
	return append(out, s.MAC[:]...)
}

// ServiceSRP restricts responses to devices supporting the given
// service family at or above the given version.
type ServiceSRP struct {
	MandatoryFlag bool
	Family        byte
	Version       byte
}

func (s ServiceSRP) Type() SRPType { return SRPService }
func (s ServiceSRP) Mandatory() bool { return s.MandatoryFlag }

func (s ServiceSRP) Encode() []byte {
	return []byte{srpLengthByte(4, s.MandatoryFlag), byte(SRPService), s.Family, s.Version}
}

// RequestDIBsSRP asks responders to include the listed DIB types in
// their SearchResponseExtended.
type RequestDIBsSRP struct {
	MandatoryFlag bool
	Types         []DIBType
}

func (s RequestDIBsSRP) Type() SRPType { return SRPRequestDIBs }
func (s RequestDIBsSRP) Mandatory() bool { return s.MandatoryFlag }

func (s RequestDIBsSRP) Encode() []byte {
	length := 2 + len(s.Types)
	out := make([]byte, 0, length)
	out = append(out, srpLengthByte(length, s.MandatoryFlag), byte(SRPRequestDIBs))
	for _, t := range s.Types {
		out = append(out, byte(t))
	}
	return out
}

// OpaqueSRP preserves an SRP of a type this package does not model
// concretely.
type OpaqueSRP struct {
	TypeCode      SRPType
	MandatoryFlag bool
	Data          []byte
}

func (s OpaqueSRP) Type() SRPType { return s.TypeCode }
func (s OpaqueSRP) Mandatory() bool { return s.MandatoryFlag }

func (s OpaqueSRP) Encode() []byte {
	length := 2 + len(s.Data)
	out := make([]byte, 0, length)
	out = append(out, srpLengthByte(length, s.MandatoryFlag), byte(s.TypeCode))
	return append(out, s.Data...)
}

func srpLengthByte(length int, mandatory bool) byte {
	b := byte(length) & 0x7F
	if mandatory {
		b |= 0x80
	}
	return b
}

func decodeSRP(data []byte) (SRP, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: need at least 2 bytes, got %d", ErrFrameTooShort, len(data))
	}
	length := int(data[0] & 0x7F)
	mandatory := data[0]&0x80 != 0
	if length < 2 || len(data) < length {
		return nil, 0, fmt.Errorf("%w: SRP declares %d bytes, %d available", ErrFrameTooShort, length, len(data))
	}
	typeCode := SRPType(data[1])
	body := data[2:length]

	switch typeCode {
	case SRPProgrammingMode:
		return ProgrammingModeSRP{MandatoryFlag: mandatory}, length, nil
	case SRPMACAddress:
		if len(body) < 6 {
			return nil, 0, fmt.Errorf("%w: MAC address SRP too short", ErrFrameTooShort)
		}
		var s MACAddressSRP
		s.MandatoryFlag = mandatory
		copy(s.MAC[:], body[:6])
		return s, length, nil
	case SRPService:
		if len(body) < 2 {
			return nil, 0, fmt.Errorf("%w: service SRP too short", ErrFrameTooShort)
		}
		return ServiceSRP{MandatoryFlag: mandatory, Family: body[0], Version: body[1]}, length, nil
	case SRPRequestDIBs:
		types := make([]DIBType, 0, len(body))
		for _, b := range body {
			types = append(types, DIBType(b))
		}
		return RequestDIBsSRP{MandatoryFlag: mandatory, Types: types}, length, nil
	default:
		return OpaqueSRP{TypeCode: typeCode, MandatoryFlag: mandatory, Data: append([]byte(nil), body...)}, length, nil
	}
}

func decodeSRPSet(data []byte) ([]SRP, error) {
	var out []SRP
	for len(data) > 0 {
		s, n, err := decodeSRP(data)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		data = data[n:]
	}
	return out, nil
}

func encodeSRPSet(srps []SRP) []byte {
	var out []byte
	for _, s := range srps {
		out = append(out, s.Encode()...)
	}
	return out
}
