package knxip

import (
	"fmt"
	"net"
)

// DIBType identifies the kind of Device Information Block.
type DIBType byte

// DIB type codes (KNX 03_08_02).
const (
	DIBDeviceInfo               DIBType = 0x01
	DIBSupportedServiceFamilies DIBType = 0x02
	DIBIPConfig                 DIBType = 0x03
	DIBIPCurrentConfig          DIBType = 0x04
	DIBKNXAddresses             DIBType = 0x05
	DIBSecuredServiceFamilies   DIBType = 0x06
	DIBTunnelingInfo            DIBType = 0x07
	DIBManufacturerData         DIBType = 0xFE
)

// DIB is a single decoded Device Information Block.
type DIB interface {
	Type() DIBType
	Encode() []byte
}

const deviceInfoDIBLength = 54
const friendlyNameLength = 30

// DeviceInfoDIB carries the responding device's identity (DIB type 0x01).
type DeviceInfoDIB struct {
	MediumCode            byte
	Status                byte
	IndividualAddress     uint16
	ProjectInstallationID uint16
	SerialNumber          [6]byte
	MulticastAddress      net.IP // 4-byte IPv4
	MAC                   [6]byte
	FriendlyName          string // up to 30 bytes, NUL-padded
}

func (d DeviceInfoDIB) Type() DIBType { return DIBDeviceInfo }

func (d DeviceInfoDIB) Encode() []byte {
	out := make([]byte, 0, deviceInfoDIBLength)
	out = append(out, byte(deviceInfoDIBLength), byte(DIBDeviceInfo), d.MediumCode, d.Status)
	out = append(out, byte(d.IndividualAddress>>8), byte(d.IndividualAddress))
	out = append(out, byte(d.ProjectInstallationID>>8), byte(d.ProjectInstallationID))
	out = append(out, d.SerialNumber[:]...)
	ip4 := d.MulticastAddress.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	out = append(out, ip4...)
	out = append(out, d.MAC[:]...)
	name := make([]byte, friendlyNameLength)
	copy(name, d.FriendlyName)
	out = append(out, name...)
	return out
}

// ServiceFamily is one (family, version) entry of a service-families DIB.
type ServiceFamily struct {
	Family  byte
	Version byte
}

// ServiceFamiliesDIB lists the service families a gateway supports
// (DIB type 0x02) or has secured (DIB type 0x06); the wire layout is
// identical, only the type code differs.
type ServiceFamiliesDIB struct {
	TypeCode DIBType
	Families []ServiceFamily
}

func (d ServiceFamiliesDIB) Type() DIBType { return d.TypeCode }

func (d ServiceFamiliesDIB) Encode() []byte {
	length := 2 + 2*len(d.Families)
	out := make([]byte, 0, length)
	out = append(out, byte(length), byte(d.TypeCode))
	for _, f := range d.Families {
		out = append(out, f.Family, f.Version)
	}
	return out
}

// KNXAddressesDIB lists additional individual addresses assignable to
// the interface (DIB type 0x05).
type KNXAddressesDIB struct {
	Addresses []uint16
}

func (d KNXAddressesDIB) Type() DIBType { return DIBKNXAddresses }

func (d KNXAddressesDIB) Encode() []byte {
	length := 2 + 2*len(d.Addresses)
	out := make([]byte, 0, length)
	out = append(out, byte(length), byte(DIBKNXAddresses))
	for _, a := range d.Addresses {
		out = append(out, byte(a>>8), byte(a))
	}
	return out
}

// TunnelingSlot describes the state of one tunnelling endpoint slot.
type TunnelingSlot struct {
	Address uint16
	Status  uint16
}

// TunnelingInfoDIB lists the gateway's tunnelling slots and their
// current usage state (DIB type 0x07, KNXnet/IP core v2).
type TunnelingInfoDIB struct {
	BaseAddress uint16
	Slots       []TunnelingSlot
}

func (d TunnelingInfoDIB) Type() DIBType { return DIBTunnelingInfo }

func (d TunnelingInfoDIB) Encode() []byte {
	length := 4 + 4*len(d.Slots)
	out := make([]byte, 0, length)
	out = append(out, byte(length), byte(DIBTunnelingInfo))
	out = append(out, byte(d.BaseAddress>>8), byte(d.BaseAddress))
	for _, s := range d.Slots {
		out = append(out, byte(s.Address>>8), byte(s.Address), byte(s.Status>>8), byte(s.Status))
	}
	return out
}

// OpaqueDIB preserves a DIB of a type this package does not model
// concretely; the same opaque-decode tolerance applied to whole bodies
// also applies to DIB types within a body.
type OpaqueDIB struct {
	TypeCode DIBType
	Data     []byte
}

func (d OpaqueDIB) Type() DIBType { return d.TypeCode }

func (d OpaqueDIB) Encode() []byte {
	length := 2 + len(d.Data)
	out := make([]byte, 0, length)
	out = append(out, byte(length), byte(d.TypeCode))
	out = append(out, d.Data...)
	return out
}

// decodeDIB parses one DIB from the front of data and returns it plus
// the number of bytes consumed.
func decodeDIB(data []byte) (DIB, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: need at least 2 bytes, got %d", ErrFrameTooShort, len(data))
	}
	length := int(data[0])
	if length < 2 || len(data) < length {
		return nil, 0, fmt.Errorf("%w: DIB declares %d bytes, %d available", ErrFrameTooShort, length, len(data))
	}
	typeCode := DIBType(data[1])
	body := data[2:length]

	switch typeCode {
	case DIBDeviceInfo:
		if len(body) < deviceInfoDIBLength-2 {
			return nil, 0, fmt.Errorf("%w: device info DIB too short", ErrFrameTooShort)
		}
		var d DeviceInfoDIB
		d.MediumCode = body[0]
		d.Status = body[1]
		d.IndividualAddress = uint16(body[2])<<8 | uint16(body[3])
		d.ProjectInstallationID = uint16(body[4])<<8 | uint16(body[5])
		copy(d.SerialNumber[:], body[6:12])
		d.MulticastAddress = net.IPv4(body[12], body[13], body[14], body[15])
		copy(d.MAC[:], body[16:22])
		d.FriendlyName = decodeNulPaddedString(body[22:52])
		return d, length, nil

	case DIBSupportedServiceFamilies, DIBSecuredServiceFamilies:
		families := make([]ServiceFamily, 0, len(body)/2)
		for i := 0; i+1 < len(body); i += 2 {
			families = append(families, ServiceFamily{Family: body[i], Version: body[i+1]})
		}
		return ServiceFamiliesDIB{TypeCode: typeCode, Families: families}, length, nil

	case DIBKNXAddresses:
		addrs := make([]uint16, 0, len(body)/2)
		for i := 0; i+1 < len(body); i += 2 {
			addrs = append(addrs, uint16(body[i])<<8|uint16(body[i+1]))
		}
		return KNXAddressesDIB{Addresses: addrs}, length, nil

	case DIBTunnelingInfo:
		if len(body) < 2 {
			return nil, 0, fmt.Errorf("%w: tunneling info DIB too short", ErrFrameTooShort)
		}
		base := uint16(body[0])<<8 | uint16(body[1])
		slots := make([]TunnelingSlot, 0, (len(body)-2)/4)
		for i := 2; i+3 < len(body); i += 4 {
			slots = append(slots, TunnelingSlot{
				Address: uint16(body[i])<<8 | uint16(body[i+1]),
				Status:  uint16(body[i+2])<<8 | uint16(body[i+3]),
			})
		}
		return TunnelingInfoDIB{BaseAddress: base, Slots: slots}, length, nil

	default:
		return OpaqueDIB{TypeCode: typeCode, Data: append([]byte(nil), body...)}, length, nil
	}
}

// decodeDIBSet parses a run of consecutive DIBs filling the remainder
// of a body.
func decodeDIBSet(data []byte) ([]DIB, error) {
	var out []DIB
	for len(data) > 0 {
		d, n, err := decodeDIB(data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
		data = data[n:]
	}
	return out, nil
}

func encodeDIBSet(dibs []DIB) []byte {
	var out []byte
	for _, d := range dibs {
		out = append(out, d.Encode()...)
	}
	return out
}

func decodeNulPaddedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
