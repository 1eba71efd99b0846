package dpt

import "fmt"

// Well-known 2-byte and 4-byte integer datapoint type identifiers.
const (
	Value2Count  ID = "12.001" // 4-byte unsigned counter
	Value2Ucount ID = "7.001"  // 2-byte unsigned count, unitless
	ValueCount   ID = "13.001" // 4-byte signed counter
	ActiveEnergy ID = "13.010" // Wh, 4-byte signed
)

// EncodeUint16 encodes a 2-byte unsigned integer.
func EncodeUint16(value uint16) []byte {
	return []byte{byte(value >> 8), byte(value)}
}

// DecodeUint16 decodes a 2-byte unsigned integer.
func DecodeUint16(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: 2-byte unsigned requires 2 bytes, got %d", ErrDecodingFailed, len(data))
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}

// EncodeUint32 encodes a 4-byte unsigned integer.
func EncodeUint32(value uint32) []byte {
	return []byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
}

// DecodeUint32 decodes a 4-byte unsigned integer.
func DecodeUint32(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: 4-byte unsigned requires 4 bytes, got %d", ErrDecodingFailed, len(data))
	}
	return uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), nil
}

// EncodeInt32 encodes a 4-byte signed integer.
func EncodeInt32(value int32) []byte {
	return EncodeUint32(uint32(value))
}

// DecodeInt32 decodes a 4-byte signed integer.
func DecodeInt32(data []byte) (int32, error) {
	v, err := DecodeUint32(data)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

type uint16Codec struct {
	id   ID
	unit string
}

func (c uint16Codec) ID() ID       { return c.id }
func (c uint16Codec) Unit() string { return c.unit }

func (c uint16Codec) Encode(value any) ([]byte, error) {
	v, ok := value.(uint16)
	if !ok {
		f, err := toFloat64(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects uint16, got %T", ErrEncodingFailed, c.id, value)
		}
		v = uint16(f)
	}
	return EncodeUint16(v), nil
}

func (c uint16Codec) Decode(data []byte) (any, error) {
	return DecodeUint16(data)
}

type uint32Codec struct {
	id   ID
	unit string
}

func (c uint32Codec) ID() ID       { return c.id }
func (c uint32Codec) Unit() string { return c.unit }

func (c uint32Codec) Encode(value any) ([]byte, error) {
	v, ok := value.(uint32)
	if !ok {
		f, err := toFloat64(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects uint32, got %T", ErrEncodingFailed, c.id, value)
		}
		v = uint32(f)
	}
	return EncodeUint32(v), nil
}

func (c uint32Codec) Decode(data []byte) (any, error) {
	return DecodeUint32(data)
}

type int32Codec struct {
	id   ID
	unit string
}

func (c int32Codec) ID() ID       { return c.id }
func (c int32Codec) Unit() string { return c.unit }

func (c int32Codec) Encode(value any) ([]byte, error) {
	v, ok := value.(int32)
	if !ok {
		f, err := toFloat64(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects int32, got %T", ErrEncodingFailed, c.id, value)
		}
		v = int32(f)
	}
	return EncodeInt32(v), nil
}

func (c int32Codec) Decode(data []byte) (any, error) {
	return DecodeInt32(data)
}

func init() {
	Register(uint16Codec{id: Value2Ucount, unit: ""})
	Register(uint32Codec{id: Value2Count, unit: ""})
	Register(int32Codec{id: ValueCount, unit: ""})
	Register(int32Codec{id: ActiveEnergy, unit: "Wh"})
}
