package dpt

import "fmt"

// Well-known colour datapoint type identifiers.
const (
	ColourRGB  ID = "232.600" // 3-byte R, G, B
	ColourRGBW ID = "251.600" // 6-byte R, G, B, W + validity mask
)

// RGB is a 3-byte colour value.
type RGB struct {
	R, G, B uint8
}

// EncodeRGB encodes an RGB colour to 3-byte format.
func EncodeRGB(c RGB) []byte {
	return []byte{c.R, c.G, c.B}
}

// DecodeRGB decodes a 3-byte RGB colour value.
func DecodeRGB(data []byte) (RGB, error) {
	if len(data) < 3 {
		return RGB{}, fmt.Errorf("%w: RGB colour requires 3 bytes, got %d", ErrDecodingFailed, len(data))
	}
	return RGB{R: data[0], G: data[1], B: data[2]}, nil
}

// RGBW is a 4-channel colour value with a per-channel validity mask, as
// carried by DPT 251.600: 4 colour bytes, 1 reserved byte, and a
// trailing byte whose low 4 bits flag which of R/G/B/W are valid.
type RGBW struct {
	R, G, B, W   uint8
	RValid       bool
	GValid       bool
	BValid       bool
	WValid       bool
}

const (
	rgbwValidW = 1 << 0
	rgbwValidB = 1 << 1
	rgbwValidG = 1 << 2
	rgbwValidR = 1 << 3
)

// EncodeRGBW encodes an RGBW colour to the 6-byte DPT 251.600 format.
func EncodeRGBW(c RGBW) []byte {
	var mask byte
	if c.RValid {
		mask |= rgbwValidR
	}
	if c.GValid {
		mask |= rgbwValidG
	}
	if c.BValid {
		mask |= rgbwValidB
	}
	if c.WValid {
		mask |= rgbwValidW
	}
	return []byte{c.R, c.G, c.B, c.W, 0x00, mask}
}

// DecodeRGBW decodes a 6-byte DPT 251.600 RGBW colour value.
func DecodeRGBW(data []byte) (RGBW, error) {
	if len(data) < 6 {
		return RGBW{}, fmt.Errorf("%w: RGBW colour requires 6 bytes, got %d", ErrDecodingFailed, len(data))
	}
	mask := data[5]
	return RGBW{
		R: data[0], G: data[1], B: data[2], W: data[3],
		RValid: mask&rgbwValidR != 0,
		GValid: mask&rgbwValidG != 0,
		BValid: mask&rgbwValidB != 0,
		WValid: mask&rgbwValidW != 0,
	}, nil
}

type rgbCodec struct{}

func (rgbCodec) ID() ID       { return ColourRGB }
func (rgbCodec) Unit() string { return "" }

func (rgbCodec) Encode(value any) ([]byte, error) {
	v, ok := value.(RGB)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects dpt.RGB, got %T", ErrEncodingFailed, ColourRGB, value)
	}
	return EncodeRGB(v), nil
}

func (rgbCodec) Decode(data []byte) (any, error) {
	return DecodeRGB(data)
}

type rgbwCodec struct{}

func (rgbwCodec) ID() ID       { return ColourRGBW }
func (rgbwCodec) Unit() string { return "" }

func (rgbwCodec) Encode(value any) ([]byte, error) {
	v, ok := value.(RGBW)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects dpt.RGBW, got %T", ErrEncodingFailed, ColourRGBW, value)
	}
	return EncodeRGBW(v), nil
}

func (rgbwCodec) Decode(data []byte) (any, error) {
	return DecodeRGBW(data)
}

func init() {
	Register(rgbCodec{})
	Register(rgbwCodec{})
}
