package cemi

// Priority is the KNX telegram priority carried in control1 bits 3-2.
type Priority uint8

// Priority values, lowest numeric value transmitted first on a
// contested bus.
const (
	PrioritySystem Priority = 0
	PriorityNormal Priority = 1
	PriorityUrgent Priority = 2
	PriorityLow    Priority = 3
)

// Control1 is the first control octet of a CEMI L_Data frame.
type Control1 struct {
	StandardFrame bool     // bit7: 1 = standard frame, 0 = extended frame
	DoNotRepeat   bool     // bit5: 1 = do not repeat on medium error
	Broadcast     bool     // bit4: 1 = normal broadcast, 0 = system broadcast
	Priority      Priority // bits3-2
	AckRequested  bool     // bit1
	Error         bool     // bit0: set on L_Data.con to flag a send error
}

// Encode packs Control1 into a single octet.
func (c Control1) Encode() byte {
	var b byte
	if c.StandardFrame {
		b |= 0x80
	}
	if c.DoNotRepeat {
		b |= 0x20
	}
	if c.Broadcast {
		b |= 0x10
	}
	b |= byte(c.Priority&0x03) << 2
	if c.AckRequested {
		b |= 0x02
	}
	if c.Error {
		b |= 0x01
	}
	return b
}

// DecodeControl1 unpacks a Control1 octet.
func DecodeControl1(b byte) Control1 {
	return Control1{
		StandardFrame: b&0x80 != 0,
		DoNotRepeat:   b&0x20 != 0,
		Broadcast:     b&0x10 != 0,
		Priority:      Priority((b >> 2) & 0x03),
		AckRequested:  b&0x02 != 0,
		Error:         b&0x01 != 0,
	}
}

// Control2 is the second control octet of a CEMI L_Data frame.
type Control2 struct {
	GroupAddress        bool  // bit7: 1 = destination is a group address
	HopCount             uint8 // bits6-4: routing hop count, 0-7
	ExtendedFrameFormat  uint8 // bits3-0: 0 = standard, nonzero = extended APCI/poll data
}

// Encode packs Control2 into a single octet.
func (c Control2) Encode() byte {
	var b byte
	if c.GroupAddress {
		b |= 0x80
	}
	b |= (c.HopCount & 0x07) << 4
	b |= c.ExtendedFrameFormat & 0x0F
	return b
}

// DecodeControl2 unpacks a Control2 octet.
func DecodeControl2(b byte) Control2 {
	return Control2{
		GroupAddress:        b&0x80 != 0,
		HopCount:            (b >> 4) & 0x07,
		ExtendedFrameFormat: b & 0x0F,
	}
}
