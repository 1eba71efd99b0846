package telegram

import (
	"fmt"

	"github.com/nerrad567/knxip/address"
	"github.com/nerrad567/knxip/cemi"
)

// Direction is which way a telegram travelled relative to this library
// instance.
type Direction int

const (
	Incoming Direction = iota
	Outgoing
)

func (d Direction) String() string {
	if d == Outgoing {
		return "outgoing"
	}
	return "incoming"
}

// PayloadKind is the application-layer service a telegram carries.
type PayloadKind int

const (
	Read PayloadKind = iota
	Write
	Response
)

func (k PayloadKind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Destination is either a group address or an individual address;
// Group discriminates which. The zero value is not a valid
// destination.
type Destination struct {
	Group bool
	GA    address.GroupAddress
	IA    address.IndividualAddress
}

// GroupDestination builds a group-addressed Destination.
func GroupDestination(ga address.GroupAddress) Destination {
	return Destination{Group: true, GA: ga}
}

// IndividualDestination builds an individually-addressed Destination.
func IndividualDestination(ia address.IndividualAddress) Destination {
	return Destination{IA: ia}
}

func (d Destination) String() string {
	if d.Group {
		return d.GA.String()
	}
	return d.IA.String()
}

// Telegram is the basic unit of communication on the KNX bus: a
// source, a destination, a direction, and a payload. Outgoing
// telegrams may leave Source zero-valued; the router replaces it with
// its own individual address when sending, while a tunnel sends Source
// as given.
type Telegram struct {
	Source      address.IndividualAddress
	Destination Destination
	Direction   Direction
	Payload     PayloadKind

	// Data is the DPT-encoded octet payload. Empty for Read.
	Data []byte
}

// FromCEMI converts a decoded L_Data frame into a Telegram travelling
// in the given direction. Only the group-value application services
// (read/write/response) are modelled; anything else is reported as
// ErrUnsupportedPayload, which callers can treat as "not a telegram
// this library surfaces" rather than a fatal decode error.
func FromCEMI(f cemi.Frame, dir Direction) (Telegram, error) {
	t := Telegram{
		Source:    f.Source,
		Direction: dir,
	}
	if f.Control2.GroupAddress {
		t.Destination = GroupDestination(f.DestinationGroup())
	} else {
		t.Destination = IndividualDestination(f.DestinationIndividual())
	}

	switch f.APDU.Service {
	case cemi.GroupValueRead:
		t.Payload = Read
	case cemi.GroupValueWrite:
		t.Payload = Write
		t.Data = apduData(f.APDU)
	case cemi.GroupValueResponse:
		t.Payload = Response
		t.Data = apduData(f.APDU)
	default:
		return Telegram{}, fmt.Errorf("%w: %v", ErrUnsupportedPayload, f.APDU.Service)
	}
	return t, nil
}

// apduData extracts the application payload regardless of whether it
// was packed into the APCI octet's low 6 bits (DPT-1/2/3-sized values)
// or carried as trailing data bytes.
func apduData(a cemi.APDU) []byte {
	if len(a.Data) > 0 {
		return append([]byte(nil), a.Data...)
	}
	if a.Service == cemi.GroupValueRead {
		return nil
	}
	return []byte{a.ShortData}
}

// ToCEMI builds the L_Data frame carrying this telegram. Source is
// left as t.Source; router.Send overwrites it with the router's own
// individual address, while tunnel.Send passes it through unchanged.
func (t Telegram) ToCEMI() cemi.Frame {
	f := cemi.Frame{
		Code:     cemi.LDataReq,
		Control1: cemi.Control1{StandardFrame: true, Broadcast: true, Priority: cemi.PriorityLow},
		Control2: cemi.Control2{GroupAddress: t.Destination.Group, HopCount: 6},
		Source:   t.Source,
	}
	if t.Destination.Group {
		f.Destination = t.Destination.GA.Raw()
	} else {
		f.Destination = t.Destination.IA.ToUint16()
	}

	switch t.Payload {
	case Read:
		f.APDU = cemi.APDU{Service: cemi.GroupValueRead}
	case Write:
		f.APDU = payloadAPDU(cemi.GroupValueWrite, t.Data)
	case Response:
		f.APDU = payloadAPDU(cemi.GroupValueResponse, t.Data)
	}
	return f
}

// payloadAPDU packs data into the short-data form when it is a single
// byte that fits in 6 bits (the common case for DPT-1/2/3 values),
// otherwise carries it as trailing data bytes.
func payloadAPDU(service cemi.APCI, data []byte) cemi.APDU {
	if len(data) == 1 && data[0] <= 0x3F {
		return cemi.APDU{Service: service, ShortData: data[0]}
	}
	return cemi.APDU{Service: service, Data: append([]byte(nil), data...)}
}
