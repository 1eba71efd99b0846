package knxip

import "fmt"

func init() {
	registerBody(ConnectRequestType, decodeConnectRequest)
	registerBody(ConnectResponseType, decodeConnectResponse)
	registerBody(ConnectionStateRequestType, decodeConnectionStateRequest)
	registerBody(ConnectionStateResponseType, decodeConnectionStateResponse)
	registerBody(DisconnectRequestType, decodeDisconnectRequest)
	registerBody(DisconnectResponseType, decodeDisconnectResponse)
}

// ConnectionTypeCode identifies the kind of logical channel a
// ConnectRequest establishes (KNX 03_08_04 §7.8.2).
type ConnectionTypeCode byte

const (
	ConnectionTypeDeviceManagement ConnectionTypeCode = 0x03
	ConnectionTypeTunnel           ConnectionTypeCode = 0x04
	ConnectionTypeRemoteLogging    ConnectionTypeCode = 0x06
	ConnectionTypeRemoteConfig     ConnectionTypeCode = 0x07
	ConnectionTypeObjectServer     ConnectionTypeCode = 0x08
)

// KNXLayer identifies the link layer a tunnel connection exposes.
type KNXLayer byte

const (
	TunnelLinkLayer  KNXLayer = 0x02
	TunnelRaw        KNXLayer = 0x04
	TunnelBusmonitor KNXLayer = 0x80
)

const criLength = 4

// ConnectRequest asks a gateway to open a new logical connection.
type ConnectRequest struct {
	ControlEndpoint    HPAI
	DataEndpoint       HPAI
	ConnectionTypeCode ConnectionTypeCode
	KNXLayer           KNXLayer // meaningful only for ConnectionTypeTunnel
}

func (r ConnectRequest) ServiceType() ServiceType { return ConnectRequestType }

func (r ConnectRequest) Encode() []byte {
	out := r.ControlEndpoint.Encode()
	out = append(out, r.DataEndpoint.Encode()...)
	return append(out, criLength, byte(r.ConnectionTypeCode), byte(r.KNXLayer), 0x00)
}

func decodeConnectRequest(data []byte) (Body, error) {
	control, n, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	dataEP, n2, err := DecodeHPAI(data[n:])
	if err != nil {
		return nil, err
	}
	cri := data[n+n2:]
	if len(cri) < criLength || cri[0] != criLength {
		return nil, fmt.Errorf("%w: CRI requires %d bytes", ErrFrameTooShort, criLength)
	}
	return ConnectRequest{
		ControlEndpoint:    control,
		DataEndpoint:       dataEP,
		ConnectionTypeCode: ConnectionTypeCode(cri[1]),
		KNXLayer:           KNXLayer(cri[2]),
	}, nil
}

const crdLength = 4

// ConnectResponse answers a ConnectRequest. AssignedAddress is valid
// only when ConnectionTypeCode is ConnectionTypeTunnel.
type ConnectResponse struct {
	ChannelID          byte
	Status             byte
	DataEndpoint       HPAI
	ConnectionTypeCode ConnectionTypeCode
	AssignedAddress    uint16
}

func (r ConnectResponse) ServiceType() ServiceType { return ConnectResponseType }

func (r ConnectResponse) Encode() []byte {
	out := []byte{r.ChannelID, r.Status}
	if r.Status != StatusNoError {
		return out
	}
	out = append(out, r.DataEndpoint.Encode()...)
	return append(out, crdLength, byte(r.ConnectionTypeCode), byte(r.AssignedAddress>>8), byte(r.AssignedAddress))
}

func decodeConnectResponse(data []byte) (Body, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: connect response needs at least 2 bytes", ErrFrameTooShort)
	}
	r := ConnectResponse{ChannelID: data[0], Status: data[1]}
	if r.Status != StatusNoError {
		return r, nil
	}
	dataEP, n, err := DecodeHPAI(data[2:])
	if err != nil {
		return nil, err
	}
	crd := data[2+n:]
	if len(crd) < crdLength || crd[0] != crdLength {
		return nil, fmt.Errorf("%w: CRD requires %d bytes", ErrFrameTooShort, crdLength)
	}
	r.DataEndpoint = dataEP
	r.ConnectionTypeCode = ConnectionTypeCode(crd[1])
	r.AssignedAddress = uint16(crd[2])<<8 | uint16(crd[3])
	return r, nil
}

// ConnectionStateRequest is the tunnel heartbeat: "is channel
// ChannelID still alive?"
type ConnectionStateRequest struct {
	ChannelID       byte
	ControlEndpoint HPAI
}

func (r ConnectionStateRequest) ServiceType() ServiceType { return ConnectionStateRequestType }

func (r ConnectionStateRequest) Encode() []byte {
	out := []byte{r.ChannelID, 0x00}
	return append(out, r.ControlEndpoint.Encode()...)
}

func decodeConnectionStateRequest(data []byte) (Body, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: connection state request needs at least 2 bytes", ErrFrameTooShort)
	}
	hpai, _, err := DecodeHPAI(data[2:])
	if err != nil {
		return nil, err
	}
	return ConnectionStateRequest{ChannelID: data[0], ControlEndpoint: hpai}, nil
}

// ConnectionStateResponse answers a ConnectionStateRequest.
type ConnectionStateResponse struct {
	ChannelID byte
	Status    byte
}

func (r ConnectionStateResponse) ServiceType() ServiceType { return ConnectionStateResponseType }
func (r ConnectionStateResponse) Encode() []byte             { return []byte{r.ChannelID, r.Status} }

func decodeConnectionStateResponse(data []byte) (Body, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: connection state response needs 2 bytes", ErrFrameTooShort)
	}
	return ConnectionStateResponse{ChannelID: data[0], Status: data[1]}, nil
}

// DisconnectRequest tears down a logical connection.
type DisconnectRequest struct {
	ChannelID       byte
	ControlEndpoint HPAI
}

func (r DisconnectRequest) ServiceType() ServiceType { return DisconnectRequestType }

func (r DisconnectRequest) Encode() []byte {
	out := []byte{r.ChannelID, 0x00}
	return append(out, r.ControlEndpoint.Encode()...)
}

func decodeDisconnectRequest(data []byte) (Body, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: disconnect request needs at least 2 bytes", ErrFrameTooShort)
	}
	hpai, _, err := DecodeHPAI(data[2:])
	if err != nil {
		return nil, err
	}
	return DisconnectRequest{ChannelID: data[0], ControlEndpoint: hpai}, nil
}

// DisconnectResponse answers a DisconnectRequest.
type DisconnectResponse struct {
	ChannelID byte
	Status    byte
}

func (r DisconnectResponse) ServiceType() ServiceType { return DisconnectResponseType }
func (r DisconnectResponse) Encode() []byte             { return []byte{r.ChannelID, r.Status} }

func decodeDisconnectResponse(data []byte) (Body, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: disconnect response needs 2 bytes", ErrFrameTooShort)
	}
	return DisconnectResponse{ChannelID: data[0], Status: data[1]}, nil
}
