package tunnel

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/knxip/address"
	"github.com/nerrad567/knxip/cemi"
	"github.com/nerrad567/knxip/knxip"
)

// fakeTransport is an in-memory transport.Transport used to drive the
// tunnel state machine without real sockets. sendFunc, when set, is
// invoked (asynchronously, as a real peer's reply would arrive) for
// every frame handed to Send.
type fakeTransport struct {
	mu       sync.Mutex
	sent     [][]byte
	onRecv   func([]byte)
	sendFunc func(data []byte, deliver func([]byte))
}

func (f *fakeTransport) Start(context.Context) error { return nil }
func (f *fakeTransport) Stop() error                 { return nil }

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	f.sent = append(f.sent, append([]byte(nil), data...))
	recv := f.onRecv
	f.mu.Unlock()

	if f.sendFunc != nil && recv != nil {
		f.sendFunc(data, func(reply []byte) {
			go recv(reply)
		})
	}
	return nil
}

func (f *fakeTransport) LocalAddr() net.Addr          { return &net.UDPAddr{} }
func (f *fakeTransport) SetOnReceive(fn func([]byte)) { f.onRecv = fn }

func (f *fakeTransport) deliver(data []byte) {
	f.mu.Lock()
	recv := f.onRecv
	f.mu.Unlock()
	recv(data)
}

func (f *fakeTransport) sentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

const testChannelID = 7

// gatewayEcho answers ConnectRequest, ConnectionStateRequest and
// TunnellingRequest the way a cooperative gateway would.
func gatewayEcho(data []byte, deliver func([]byte)) {
	frame, err := knxip.Decode(data)
	if err != nil {
		return
	}
	switch b := frame.Body.(type) {
	case knxip.ConnectRequest:
		resp := knxip.Frame{Body: knxip.ConnectResponse{
			ChannelID:          testChannelID,
			Status:             knxip.StatusNoError,
			DataEndpoint:       knxip.HPAI{Protocol: knxip.HostProtocolUDP, IP: net.IPv4(192, 168, 1, 1), Port: 3671},
			ConnectionTypeCode: knxip.ConnectionTypeTunnel,
		}}
		deliver(resp.Encode())
	case knxip.ConnectionStateRequest:
		resp := knxip.Frame{Body: knxip.ConnectionStateResponse{ChannelID: b.ChannelID, Status: knxip.StatusNoError}}
		deliver(resp.Encode())
	case knxip.TunnellingRequest:
		ack := knxip.Frame{Body: knxip.TunnellingAck{ChannelID: b.ChannelID, SequenceCounter: b.SequenceCounter, Status: knxip.StatusNoError}}
		deliver(ack.Encode())
	}
}

func TestTunnelConnectThenSendWaitsForAck(t *testing.T) {
	ft := &fakeTransport{sendFunc: gatewayEcho}
	var states []State
	cfg := Config{
		Transport:       ft,
		Mode:            ModeUDP,
		ResponseTimeout: 50 * time.Millisecond,
		OnStateChange:   func(s State) { states = append(states, s) },
	}
	tun := New(cfg)

	ctx := context.Background()
	if err := tun.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tun.State() != StateConnected {
		t.Fatalf("state = %v, want connected", tun.State())
	}

	ga, _ := address.ParseGroupAddress("1/1/1")
	frame := cemi.Frame{
		Code:        cemi.LDataReq,
		Control1:    cemi.Control1{StandardFrame: true},
		Control2:    cemi.Control2{GroupAddress: true},
		Source:      address.IndividualAddress{},
		Destination: ga.Raw(),
		APDU:        cemi.APDU{Service: cemi.GroupValueWrite, ShortData: 1},
	}
	if err := tun.Send(ctx, frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	sent := ft.sentFrames()
	if len(sent) < 2 {
		t.Fatalf("expected at least connect request + tunnelling request, got %d frames", len(sent))
	}
}

func TestTunnelInboundIndicationAcksAndDedupes(t *testing.T) {
	ft := &fakeTransport{sendFunc: gatewayEcho}
	var received []cemi.Frame
	cfg := Config{
		Transport:       ft,
		Mode:            ModeUDP,
		ResponseTimeout: 50 * time.Millisecond,
		OnIndication:    func(f cemi.Frame) { received = append(received, f) },
	}
	tun := New(cfg)
	if err := tun.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ga, _ := address.ParseGroupAddress("1/1/1")
	cemiFrame := cemi.Frame{
		Code:        cemi.LDataInd,
		Control1:    cemi.Control1{StandardFrame: true},
		Control2:    cemi.Control2{GroupAddress: true},
		Source:      address.IndividualAddress{Area: 1, Line: 1, Device: 5},
		Destination: ga.Raw(),
		APDU:        cemi.APDU{Service: cemi.GroupValueWrite, ShortData: 1},
	}
	req := knxip.Frame{Body: knxip.TunnellingRequest{ChannelID: testChannelID, SequenceCounter: 0, CEMIFrame: cemiFrame.Encode()}}

	ft.deliver(req.Encode())
	ft.deliver(req.Encode()) // duplicate sequence, must not be re-delivered

	time.Sleep(20 * time.Millisecond)
	if len(received) != 1 {
		t.Fatalf("got %d indications, want 1 (duplicate sequence must be dropped)", len(received))
	}

	sent := ft.sentFrames()
	ackCount := 0
	for _, s := range sent {
		f, err := knxip.Decode(s)
		if err != nil {
			continue
		}
		if _, ok := f.Body.(knxip.TunnellingAck); ok {
			ackCount++
		}
	}
	if ackCount != 2 {
		t.Errorf("expected an ack for both the original and the duplicate request, got %d", ackCount)
	}
}

func TestTunnelUSBModeBypassesKNXIPFraming(t *testing.T) {
	ft := &fakeTransport{}
	var received []cemi.Frame
	cfg := Config{
		Transport:    ft,
		Mode:         ModeUSB,
		OnIndication: func(f cemi.Frame) { received = append(received, f) },
	}
	tun := New(cfg)
	if err := tun.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tun.State() != StateConnected {
		t.Fatalf("state = %v, want connected (USB has no handshake)", tun.State())
	}

	ga, _ := address.ParseGroupAddress("2/2/2")
	frame := cemi.Frame{
		Code:        cemi.LDataReq,
		Control1:    cemi.Control1{StandardFrame: true},
		Control2:    cemi.Control2{GroupAddress: true},
		Destination: ga.Raw(),
		APDU:        cemi.APDU{Service: cemi.GroupValueWrite, ShortData: 1},
	}
	if err := tun.Send(context.Background(), frame); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sent := ft.sentFrames()
	if len(sent) != 1 {
		t.Fatalf("got %d sent frames, want 1 (no TunnellingRequest wrapper)", len(sent))
	}
	if _, err := knxip.Decode(sent[0]); err == nil {
		t.Error("USB mode must send raw CEMI bytes, not a KNXnet/IP frame")
	}

	ind := cemi.Frame{
		Code:        cemi.LDataInd,
		Control1:    cemi.Control1{StandardFrame: true},
		Control2:    cemi.Control2{GroupAddress: true},
		Destination: ga.Raw(),
		APDU:        cemi.APDU{Service: cemi.GroupValueWrite, ShortData: 1},
	}
	ft.deliver(ind.Encode())
	time.Sleep(10 * time.Millisecond)
	if len(received) != 1 {
		t.Fatalf("got %d indications, want 1", len(received))
	}
}

func TestTunnelConnectTimeoutWithoutAutoReconnectGoesIdle(t *testing.T) {
	ft := &fakeTransport{} // never answers
	cfg := Config{
		Transport:       ft,
		Mode:            ModeUDP,
		ResponseTimeout: 10 * time.Millisecond,
	}
	tun := New(cfg)
	err := tun.Start(context.Background())
	if err == nil {
		t.Fatal("expected Start to fail when the gateway never answers ConnectRequest")
	}
	if tun.State() != StateIdle {
		t.Errorf("state = %v, want idle", tun.State())
	}
}
