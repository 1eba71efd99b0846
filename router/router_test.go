package router

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

type fakeTransport struct {
	mu     sync.Mutex
	sent   [][]byte
	onRecv func([]byte)
}

func (f *fakeTransport) Start(context.Context) error { return nil }
func (f *fakeTransport) Stop() error                 { return nil }
func (f *fakeTransport) LocalAddr() net.Addr          { return &net.UDPAddr{} }
func (f *fakeTransport) SetOnReceive(fn func([]byte)) { f.onRecv = fn }

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) sentFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func (f *fakeTransport) deliver(data []byte) { f.onRecv(data) }

func groupFrame(code cemi.MessageCode, src address.IndividualAddress, gaStr string) cemi.Frame {
	ga, _ := address.ParseGroupAddress(gaStr)
	return cemi.Frame{
		Code:        code,
		Control1:    cemi.Control1{StandardFrame: true},
		Control2:    cemi.Control2{GroupAddress: true},
		Source:      src,
		Destination: ga.Raw(),
		APDU:        cemi.APDU{Service: cemi.GroupValueWrite, ShortData: 1},
	}
}

func TestRouterSendForcesIndicationCodeAndOwnSource(t *testing.T) {
	ft := &fakeTransport{}
	own := address.IndividualAddress{Area: 1, Line: 1, Device: 99}
	r := New(Config{Transport: ft, OwnAddress: own})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	frame := groupFrame(cemi.LDataReq, address.IndividualAddress{}, "1/1/1")
	if err := r.Send(context.Background(), frame); err != nil {
		t.Fatalf("Send: %v", err)
	}

	frames := ft.sentFrames()
	if len(frames) != 1 {
		t.Fatalf("got %d sent frames, want 1", len(frames))
	}
	decoded, err := knxip.Decode(frames[0])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ind, ok := decoded.Body.(knxip.RoutingIndication)
	if !ok {
		t.Fatalf("body = %T, want RoutingIndication", decoded.Body)
	}
	cemiFrame, err := cemi.Decode(ind.CEMIFrame)
	if err != nil {
		t.Fatalf("cemi.Decode: %v", err)
	}
	if cemiFrame.Code != cemi.LDataInd {
		t.Errorf("code = %v, want L_Data.ind", cemiFrame.Code)
	}
	if cemiFrame.Source != own {
		t.Errorf("source = %v, want %v", cemiFrame.Source, own)
	}
}

func TestRouterIgnoresOwnIndicationLoopback(t *testing.T) {
	ft := &fakeTransport{}
	own := address.IndividualAddress{Area: 1, Line: 1, Device: 1}
	var received []cemi.Frame
	r := New(Config{Transport: ft, OwnAddress: own, OnIndication: func(f cemi.Frame) { received = append(received, f) }})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	selfFrame := groupFrame(cemi.LDataInd, own, "1/1/1")
	ft.deliver(knxip.Frame{Body: knxip.RoutingIndication{CEMIFrame: selfFrame.Encode()}}.Encode())
	if len(received) != 0 {
		t.Fatalf("got %d indications, want 0 (must filter its own looped-back transmission)", len(received))
	}

	otherFrame := groupFrame(cemi.LDataInd, address.IndividualAddress{Area: 2, Line: 1, Device: 1}, "1/1/1")
	ft.deliver(knxip.Frame{Body: knxip.RoutingIndication{CEMIFrame: otherFrame.Encode()}}.Encode())
	if len(received) != 1 {
		t.Fatalf("got %d indications, want 1 for a frame from another device", len(received))
	}
}

func TestRouterHonoursRoutingBusyBackoff(t *testing.T) {
	ft := &fakeTransport{}
	r := New(Config{Transport: ft, OwnAddress: address.IndividualAddress{Area: 1, Line: 1, Device: 1}})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	busy := knxip.Frame{Body: knxip.RoutingBusy{DeviceState: 0, WaitTime: 50, ControlField: 0}}
	ft.deliver(busy.Encode())

	start := time.Now()
	frame := groupFrame(cemi.LDataReq, address.IndividualAddress{}, "1/1/1")
	if err := r.Send(context.Background(), frame); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Errorf("Send returned after %v, expected it to wait out the RoutingBusy backoff (~50ms+)", elapsed)
	}
}

func TestRouterCountsLostMessages(t *testing.T) {
	ft := &fakeTransport{}
	r := New(Config{Transport: ft, OwnAddress: address.IndividualAddress{Area: 1, Line: 1, Device: 1}})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	lost := knxip.Frame{Body: knxip.RoutingLostMessage{DeviceState: 0, LostMessageCount: 3}}
	ft.deliver(lost.Encode())
	ft.deliver(lost.Encode())

	if got := r.LostMessages(); got != 6 {
		t.Errorf("LostMessages() = %d, want 6", got)
	}
}
