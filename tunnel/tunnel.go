package tunnel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/nerrad567/knxip/cemi"
	"github.com/nerrad567/knxip/knxip"
	"github.com/nerrad567/knxip/transport"
)

// Mode selects how a Tunnel frames traffic over its transport.
type Mode int

const (
	// ModeUDP sends TunnellingRequest/Ack over UDP; a lost ack is
	// retransmitted once before the tunnel reconnects (with
	// AutoReconnect set).
	ModeUDP Mode = iota
	// ModeTCP sends TunnellingRequest but expects no Ack, relying on
	// TCP for delivery.
	ModeTCP
	// ModeUSB bypasses KNXnet/IP framing entirely: the transport
	// carries raw CEMI frames with no channel id or acks.
	ModeUSB
)

const (
	// DefaultResponseTimeout bounds how long a control exchange (or an
	// outbound TunnellingRequest's ack wait) waits for its response
	// (wait up to 1 s for a TunnellingAck).
	DefaultResponseTimeout = 1 * time.Second

	// DefaultHeartbeatInterval is how often ConnectionStateRequest is
	// sent on a connected tunnel.
	DefaultHeartbeatInterval = 60 * time.Second

	// DefaultAutoReconnectWait seeds the reconnect backoff's initial
	// interval.
	DefaultAutoReconnectWait = 3 * time.Second

	maxReconnectInterval = 60 * time.Second

	heartbeatMaxRetries = 3
	connectMaxRetries   = 1

	// maxConsecutiveHeartbeatFailures is the number of consecutive
	// failed heartbeat exchanges that trigger a reconnect.
	maxConsecutiveHeartbeatFailures = 3
)

// Config configures a Tunnel.
type Config struct {
	Transport transport.Transport
	Mode      Mode

	// ControlEndpoint is this tunnel's own control HPAI, used in
	// ConnectRequest/ConnectionStateRequest/DisconnectRequest. Leave
	// the zero value (0.0.0.0:0) to request route-back behaviour.
	ControlEndpoint knxip.HPAI
	// DataEndpoint is this tunnel's own data HPAI carried in
	// ConnectRequest; also 0.0.0.0:0 for route-back.
	DataEndpoint knxip.HPAI

	Layer knxip.KNXLayer // meaningful for ModeUDP/ModeTCP only

	AutoReconnect     bool
	AutoReconnectWait time.Duration
	ResponseTimeout   time.Duration
	HeartbeatInterval time.Duration

	// OnIndication receives every inbound L_Data.ind CEMI frame.
	// L_Data.con confirmations are never passed here.
	OnIndication func(cemi.Frame)
	// OnStateChange receives every state transition, suppressed when
	// the same state is re-asserted.
	OnStateChange func(State)
}

// Tunnel drives one KNXnet/IP tunnel connection through its state
// machine, handling connect/heartbeat/reconnect control exchanges and
// outbound/inbound CEMI frame transport.
type Tunnel struct {
	cfg    Config
	runner *runner

	mu        sync.Mutex
	state     State
	channelID byte
	txSeq     byte

	haveLastRx bool
	lastRxSeq  byte

	started bool
	done    chan struct{}
	wg      sync.WaitGroup

	heartbeatFails atomic.Int32
	reconnecting   atomic.Bool

	framesTx atomic.Uint64
	framesRx atomic.Uint64
	errors   atomic.Uint64
}

// New constructs a Tunnel from cfg. Call Start to begin the transport
// and, for ModeUDP/ModeTCP, the connect handshake.
func New(cfg Config) *Tunnel {
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = DefaultResponseTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.AutoReconnectWait <= 0 {
		cfg.AutoReconnectWait = DefaultAutoReconnectWait
	}
	if cfg.Layer == 0 {
		cfg.Layer = knxip.TunnelLinkLayer
	}

	t := &Tunnel{cfg: cfg, done: make(chan struct{})}
	t.runner = newRunner(cfg.Transport.Send)
	cfg.Transport.SetOnReceive(t.onReceive)
	return t
}

// State returns the tunnel's current state.
func (t *Tunnel) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tunnel) setState(s State) {
	t.mu.Lock()
	changed := t.state != s
	t.state = s
	t.mu.Unlock()
	if changed && t.cfg.OnStateChange != nil {
		t.cfg.OnStateChange(s)
	}
}

// Start starts the underlying transport and, unless running in
// ModeUSB (which has no KNXnet/IP handshake), performs the initial
// connect. If AutoReconnect is set, a failed or later-lost connection
// is retried in the background until Stop is called.
func (t *Tunnel) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	t.mu.Unlock()

	if err := t.cfg.Transport.Start(ctx); err != nil {
		return fmt.Errorf("tunnel: start transport: %w", err)
	}

	if t.cfg.Mode == ModeUSB {
		t.setState(StateConnected)
		return nil
	}

	t.setState(StateConnecting)
	if err := t.connect(ctx); err != nil {
		if !t.cfg.AutoReconnect {
			t.setState(StateIdle)
			return err
		}
		t.setState(StateReconnecting)
		t.startReconnect(ctx)
		return nil
	}

	t.wg.Add(1)
	go t.heartbeatLoop(ctx)
	return nil
}

// Stop disconnects (best-effort) and releases the transport.
func (t *Tunnel) Stop() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}

	if t.cfg.Mode != ModeUSB && t.State() == StateConnected {
		t.disconnect(context.Background())
	}

	err := t.cfg.Transport.Stop()
	t.wg.Wait()
	t.setState(StateIdle)
	return err
}

func (t *Tunnel) connect(ctx context.Context) error {
	req := knxip.Frame{Body: knxip.ConnectRequest{
		ControlEndpoint:    t.cfg.ControlEndpoint,
		DataEndpoint:       t.cfg.DataEndpoint,
		ConnectionTypeCode: knxip.ConnectionTypeTunnel,
		KNXLayer:           t.cfg.Layer,
	}}
	body, err := t.runner.do(ctx, req, matchConnectResponse, t.cfg.ResponseTimeout, connectMaxRetries)
	if err != nil {
		return err
	}
	resp := body.(knxip.ConnectResponse)
	if resp.Status != knxip.StatusNoError {
		return fmt.Errorf("tunnel: connect refused, status 0x%02x", resp.Status)
	}

	t.mu.Lock()
	t.channelID = resp.ChannelID
	t.txSeq = 0
	t.haveLastRx = false
	t.mu.Unlock()

	t.setState(StateConnected)
	return nil
}

func (t *Tunnel) disconnect(ctx context.Context) {
	t.mu.Lock()
	channelID := t.channelID
	t.mu.Unlock()

	req := knxip.Frame{Body: knxip.DisconnectRequest{ChannelID: channelID, ControlEndpoint: t.cfg.ControlEndpoint}}
	t.runner.do(ctx, req, matchDisconnectResponse(channelID), t.cfg.ResponseTimeout, 0)
}

func (t *Tunnel) heartbeatLoop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.sendHeartbeat(ctx) {
				continue
			}
			if t.cfg.AutoReconnect {
				t.setState(StateReconnecting)
				t.startReconnect(ctx)
			} else {
				t.setState(StateIdle)
			}
			return
		}
	}
}

// startReconnect spawns reconnectLoop unless one is already running.
func (t *Tunnel) startReconnect(ctx context.Context) {
	if !t.reconnecting.CompareAndSwap(false, true) {
		return
	}
	t.wg.Add(1)
	go t.reconnectLoop(ctx)
}

// sendHeartbeat sends one ConnectionStateRequest and reports whether
// the tunnel should remain connected.
func (t *Tunnel) sendHeartbeat(ctx context.Context) bool {
	t.mu.Lock()
	channelID := t.channelID
	t.mu.Unlock()

	req := knxip.Frame{Body: knxip.ConnectionStateRequest{ChannelID: channelID, ControlEndpoint: t.cfg.ControlEndpoint}}
	body, err := t.runner.do(ctx, req, matchConnectionStateResponse(channelID), t.cfg.ResponseTimeout, heartbeatMaxRetries)
	if err != nil {
		if t.heartbeatFails.Add(1) >= maxConsecutiveHeartbeatFailures {
			t.heartbeatFails.Store(0)
			return false
		}
		return true
	}
	resp := body.(knxip.ConnectionStateResponse)
	if resp.Status != knxip.StatusNoError {
		if t.heartbeatFails.Add(1) >= maxConsecutiveHeartbeatFailures {
			t.heartbeatFails.Store(0)
			return false
		}
		return true
	}
	t.heartbeatFails.Store(0)
	return true
}

func (t *Tunnel) reconnectLoop(ctx context.Context) {
	defer t.wg.Done()
	defer t.reconnecting.Store(false)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.AutoReconnectWait
	b.MaxInterval = maxReconnectInterval
	b.MaxElapsedTime = 0 // retry indefinitely until Stop or ctx cancellation

	for {
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return
		}
		timer := time.NewTimer(wait)
		select {
		case <-t.done:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		t.setState(StateConnecting)
		if err := t.connect(ctx); err != nil {
			t.setState(StateReconnecting)
			continue
		}

		t.wg.Add(1)
		go t.heartbeatLoop(ctx)
		return
	}
}

// Send wraps a CEMI L_Data.req frame for transmission. For ModeUDP it
// waits for a matching ack, retransmitting once on timeout and, with
// AutoReconnect set, triggering a reconnect on a second timeout; without
// it the error is returned and the state is left unchanged. ModeTCP sends without
// waiting for an ack. ModeUSB writes the CEMI bytes directly.
func (t *Tunnel) Send(ctx context.Context, frame cemi.Frame) error {
	if t.State() != StateConnected {
		return ErrNotConnected
	}

	data := frame.Encode()

	if t.cfg.Mode == ModeUSB {
		if err := t.cfg.Transport.Send(data); err != nil {
			t.errors.Add(1)
			return err
		}
		t.framesTx.Add(1)
		return nil
	}

	t.mu.Lock()
	channelID := t.channelID
	seq := t.txSeq
	t.txSeq++
	t.mu.Unlock()

	req := knxip.Frame{Body: knxip.TunnellingRequest{ChannelID: channelID, SequenceCounter: seq, CEMIFrame: data}}

	if t.cfg.Mode == ModeTCP {
		if err := t.cfg.Transport.Send(req.Encode()); err != nil {
			t.errors.Add(1)
			return err
		}
		t.framesTx.Add(1)
		return nil
	}

	_, err := t.runner.do(ctx, req, matchTunnellingAck(channelID, seq), t.cfg.ResponseTimeout, 1)
	if err != nil {
		t.errors.Add(1)
		if t.cfg.AutoReconnect {
			t.setState(StateReconnecting)
			t.startReconnect(ctx)
		}
		return fmt.Errorf("tunnel: send: %w", err)
	}
	t.framesTx.Add(1)
	return nil
}

// onReceive is registered with the transport as its receive callback.
func (t *Tunnel) onReceive(data []byte) {
	t.framesRx.Add(1)

	if t.cfg.Mode == ModeUSB {
		frame, err := cemi.Decode(data)
		if err != nil {
			t.errors.Add(1)
			return
		}
		t.deliverIndication(frame)
		return
	}

	f, err := knxip.Decode(data)
	if err != nil {
		t.errors.Add(1)
		return
	}
	if t.runner.dispatch(f.Body) {
		return
	}

	switch body := f.Body.(type) {
	case knxip.TunnellingRequest:
		t.handleInboundTunnelling(body)
	case knxip.DisconnectRequest:
		resp := knxip.Frame{Body: knxip.DisconnectResponse{ChannelID: body.ChannelID, Status: knxip.StatusNoError}}
		t.cfg.Transport.Send(resp.Encode())
		t.setState(StateIdle)
	}
}

func (t *Tunnel) handleInboundTunnelling(req knxip.TunnellingRequest) {
	if t.cfg.Mode == ModeUDP {
		ack := knxip.Frame{Body: knxip.TunnellingAck{
			ChannelID:       req.ChannelID,
			SequenceCounter: req.SequenceCounter,
			Status:          knxip.StatusNoError,
		}}
		t.cfg.Transport.Send(ack.Encode())
	}

	t.mu.Lock()
	duplicate := t.haveLastRx && t.lastRxSeq == req.SequenceCounter
	if !duplicate {
		t.lastRxSeq = req.SequenceCounter
		t.haveLastRx = true
	}
	t.mu.Unlock()
	if duplicate {
		return
	}

	frame, err := cemi.Decode(req.CEMIFrame)
	if err != nil {
		t.errors.Add(1)
		return
	}
	t.deliverIndication(frame)
}

func (t *Tunnel) deliverIndication(frame cemi.Frame) {
	if frame.Code != cemi.LDataInd {
		return
	}
	if t.cfg.OnIndication != nil {
		t.cfg.OnIndication(frame)
	}
}

// Stats reports cumulative frame counters.
func (t *Tunnel) Stats() transport.Stats {
	return transport.Stats{
		FramesTx:    t.framesTx.Load(),
		FramesRx:    t.framesRx.Load(),
		ErrorsTotal: t.errors.Load(),
	}
}

func matchConnectResponse(b knxip.Body) bool {
	_, ok := b.(knxip.ConnectResponse)
	return ok
}

func matchDisconnectResponse(channelID byte) func(knxip.Body) bool {
	return func(b knxip.Body) bool {
		r, ok := b.(knxip.DisconnectResponse)
		return ok && r.ChannelID == channelID
	}
}

func matchConnectionStateResponse(channelID byte) func(knxip.Body) bool {
	return func(b knxip.Body) bool {
		r, ok := b.(knxip.ConnectionStateResponse)
		return ok && r.ChannelID == channelID
	}
}

func matchTunnellingAck(channelID, seq byte) func(knxip.Body) bool {
	return func(b knxip.Body) bool {
		a, ok := b.(knxip.TunnellingAck)
		return ok && a.ChannelID == channelID && a.SequenceCounter == seq
	}
}
