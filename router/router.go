package router

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/knxip/address"
	"github.com/nerrad567/knxip/cemi"
	"github.com/nerrad567/knxip/knxip"
	"github.com/nerrad567/knxip/transport"
)

// maxBusyJitter bounds the random jitter added on top of a
// RoutingBusy's advertised wait time, to avoid every router on the
// segment resuming in lockstep.
const maxBusyJitter = 50 * time.Millisecond

// Config configures a Router.
type Config struct {
	Transport  transport.Transport
	OwnAddress address.IndividualAddress

	// OnIndication receives every inbound L_Data.ind not originated by
	// this router itself.
	OnIndication func(cemi.Frame)
	// OnLostMessage is called, if set, with each RoutingLostMessage's
	// reported count.
	OnLostMessage func(count uint16)
	// OnBusy is called, if set, whenever a RoutingBusy is honoured,
	// with the total backoff duration applied (advertised wait plus
	// jitter).
	OnBusy func(wait time.Duration)
}

// Router sends and receives CEMI frames over a KNXnet/IP routing
// multicast group.
type Router struct {
	cfg Config

	mu        sync.Mutex
	started   bool
	busyUntil time.Time

	lostMessages atomic.Uint64
	framesTx     atomic.Uint64
	framesRx     atomic.Uint64
	errors       atomic.Uint64
}

// New constructs a Router from cfg.
func New(cfg Config) *Router {
	r := &Router{cfg: cfg}
	cfg.Transport.SetOnReceive(r.onReceive)
	return r
}

// Start joins the multicast group by starting the underlying
// transport.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.mu.Unlock()

	if err := r.cfg.Transport.Start(ctx); err != nil {
		return fmt.Errorf("router: start transport: %w", err)
	}
	return nil
}

// Stop releases the transport.
func (r *Router) Stop() error {
	return r.cfg.Transport.Stop()
}

// Send emits frame as a RoutingIndication, with Code and Source forced
// to L_Data.ind and this router's own individual address: on the
// multicast wire every routed telegram is an indication, there is no
// req/con distinction as there is on a point-to-point tunnel. If a
// RoutingBusy backoff is in effect, Send waits it out (or returns early
// if ctx is cancelled first).
func (r *Router) Send(ctx context.Context, frame cemi.Frame) error {
	if err := r.waitOutBusy(ctx); err != nil {
		return err
	}

	frame.Code = cemi.LDataInd
	frame.Source = r.cfg.OwnAddress

	ind := knxip.Frame{Body: knxip.RoutingIndication{CEMIFrame: frame.Encode()}}
	if err := r.cfg.Transport.Send(ind.Encode()); err != nil {
		r.errors.Add(1)
		return err
	}
	r.framesTx.Add(1)
	return nil
}

func (r *Router) waitOutBusy(ctx context.Context) error {
	r.mu.Lock()
	wait := time.Until(r.busyUntil)
	r.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) onReceive(data []byte) {
	r.framesRx.Add(1)
	frame, err := knxip.Decode(data)
	if err != nil {
		r.errors.Add(1)
		return
	}

	switch body := frame.Body.(type) {
	case knxip.RoutingIndication:
		r.handleIndication(body)
	case knxip.RoutingLostMessage:
		r.lostMessages.Add(uint64(body.LostMessageCount))
		if r.cfg.OnLostMessage != nil {
			r.cfg.OnLostMessage(body.LostMessageCount)
		}
	case knxip.RoutingBusy:
		r.handleBusy(body)
	}
}

func (r *Router) handleIndication(ind knxip.RoutingIndication) {
	cemiFrame, err := cemi.Decode(ind.CEMIFrame)
	if err != nil {
		r.errors.Add(1)
		return
	}
	if cemiFrame.Code != cemi.LDataInd {
		return
	}
	// Multicast sockets commonly loop a sender's own transmissions back
	// to it; a router must not re-deliver telegrams it just sent.
	if cemiFrame.Source == r.cfg.OwnAddress {
		return
	}
	if r.cfg.OnIndication != nil {
		r.cfg.OnIndication(cemiFrame)
	}
}

func (r *Router) handleBusy(busy knxip.RoutingBusy) {
	jitter := time.Duration(rand.Int64N(int64(maxBusyJitter) + 1))
	wait := time.Duration(busy.WaitTime)*time.Millisecond + jitter

	r.mu.Lock()
	until := time.Now().Add(wait)
	if until.After(r.busyUntil) {
		r.busyUntil = until
	}
	r.mu.Unlock()

	if r.cfg.OnBusy != nil {
		r.cfg.OnBusy(wait)
	}
}

// Stats reports cumulative frame counters.
func (r *Router) Stats() transport.Stats {
	return transport.Stats{
		FramesTx:    r.framesTx.Load(),
		FramesRx:    r.framesRx.Load(),
		ErrorsTotal: r.errors.Load(),
	}
}

// LostMessages returns the cumulative RoutingLostMessage count
// observed, as reported by gateways on the multicast group.
func (r *Router) LostMessages() uint64 {
	return r.lostMessages.Load()
}
