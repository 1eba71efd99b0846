package telegram

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/knxip/address"
	"golang.org/x/time/rate"
)

// DefaultOutboundRate is the default outbound telegram rate limit, in
// telegrams per second.
const DefaultOutboundRate = 20

// DefaultQueueDepth sizes the inbound and outbound channels.
const DefaultQueueDepth = 64

// Config configures a Queue.
type Config struct {
	// OutboundRate caps outgoing telegrams per second. Zero selects
	// DefaultOutboundRate.
	OutboundRate int

	// QueueDepth sizes the inbound and outbound channels. Zero selects
	// DefaultQueueDepth.
	QueueDepth int

	// Send transmits one outgoing telegram (typically a Tunnel.Send or
	// Router.Send wrapped to take a Telegram instead of a CEMI frame).
	Send func(context.Context, Telegram) error
}

// subscription is a registered inbound callback, either filtered by
// address pattern or keyed to an explicit set of group addresses (the
// two dispatch mechanisms a device-oriented layer is built from:
// "every device whose group-address set contains the destination"
// and "registered telegram callbacks whose address filter matches").
type subscription struct {
	id       uint64
	filter   *address.Filter
	gaSet    map[uint16]struct{}
	callback func(Telegram)
}

// Queue carries telegrams between the transport layer and application
// subscribers through two bounded channels: inbound (fed by Deliver,
// drained by a single dispatch goroutine) and outbound (fed by
// Enqueue, drained by a single rate-limited sender goroutine).
//
// Both channels apply backpressure by blocking rather than dropping:
// Enqueue blocks while the outbound channel is full, and Deliver
// blocks while the inbound channel is full, so a slow consumer never
// loses a telegram, it only delays the producer.
type Queue struct {
	cfg     Config
	limiter *rate.Limiter

	inbound  chan Telegram
	outbound chan Telegram

	subMu   sync.RWMutex
	subs    []subscription
	nextSub atomic.Uint64

	done chan struct{}
	wg   sync.WaitGroup

	delivered atomic.Uint64
	sent      atomic.Uint64
	errors    atomic.Uint64
}

// New constructs a Queue from cfg. Start must be called to begin
// draining the channels.
func New(cfg Config) *Queue {
	rateLimit := cfg.OutboundRate
	if rateLimit <= 0 {
		rateLimit = DefaultOutboundRate
	}
	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Queue{
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(rateLimit), 1),
		inbound:  make(chan Telegram, depth),
		outbound: make(chan Telegram, depth),
		done:     make(chan struct{}),
	}
}

// Start launches the inbound dispatch and outbound send loops.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(2)
	go q.dispatchLoop(ctx)
	go q.sendLoop(ctx)
}

// Stop halts both loops. Telegrams already buffered in the channels
// are discarded.
func (q *Queue) Stop() {
	close(q.done)
	q.wg.Wait()
}

// Deliver posts an inbound telegram received from the transport
// layer. It blocks if the inbound channel is full rather than
// dropping the telegram.
func (q *Queue) Deliver(ctx context.Context, t Telegram) {
	select {
	case q.inbound <- t:
	case <-ctx.Done():
	case <-q.done:
	}
}

// Enqueue submits an outgoing telegram. It blocks if the outbound
// channel is full (cooperative backpressure) or returns ErrQueueClosed
// once the queue has been stopped.
func (q *Queue) Enqueue(ctx context.Context, t Telegram) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.outbound <- t:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers callback to be invoked, in registration order
// alongside every other matching subscription, for every inbound
// telegram whose destination group address matches filter.
func (q *Queue) Subscribe(filter address.Filter, callback func(Telegram)) uint64 {
	id := q.nextSub.Add(1)
	q.subMu.Lock()
	q.subs = append(q.subs, subscription{id: id, filter: &filter, callback: callback})
	q.subMu.Unlock()
	return id
}

// SubscribeGroupSet registers callback for every inbound telegram
// whose destination group address is a member of addrs — the
// group-address-set dispatch a device with several datapoints
// subscribes through.
func (q *Queue) SubscribeGroupSet(addrs []address.GroupAddress, callback func(Telegram)) uint64 {
	set := make(map[uint16]struct{}, len(addrs))
	for _, ga := range addrs {
		set[ga.Raw()] = struct{}{}
	}
	id := q.nextSub.Add(1)
	q.subMu.Lock()
	q.subs = append(q.subs, subscription{id: id, gaSet: set, callback: callback})
	q.subMu.Unlock()
	return id
}

// Unsubscribe removes a previously registered subscription.
func (q *Queue) Unsubscribe(id uint64) {
	q.subMu.Lock()
	defer q.subMu.Unlock()
	for i, s := range q.subs {
		if s.id == id {
			q.subs = append(q.subs[:i], q.subs[i+1:]...)
			return
		}
	}
}

func (q *Queue) dispatchLoop(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case t := <-q.inbound:
			q.dispatch(t)
		case <-ctx.Done():
			return
		case <-q.done:
			return
		}
	}
}

func (q *Queue) dispatch(t Telegram) {
	q.delivered.Add(1)
	if !t.Destination.Group {
		return
	}

	q.subMu.RLock()
	matches := make([]subscription, 0, len(q.subs))
	for _, s := range q.subs {
		if s.matches(t.Destination.GA) {
			matches = append(matches, s)
		}
	}
	q.subMu.RUnlock()

	// registration order: subscription ids increase with each
	// Subscribe, so sorting by id yields the order of registration.
	sort.Slice(matches, func(i, j int) bool { return matches[i].id < matches[j].id })
	for _, s := range matches {
		s.callback(t)
	}
}

func (s subscription) matches(ga address.GroupAddress) bool {
	if s.gaSet != nil {
		_, ok := s.gaSet[ga.Raw()]
		return ok
	}
	return s.filter.Match(ga)
}

func (q *Queue) sendLoop(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case t := <-q.outbound:
			q.send(ctx, t)
		case <-ctx.Done():
			return
		case <-q.done:
			return
		}
	}
}

func (q *Queue) send(ctx context.Context, t Telegram) {
	if err := q.limiter.Wait(ctx); err != nil {
		return
	}
	if q.cfg.Send == nil {
		return
	}
	if err := q.cfg.Send(ctx, t); err != nil {
		q.errors.Add(1)
		return
	}
	q.sent.Add(1)
}

// Stats reports cumulative queue counters.
type Stats struct {
	Delivered uint64
	Sent      uint64
	Errors    uint64
}

// Stats returns the queue's cumulative counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Delivered: q.delivered.Load(),
		Sent:      q.sent.Load(),
		Errors:    q.errors.Load(),
	}
}

// InboundDepth returns the number of telegrams currently buffered
// awaiting dispatch to subscribers.
func (q *Queue) InboundDepth() int { return len(q.inbound) }

// OutboundDepth returns the number of telegrams currently buffered
// awaiting the rate-limited send loop.
func (q *Queue) OutboundDepth() int { return len(q.outbound) }
