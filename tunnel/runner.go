package tunnel

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/knxip/knxip"
)

// runner implements a generic request/response exchange: send a
// request, wait for a single matching response, retry up to a
// caller-supplied budget. Tunnel control exchanges (Connect,
// ConnectionState, Disconnect) are sequential by nature — the tunnel
// never has more than one outstanding control request — so a single
// pending slot is sufficient; it is simpler than a correlation-ID map
// and matches what the exchanges actually need.
type runner struct {
	send func([]byte) error

	mu      sync.Mutex
	pending *pendingResponse
}

type pendingResponse struct {
	match func(knxip.Body) bool
	ch    chan knxip.Body
}

func newRunner(send func([]byte) error) *runner {
	return &runner{send: send}
}

// dispatch offers a received body to the runner. It reports whether the
// body matched and was consumed by a pending Do call; callers (the
// tunnel's receive handler) should fall through to their own handling
// of the body when dispatch returns false.
func (r *runner) dispatch(body knxip.Body) bool {
	r.mu.Lock()
	p := r.pending
	if p == nil || !p.match(body) {
		r.mu.Unlock()
		return false
	}
	r.pending = nil
	r.mu.Unlock()

	select {
	case p.ch <- body:
	default:
	}
	return true
}

// do sends req repeatedly (up to maxRetries additional attempts after
// the first) until a response satisfying match arrives within timeout,
// or the budget is exhausted.
func (r *runner) do(ctx context.Context, req knxip.Frame, match func(knxip.Body) bool, timeout time.Duration, maxRetries int) (knxip.Body, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		ch := make(chan knxip.Body, 1)
		r.mu.Lock()
		r.pending = &pendingResponse{match: match, ch: ch}
		r.mu.Unlock()

		if err := r.send(req.Encode()); err != nil {
			r.clear(ch)
			return nil, err
		}

		timer := time.NewTimer(timeout)
		select {
		case body := <-ch:
			timer.Stop()
			return body, nil
		case <-timer.C:
			r.clear(ch)
		case <-ctx.Done():
			timer.Stop()
			r.clear(ch)
			return nil, ctx.Err()
		}
	}
	return nil, ErrResponseTimeout
}

// clear removes the pending slot if it is still the one owning ch,
// guarding against a response that arrived and was already consumed
// between the timer firing and this call running.
func (r *runner) clear(ch chan knxip.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil && sameChan(r.pending.ch, ch) {
		r.pending = nil
	}
}

func sameChan(a, b chan knxip.Body) bool {
	return a == b
}
