package stateupdater

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/knxip/address"
)

// ReadFunc issues a GroupValueRead for ga, typically by enqueueing a
// read telegram on the outbound queue.
type ReadFunc func(ctx context.Context, ga address.GroupAddress) error

// Config configures an Updater.
type Config struct {
	Read ReadFunc
}

// entry is one tracked remote value.
type entry struct {
	ga       address.GroupAddress
	strategy Strategy
	interval time.Duration

	mu         sync.Mutex
	lastUpdate time.Time
	resetCh    chan struct{}
	cancel     context.CancelFunc
}

// Updater schedules reads for a set of tracked remote values according
// to each value's Strategy.
type Updater struct {
	cfg Config

	mu      sync.Mutex
	entries map[uint16]*entry

	wg sync.WaitGroup
}

// New constructs an Updater.
func New(cfg Config) *Updater {
	return &Updater{cfg: cfg, entries: make(map[uint16]*entry)}
}

// Track registers ga to be kept fresh per strategy. interval is
// ignored for Off and Init. The entry's schedule starts immediately
// and runs until ctx is cancelled.
func (u *Updater) Track(ctx context.Context, ga address.GroupAddress, strategy Strategy, interval time.Duration) {
	e := &entry{ga: ga, strategy: strategy, interval: interval, resetCh: make(chan struct{}, 1)}
	u.mu.Lock()
	u.entries[ga.Raw()] = e
	u.mu.Unlock()
	u.startEntry(ctx, e)
}

// Touch records an inbound update for ga, resetting its Expire timer
// if it has one. Values tracked with any other strategy ignore Touch.
func (u *Updater) Touch(ga address.GroupAddress) {
	u.mu.Lock()
	e, ok := u.entries[ga.Raw()]
	u.mu.Unlock()
	if !ok || e.strategy != Expire {
		return
	}
	e.mu.Lock()
	e.lastUpdate = time.Now()
	e.mu.Unlock()
	select {
	case e.resetCh <- struct{}{}:
	default:
	}
}

// Stop cancels every tracked value's schedule and waits for its
// goroutine to exit.
func (u *Updater) Stop() {
	u.mu.Lock()
	entries := make([]*entry, 0, len(u.entries))
	for _, e := range u.entries {
		entries = append(entries, e)
	}
	u.mu.Unlock()
	for _, e := range entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
	u.wg.Wait()
}

func (u *Updater) startEntry(ctx context.Context, e *entry) {
	if e.strategy == Off {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		switch e.strategy {
		case Init:
			u.runInit(ctx, e)
		case Every:
			u.runEvery(ctx, e)
		case Expire:
			u.runExpire(ctx, e)
		}
	}()
}

func startupJitter() time.Duration {
	return time.Duration(rand.Int64N(int64(maxStartupJitter) + 1))
}

func (u *Updater) runInit(ctx context.Context, e *entry) {
	select {
	case <-time.After(startupJitter()):
	case <-ctx.Done():
		return
	}
	u.read(ctx, e)
}

func (u *Updater) runEvery(ctx context.Context, e *entry) {
	select {
	case <-time.After(startupJitter()):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	u.read(ctx, e)
	for {
		select {
		case <-ticker.C:
			u.read(ctx, e)
		case <-ctx.Done():
			return
		}
	}
}

func (u *Updater) runExpire(ctx context.Context, e *entry) {
	timer := time.NewTimer(e.interval + startupJitter())
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			u.read(ctx, e)
			timer.Reset(e.interval)
		case <-e.resetCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(e.interval)
		case <-ctx.Done():
			return
		}
	}
}

func (u *Updater) read(ctx context.Context, e *entry) {
	if u.cfg.Read == nil {
		return
	}
	_ = u.cfg.Read(ctx, e.ga)
}
