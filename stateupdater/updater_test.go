package stateupdater

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/knxip/address"
)

func ga(s string) address.GroupAddress {
	a, err := address.ParseGroupAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func TestOffStrategyNeverReads(t *testing.T) {
	var reads int32
	u := New(Config{Read: func(context.Context, address.GroupAddress) error {
		reads++
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	u.Track(ctx, ga("1/1/1"), Off, 0)

	time.Sleep(50 * time.Millisecond)
	u.Stop()
	if reads != 0 {
		t.Errorf("reads = %d, want 0 for an Off strategy", reads)
	}
}

func TestInitStrategyReadsOnceShortlyAfterStart(t *testing.T) {
	done := make(chan address.GroupAddress, 2)
	u := New(Config{Read: func(_ context.Context, g address.GroupAddress) error {
		done <- g
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := ga("2/2/2")
	u.Track(ctx, target, Init, 0)

	select {
	case g := <-done:
		if g != target {
			t.Errorf("read for %v, want %v", g, target)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Init strategy never issued its read")
	}

	select {
	case <-done:
		t.Fatal("Init strategy issued a second read")
	case <-time.After(200 * time.Millisecond):
	}
	u.Stop()
}

func TestEveryStrategyReadsRepeatedly(t *testing.T) {
	var mu sync.Mutex
	count := 0
	u := New(Config{Read: func(context.Context, address.GroupAddress) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	u.Track(ctx, ga("3/3/3"), Every, 30*time.Millisecond)

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := count
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("got %d reads in time budget, want at least 3", n)
		case <-time.After(10 * time.Millisecond):
		}
	}
	u.Stop()
}

func TestExpireStrategyReadsOnlyAfterSilence(t *testing.T) {
	reads := make(chan struct{}, 10)
	u := New(Config{Read: func(context.Context, address.GroupAddress) error {
		reads <- struct{}{}
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := ga("5/5/5")
	u.Track(ctx, target, Expire, 100*time.Millisecond)
	// Expire makes no startup read (its first timer runs Interval plus
	// jitter); the drain only guards against a stray read being mistaken
	// for a silence-triggered one.
	u.Touch(target)
	time.Sleep(10 * time.Millisecond)
	select {
	case <-reads:
	default:
	}

	// Keep touching faster than the expiry interval: no read should fire.
	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		u.Touch(target)
	}
	select {
	case <-reads:
		t.Fatal("Expire strategy read despite continuous inbound updates")
	default:
	}

	// Stop touching and expect a read once the interval elapses.
	select {
	case <-reads:
	case <-time.After(3 * time.Second):
		t.Fatal("Expire strategy never read after silence")
	}
	u.Stop()
}
