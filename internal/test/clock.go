package test

import (
	"sync"
	"time"

	"github.com/wingbite/trackd/internal/pkg/clock"
)

// FakeClock is a manually advanced clock.Clock. Tests move time forward with
// Advance and observe scheduling hygiene through Outstanding.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
	created int
	stopped int
}

// NewFakeClock creates a fake clock frozen at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a fake ticker firing every d of fake time.
func (c *FakeClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTicker{
		clock:    c,
		interval: d,
		next:     c.now.Add(d),
		ch:       make(chan time.Time, 64),
	}
	c.tickers = append(c.tickers, t)
	c.created++
	return t
}

// Advance moves the clock forward and fires every due tick. Ticks beyond a
// ticker's buffer are dropped, matching time.Ticker behaviour for slow
// consumers.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(c.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.interval)
		}
	}
}

// Outstanding reports tickers created but not yet stopped. A clean shutdown
// leaves zero.
func (c *FakeClock) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created - c.stopped
}

// FakeTicker implements clock.Ticker against a FakeClock.
type FakeTicker struct {
	clock    *FakeClock
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

// C returns the tick channel.
func (t *FakeTicker) C() <-chan time.Time { return t.ch }

// Stop deregisters the ticker; stopping twice counts once.
func (t *FakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.clock.stopped++
}
