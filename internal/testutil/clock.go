package testutil

import (
	"fmt"
	"sync"
	"time"

	"dose-go/internal/dose"
)

// StubClock is a manually advanced clock. Tickers and timers created from it
// fire only when Advance moves the time past their deadline. Like real
// tickers, a stub ticker holds at most one pending tick and drops the rest.
// Safe for concurrent use.
type StubClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*stubTicker
	timers  []*stubTimer
}

var _ dose.Clock = (*StubClock)(nil)

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *StubClock) NewTicker(d time.Duration) dose.Ticker {
	if d <= 0 {
		panic("non-positive interval for NewTicker")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &stubTicker{clock: c, c: make(chan time.Time, 1), period: d, next: c.now.Add(d)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *StubClock) NewTimer(d time.Duration) dose.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &stubTimer{clock: c, c: make(chan time.Time, 1), deadline: c.now.Add(d)}
	c.timers = append(c.timers, t)
	c.fireLocked()
	return t
}

// Advance moves the clock forward by d and fires every ticker and timer
// whose deadline has been reached.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.fireLocked()
}

// Set moves the clock to t, firing as Advance does.
func (c *StubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	c.fireLocked()
}

// ActiveTickers returns the number of tickers that have not been stopped.
func (c *StubClock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// ActiveTimers returns the number of timers that have neither fired nor been stopped.
func (c *StubClock) ActiveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *StubClock) fireLocked() {
	for _, t := range c.tickers {
		if t.stopped || t.next.After(c.now) {
			continue
		}
		select {
		case t.c <- t.next:
		default:
		}
		for !t.next.After(c.now) {
			t.next = t.next.Add(t.period)
		}
	}
	for _, t := range c.timers {
		if t.stopped || t.fired || t.deadline.After(c.now) {
			continue
		}
		t.fired = true
		t.c <- t.deadline
	}
}

type stubTicker struct {
	clock   *StubClock
	c       chan time.Time
	period  time.Duration
	next    time.Time
	stopped bool
}

func (t *stubTicker) C() <-chan time.Time { return t.c }

func (t *stubTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}

type stubTimer struct {
	clock    *StubClock
	c        chan time.Time
	deadline time.Time
	fired    bool
	stopped  bool
}

func (t *stubTimer) C() <-chan time.Time { return t.c }

func (t *stubTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// StubIDGenerator returns sequential IDs: "id-1", "id-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}
