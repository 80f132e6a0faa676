package core

import (
	"sync"
	"time"
)

// Clock supplies ledger time in unix seconds. Successive readings never
// decrease.
type Clock interface {
	Now() uint64
}

// MonotonicClock wraps the wall clock and holds its last reading so a wall
// clock step backwards never moves ledger time backwards.
type MonotonicClock struct {
	mu     sync.Mutex
	last   uint64
	source func() time.Time
}

// NewMonotonicClock returns a clock reading time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{source: time.Now}
}

// Now implements Clock.
func (c *MonotonicClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	source := c.source
	if source == nil {
		source = time.Now
	}
	now := source().Unix()
	if now < 0 {
		now = 0
	}
	if uint64(now) > c.last {
		c.last = uint64(now)
	}
	return c.last
}

// ManualClock is advanced explicitly. Tests and simulations use it to step
// programs across deadlines.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock starts a manual clock at start.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements Clock.
func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by delta seconds.
func (c *ManualClock) Advance(delta uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += delta
	return c.now
}

// Set moves the clock to ts. Earlier timestamps are ignored.
func (c *ManualClock) Set(ts uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.now {
		c.now = ts
	}
}
