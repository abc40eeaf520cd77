package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is where a DeterministicClock starts unless told otherwise.
var DefaultEpoch = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a wall clock for tests: every call to Now advances
// by a fixed step, so transaction instants are reproducible across runs.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewDeterministicClock starts at DefaultEpoch and steps one second.
//
// The first call to Now() returns DefaultEpoch + 1s.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch, time.Second)
}

// NewDeterministicClockAt starts at start and advances by step per call.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{start: start.UTC(), step: step}
}

// Now advances the clock and returns the new time.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.start.Add(time.Duration(c.ticks) * c.step)
}

// Current returns the last time handed out without advancing.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.ticks) * c.step)
}

// Reset rewinds the clock to its start.
//
// Used for test reuse. After Reset(), Now() again returns start + step.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
