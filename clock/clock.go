// Package clock provides the monotonic time source that drives the
// runtime's cooperative scheduler, plus a Driver that ticks it on its
// own goroutine.
package clock

import (
	"sync"
	"time"
)

// Tickable is registered with a Clock to receive drive ticks.
type Tickable interface {
	// Tick is called with the elapsed milliseconds since the previous
	// drive (or since the clock was constructed or last resumed).
	Tick(elapsedMs int64)
}

// Clock is the sole authority for "now". It registers tickables and
// drives them forward on each Advance call. Pausing stops Advance from
// accumulating elapsed time; resuming does not replay the paused
// interval.
type Clock struct {
	mu sync.Mutex

	now       func() time.Time
	tickables map[int]Tickable
	nextID    int

	paused   bool
	lastTick time.Time
}

// New constructs a Clock backed by the real wall clock.
func New() *Clock {
	return &Clock{
		now:       time.Now,
		tickables: make(map[int]Tickable),
		lastTick:  time.Now(),
	}
}

// Register adds t to the set of tickables driven by Advance, returning
// an id usable with Unregister.
func (c *Clock) Register(t Tickable) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.tickables[c.nextID] = t
	return c.nextID
}

// Unregister removes a previously registered tickable.
func (c *Clock) Unregister(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tickables, id)
}

// Pause stops Advance from accumulating elapsed time until Resume is
// called. Pause does not disturb already-recorded elapsed time.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume re-arms Advance without simulating the time spent paused: the
// next Advance call measures elapsed time from the moment of Resume, not
// from the moment of Pause.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	c.lastTick = c.now()
}

// Now returns the current time from the underlying source.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

// Advance drives every registered tickable forward by the elapsed time
// since the previous Advance (or since construction/Resume), and returns
// the elapsed milliseconds. A no-op while paused.
func (c *Clock) Advance() int64 {
	c.mu.Lock()
	if c.paused {
		c.mu.Unlock()
		return 0
	}
	now := c.now()
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now
	tickables := make([]Tickable, 0, len(c.tickables))
	for _, t := range c.tickables {
		tickables = append(tickables, t)
	}
	c.mu.Unlock()

	elapsedMs := elapsed.Milliseconds()
	for _, t := range tickables {
		t.Tick(elapsedMs)
	}
	return elapsedMs
}
