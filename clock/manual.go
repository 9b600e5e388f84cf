package clock

import "time"

// NewManual constructs a Clock backed by a fake time source for
// deterministic tests. The returned advance function moves the fake
// clock forward by d; the caller must still call Advance on the Clock to
// drive registered tickables.
func NewManual(start time.Time) (c *Clock, advance func(d time.Duration)) {
	fake := start
	cl := &Clock{
		now:       func() time.Time { return fake },
		tickables: make(map[int]Tickable),
		lastTick:  start,
	}
	return cl, func(d time.Duration) {
		fake = fake.Add(d)
	}
}
