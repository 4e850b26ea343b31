package clock

import "time"

// FakeClock is a Clock pinned to an instant the test controls. It only
// moves when Advance is called.
type FakeClock struct {
	current time.Time
}

// NewFakeClock pins the clock at t, normalized to UTC like SystemClock.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the pinned instant forward by d. Not safe for
// concurrent use with Now; tests drive it from a single goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
