package clock

import "time"

// FakeClock reports a fixed instant until advanced. Ingestion tests use it to
// pin the backfill horizon to a known day.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now.UTC()}
}

func (c *FakeClock) Now() time.Time { return c.now }

// Advance moves the reported instant forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
