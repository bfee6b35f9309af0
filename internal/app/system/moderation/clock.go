package moderation

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing timestamps at millisecond precision,
// the precision the document store keeps.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
