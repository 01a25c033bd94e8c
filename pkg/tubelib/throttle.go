package tubelib

import (
	"sync"
	"time"
)

// DefaultThrottleInterval is the minimum spacing of progress emissions.
const DefaultThrottleInterval = 500 * time.Millisecond

// Throttler rate-limits progress emissions for a single task. The first
// call to ShouldUpdate always passes.
type Throttler struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewThrottler returns a Throttler for interval; a non-positive interval
// uses DefaultThrottleInterval.
func NewThrottler(interval time.Duration) *Throttler {
	return newThrottlerClock(interval, time.Now)
}

func newThrottlerClock(interval time.Duration, now func() time.Time) *Throttler {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &Throttler{
		interval: interval,
		last:     now().Add(-interval),
		now:      now,
	}
}

// ShouldUpdate reports whether interval has elapsed since the last
// emission and, if so, records now as the last emission.
func (t *Throttler) ShouldUpdate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// ForceUpdate records now as the last emission without asking.
func (t *Throttler) ForceUpdate() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

// Allow reports whether p should be emitted. Completion records always
// pass.
func (t *Throttler) Allow(p Progress) bool {
	if p.IsComplete() {
		t.ForceUpdate()
		return true
	}
	return t.ShouldUpdate()
}
