package session

import (
	"sync"
	"time"
)

// rollTimer fires a callback when the roll it is armed for outlives its timeout.
// It is safe for concurrent use.
//
// Invariant: onExpire is called at most once per Start, and never for a roll
// after Stop or a later Start has been called.
type rollTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	armed    string
	onExpire func(rollID string)
}

// newRollTimer creates a stopped timer. onExpire is called in a separate goroutine.
//
// Precondition: onExpire must not be nil.
func newRollTimer(onExpire func(rollID string)) *rollTimer {
	return &rollTimer{onExpire: onExpire}
}

// Start arms the timer for rollID, replacing any earlier arm.
//
// Precondition: d > 0; rollID is unique per roll.
// Postcondition: onExpire(rollID) is called after d unless Stop or Start is called first.
func (rt *rollTimer) Start(rollID string, d time.Duration) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.armed = rollID
	rt.timer = time.AfterFunc(d, func() {
		rt.mu.Lock()
		fire := rt.armed == rollID
		if fire {
			rt.armed = ""
		}
		rt.mu.Unlock()
		if fire {
			rt.onExpire(rollID)
		}
	})
}

// Stop disarms the timer. Safe to call multiple times.
//
// Postcondition: onExpire will not be called for the current arm after Stop returns.
func (rt *rollTimer) Stop() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.armed = ""
	if rt.timer != nil {
		rt.timer.Stop()
	}
}
