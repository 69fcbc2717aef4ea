package ratelimiter

import (
	"sync"
	"time"
)

// SlidingWindowLimiter counts sends per email over a trailing window.
// A send only consumes budget once Record is called, so callers can gate
// with Allow, attempt delivery, and record only on success.
type SlidingWindowLimiter struct {
	sync.Mutex
	sends  map[string][]time.Time //string: normalized email, value: send timestamps
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		sends:  make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (rl *SlidingWindowLimiter) SetClock(now func() time.Time) {
	rl.now = now
}

// Allow reports whether email still has send budget in the current window.
// On denial it also returns how long until the oldest send ages out.
func (rl *SlidingWindowLimiter) Allow(email string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	recent := rl.pruneLocked(email)
	if len(recent) < rl.limit {
		return true, 0
	}

	retryAfter := recent[0].Add(rl.window).Sub(rl.now())
	return false, retryAfter
}

// Record consumes one unit of budget. Call only after a successful dispatch.
func (rl *SlidingWindowLimiter) Record(email string) {
	rl.Lock()
	defer rl.Unlock()

	rl.sends[email] = append(rl.pruneLocked(email), rl.now())
}

// Sweep prunes every record and drops the empty ones. Run from the reaper.
func (rl *SlidingWindowLimiter) Sweep() {
	rl.Lock()
	defer rl.Unlock()

	for email := range rl.sends {
		rl.pruneLocked(email)
	}
}

// Len returns the number of tracked emails, for expvar.
func (rl *SlidingWindowLimiter) Len() int {
	rl.Lock()
	defer rl.Unlock()
	return len(rl.sends)
}

// pruneLocked drops timestamps older than the window and deletes the entry
// once empty. Caller must hold the lock.
func (rl *SlidingWindowLimiter) pruneLocked(email string) []time.Time {
	cutoff := rl.now().Add(-rl.window)

	recent := rl.sends[email][:0]
	for _, ts := range rl.sends[email] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) == 0 {
		delete(rl.sends, email)
		return nil
	}
	rl.sends[email] = recent
	return recent
}
