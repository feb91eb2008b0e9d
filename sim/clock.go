package sim

import "time"

// Playtime returns whole seconds of unpaused play between start and now.
// pauseStart is the zero time when not currently paused. A zero start
// means the session never began and yields 0.
func Playtime(start time.Time, pausedAccum time.Duration, pauseStart, now time.Time) int {
	if start.IsZero() {
		return 0
	}
	elapsed := now.Sub(start) - pausedAccum
	if !pauseStart.IsZero() {
		elapsed -= now.Sub(pauseStart)
	}
	if elapsed < 0 {
		return 0
	}
	return int(elapsed.Milliseconds() / 1000)
}

// SessionClock tracks wall time across pause/resume cycles
type SessionClock struct {
	now        func() time.Time
	start      time.Time
	paused     time.Duration
	pauseStart time.Time
}

// NewSessionClock creates a stopped clock. A nil now uses time.Now.
func NewSessionClock(now func() time.Time) *SessionClock {
	if now == nil {
		now = time.Now
	}
	return &SessionClock{now: now}
}

// Start (re)starts the clock from zero
func (c *SessionClock) Start() {
	c.start = c.now()
	c.paused = 0
	c.pauseStart = time.Time{}
}

// Pause stops accumulation; repeated calls are ignored
func (c *SessionClock) Pause() {
	if c.start.IsZero() || !c.pauseStart.IsZero() {
		return
	}
	c.pauseStart = c.now()
}

// Resume folds the current pause into the accumulated paused time
func (c *SessionClock) Resume() {
	if c.pauseStart.IsZero() {
		return
	}
	c.paused += c.now().Sub(c.pauseStart)
	c.pauseStart = time.Time{}
}

// Paused reports whether a pause is in progress
func (c *SessionClock) Paused() bool { return !c.pauseStart.IsZero() }

// Seconds returns the current playtime
func (c *SessionClock) Seconds() int {
	return Playtime(c.start, c.paused, c.pauseStart, c.now())
}
