package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlaytime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(95 * time.Second)

	assert.Equal(t, 0, Playtime(time.Time{}, 0, time.Time{}, now), "never started")
	assert.Equal(t, 95, Playtime(start, 0, time.Time{}, now))
	assert.Equal(t, 80, Playtime(start, 15*time.Second, time.Time{}, now))
	assert.Equal(t, 70, Playtime(start, 15*time.Second, now.Add(-10*time.Second), now), "open pause excluded")
	assert.Equal(t, 1, Playtime(start, 0, time.Time{}, start.Add(1999*time.Millisecond)), "floored")
}

func TestSessionClockPauseResume(t *testing.T) {
	clk := newFakeClock()
	c := NewSessionClock(clk.Now)
	assert.Equal(t, 0, c.Seconds())

	c.Start()
	clk.Advance(10 * time.Second)
	c.Pause()
	assert.True(t, c.Paused())
	clk.Advance(30 * time.Second)
	assert.Equal(t, 10, c.Seconds())

	c.Pause() // ignored
	c.Resume()
	assert.False(t, c.Paused())
	clk.Advance(5 * time.Second)
	assert.Equal(t, 15, c.Seconds())

	c.Start()
	assert.Equal(t, 0, c.Seconds())
}
