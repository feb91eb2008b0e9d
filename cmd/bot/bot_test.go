package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wavesurvival/internal/logging"
	"wavesurvival/sim"
)

type countingSink struct{ results []sim.Result }

func (c *countingSink) Submit(r sim.Result) { c.results = append(c.results, r) }

func TestAwayYawWalksAwayFromThreat(t *testing.T) {
	yaw := awayYaw(sim.V(0, 0, 0), sim.V(0, 0, -5))
	assert.InDelta(t, math.Pi, math.Abs(yaw), 1e-9)

	forward := sim.V(-math.Sin(yaw), 0, -math.Cos(yaw))
	assert.InDelta(t, 1, forward.Z, 1e-9)
}

func TestBotPlaysAndSubmitsOnExit(t *testing.T) {
	sink := &countingSink{}
	s := sim.New(sim.Options{Seed: 7, Results: sink})
	b := &bot{name: "test", sim: s, tick: time.Millisecond, fireGap: time.Millisecond, log: logging.Discard()}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	stats := b.run(ctx)

	assert.GreaterOrEqual(t, stats.sessions, 1)
	assert.Equal(t, sim.Idle, s.State())
	require.NotEmpty(t, sink.results, "quitting submits the running session")
	last := sink.results[len(sink.results)-1]
	assert.False(t, last.DidDie)
	assert.GreaterOrEqual(t, last.Wave, 1)
}

func TestNearestEnemyEmpty(t *testing.T) {
	s := sim.New(sim.Options{Seed: 1})
	e, d := nearestEnemy(s)
	assert.Nil(t, e)
	assert.True(t, math.IsInf(d, 1))
}
