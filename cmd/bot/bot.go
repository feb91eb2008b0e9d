package main

import (
	"context"
	"log/slog"
	"math"
	"time"

	"wavesurvival/sim"
)

// bot plays one simulation with a fixed policy: retreat from the nearest
// enemy once it is close and shoot at it on a fixed cadence.
type bot struct {
	name     string
	sim      *sim.Simulation
	tick     time.Duration
	fireGap  time.Duration
	log      *slog.Logger
	sessions int
}

type botStats struct {
	sessions  int
	bestScore int
	bestWave  int
}

func (b *bot) run(ctx context.Context) botStats {
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()

	b.sim.Start()
	b.sessions = 1
	var sinceShot time.Duration
	dt := b.tick.Seconds()

	for {
		select {
		case <-ctx.Done():
			b.sim.Quit()
			return botStats{sessions: b.sessions, bestScore: b.sim.HighestScore(), bestWave: b.sim.HighestWave()}
		case <-ticker.C:
		}

		switch b.sim.State() {
		case sim.Over:
			b.log.Info("bot died", "bot", b.name, "score", b.sim.Score(), "wave", b.sim.Wave())
			b.sim.Start()
			b.sessions++
			continue
		case sim.Playing:
		default:
			b.sim.Tick(dt, sim.Input{})
			continue
		}

		target, dist := nearestEnemy(b.sim)
		in := sim.Input{Yaw: b.sim.Player().Yaw}
		if target != nil {
			in.Yaw = awayYaw(b.sim.Player().Pos, target.Pos)
			in.Forward = dist < 8
		}
		b.sim.Tick(dt, in)

		sinceShot += b.tick
		if target != nil && target.Alive() && sinceShot >= b.fireGap {
			sinceShot = 0
			eye := b.sim.Player().Pos
			b.sim.Shoot(sim.Ray{Origin: eye, Dir: target.Pos.Sub(eye)})
		}

		for _, ev := range b.sim.Events() {
			if ev.Kind == sim.EventWaveAdvanced {
				b.log.Info("wave cleared", "bot", b.name, "wave", ev.Wave, "score", b.sim.Score())
			}
		}
	}
}

func nearestEnemy(s *sim.Simulation) (*sim.Enemy, float64) {
	var best *sim.Enemy
	bestDist := math.Inf(1)
	pos := s.Player().Pos
	for _, e := range s.Waves().Enemies() {
		if !e.Alive() {
			continue
		}
		if d := pos.Flat().Dist(e.Pos.Flat()); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, bestDist
}

// awayYaw is the player heading that walks directly away from threat.
// Player yaw 0 faces -Z.
func awayYaw(from, threat sim.Vec3) float64 {
	d := from.Sub(threat)
	return math.Atan2(-d.X, -d.Z)
}
