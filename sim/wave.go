package sim

import (
	"math"
	"strings"
)

const (
	SpawnInterval = 1.0 // seconds between spawns

	zombieSpawnMin, zombieSpawnMax = 15.0, 25.0
	titanSpawnMin, titanSpawnMax   = 20.0, 35.0
)

// Difficulty scales enemy movement speed
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty accepts any casing of easy/medium/hard
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d, true
	}
	return Medium, false
}

// SpeedMultiplier returns the factor applied to base enemy speed.
// Unknown values behave like Medium.
func (d Difficulty) SpeedMultiplier() float64 {
	switch d {
	case Easy:
		return 0.3
	case Hard:
		return 2.0
	}
	return 1.0
}

// Quota is a per-kind enemy count
type Quota struct {
	Zombies int `json:"zombies"`
	Titans  int `json:"titans"`
}

// Total returns the sum of both kinds
func (q Quota) Total() int { return q.Zombies + q.Titans }

// QuotaFor returns how many of each enemy wave n spawns
func QuotaFor(n int) Quota {
	switch {
	case n <= 1:
		return Quota{Zombies: 20}
	case n == 2:
		return Quota{Zombies: 40}
	case n == 3:
		return Quota{Zombies: 60, Titans: 1}
	}
	extra := n - 3
	return Quota{Zombies: 60 + 20*extra, Titans: 1 + extra}
}

// WavePhase is the state of the current wave
type WavePhase int

const (
	Spawning  WavePhase = iota // quota not fully issued
	Clearing                   // quota issued, enemies alive
	Advancing                  // quota issued, none alive
)

func (p WavePhase) String() string {
	switch p {
	case Spawning:
		return "spawning"
	case Clearing:
		return "clearing"
	case Advancing:
		return "advancing"
	}
	return "unknown"
}

// WaveDirector owns the spawn schedule and every live enemy
type WaveDirector struct {
	wave     int
	quota    Quota
	issued   Quota
	timer    float64
	speedMul float64
	enemies  []*Enemy
}

// NewWaveDirector starts at wave 1 in the Spawning phase
func NewWaveDirector(d Difficulty) *WaveDirector {
	w := &WaveDirector{}
	w.Reset(d)
	return w
}

// Reset discards all enemies and returns to wave 1
func (w *WaveDirector) Reset(d Difficulty) {
	for _, e := range w.enemies {
		e.Die()
	}
	w.enemies = nil
	w.wave = 1
	w.quota = QuotaFor(1)
	w.issued = Quota{}
	w.timer = 0
	w.speedMul = d.SpeedMultiplier()
}

// Wave returns the current wave number, starting at 1
func (w *WaveDirector) Wave() int { return w.wave }

func (w *WaveDirector) Quota() Quota { return w.quota }

func (w *WaveDirector) Issued() Quota { return w.issued }

// Enemies returns the live enemy list. Callers must not retain it across ticks.
func (w *WaveDirector) Enemies() []*Enemy { return w.enemies }

// Alive counts enemies that have not died, including ones killed since
// the last compaction.
func (w *WaveDirector) Alive() Quota {
	var q Quota
	for _, e := range w.enemies {
		if !e.Alive() {
			continue
		}
		if e.Kind == Titan {
			q.Titans++
		} else {
			q.Zombies++
		}
	}
	return q
}

// Remaining is the number of enemies still to defeat this wave:
// unissued quota plus live enemies.
func (w *WaveDirector) Remaining() Quota {
	alive := w.Alive()
	return Quota{
		Zombies: w.quota.Zombies - w.issued.Zombies + alive.Zombies,
		Titans:  w.quota.Titans - w.issued.Titans + alive.Titans,
	}
}

// Phase derives the wave state from issued counts and live enemies
func (w *WaveDirector) Phase() WavePhase {
	if w.issued != w.quota {
		return Spawning
	}
	if w.Alive().Total() > 0 {
		return Clearing
	}
	return Advancing
}

// Update runs one tick: spawn, update live enemies, purge the dead and
// advance the wave once it is cleared.
func (w *WaveDirector) Update(g *engagement) {
	if w.issued != w.quota {
		w.timer += g.dt
		if w.timer >= SpawnInterval {
			switch {
			case w.issued.Titans < w.quota.Titans:
				w.spawn(g, Titan)
				w.issued.Titans++
			case w.issued.Zombies < w.quota.Zombies:
				w.spawn(g, Zombie)
				w.issued.Zombies++
			}
			w.timer = 0
		}
	}

	for _, e := range w.enemies {
		e.Update(g)
	}
	w.compact()

	if w.Phase() == Advancing {
		w.advance(g)
	}
}

func (w *WaveDirector) spawn(g *engagement, kind Kind) *Enemy {
	lo, hi := zombieSpawnMin, zombieSpawnMax
	if kind == Titan {
		lo, hi = titanSpawnMin, titanSpawnMax
	}
	angle := g.rng.Float64() * 2 * math.Pi
	dist := lo + g.rng.Float64()*(hi-lo)
	center := g.target.Position()
	pos := V(center.X+math.Cos(angle)*dist, 0, center.Z+math.Sin(angle)*dist)

	e := NewEnemy(g.nextID(), kind, pos, w.speedMul)
	w.enemies = append(w.enemies, e)
	g.events.emit(Event{Kind: EventEnemySpawned, EntityID: e.ID, Enemy: kind, Wave: w.wave, Pos: e.Pos})
	return e
}

func (w *WaveDirector) advance(g *engagement) {
	w.wave++
	w.quota = QuotaFor(w.wave)
	w.issued = Quota{}
	w.timer = 0
	g.events.emit(Event{Kind: EventWaveAdvanced, Wave: w.wave})
}

func (w *WaveDirector) compact() {
	live := w.enemies[:0]
	for _, e := range w.enemies {
		if e.Alive() {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(w.enemies); i++ {
		w.enemies[i] = nil
	}
	w.enemies = live
}
