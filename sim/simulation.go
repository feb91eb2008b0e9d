package sim

import (
	"math/rand"
	"time"
)

const (
	MaxTickDelta = 0.1 // seconds

	ActiveReportInterval = 100 * time.Millisecond
	IdleReportInterval   = 200 * time.Millisecond
)

// State is the session lifecycle stage
type State int

const (
	Idle State = iota
	Playing
	Paused
	Over
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Over:
		return "over"
	}
	return "unknown"
}

// Reporter publishes live progress to the shared leaderboard
type Reporter interface {
	Report(score, wave int)
	Stop()
}

// ResultSink receives the final numbers of a finished session.
// Implementations must not block.
type ResultSink interface {
	Submit(Result)
}

// Result is what gets persisted when a session ends
type Result struct {
	Score      int
	Wave       int
	Kills      Kills
	Playtime   int // seconds
	Difficulty Difficulty
	DidDie     bool
}

// SessionStats is the running tally of the current session
type SessionStats struct {
	Kills          Kills
	InitialEnemies Quota
	Playtime       int
}

// Options configures a Simulation
type Options struct {
	Seed       int64
	Difficulty Difficulty
	Now        func() time.Time // defaults to time.Now
	World      bool             // scatter trees and rocks

	Reporter  Reporter
	Results   ResultSink
	Presenter Presenter
}

// Simulation runs one player's game. It is not safe for concurrent use;
// drive it from a single loop.
type Simulation struct {
	now        func() time.Time
	rng        *rand.Rand
	lastID     uint64
	difficulty Difficulty
	state      State

	player    *Player
	obstacles *CollisionIndex
	scenery   []*Obstacle
	waves     *WaveDirector
	items     *ItemField
	combat    *CombatResolver
	events    *EventLog
	clock     *SessionClock

	kills         Kills
	initial       Quota
	score         int
	highestScore  int
	highestWave   int
	lastReport    time.Time
	reportedScore int
	reportedWave  int

	reporter  Reporter
	results   ResultSink
	presenter Presenter
	attached  Arena
}

// New builds an idle simulation
func New(opts Options) *Simulation {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	d, ok := ParseDifficulty(string(opts.Difficulty))
	if !ok {
		d = Medium
	}
	s := &Simulation{
		now:        now,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		difficulty: d,
		player:     NewPlayer(),
		obstacles:  NewCollisionIndex(),
		waves:      NewWaveDirector(d),
		items:      &ItemField{},
		events:     &EventLog{},
		clock:      NewSessionClock(now),
		reporter:   opts.Reporter,
		results:    opts.Results,
		presenter:  opts.Presenter,
		attached:   Arena{},
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	if s.results == nil {
		s.results = nopSink{}
	}
	s.combat = NewCombatResolver(s.waves, s.items, s.rng, s.nextID, s.events)
	if opts.World {
		s.scenery = GenerateWorld(s.rng, s.obstacles)
	}
	s.lastReport = now()
	return s
}

func (s *Simulation) nextID() uint64 {
	s.lastID++
	return s.lastID
}

func (s *Simulation) State() State { return s.state }

func (s *Simulation) Player() *Player { return s.player }

func (s *Simulation) Obstacles() *CollisionIndex { return s.obstacles }

// Scenery lists generated trees and rocks; empty unless Options.World was set
func (s *Simulation) Scenery() []*Obstacle { return s.scenery }

func (s *Simulation) Waves() *WaveDirector { return s.waves }

func (s *Simulation) Items() []*Item { return s.items.Items() }

func (s *Simulation) Difficulty() Difficulty { return s.difficulty }

func (s *Simulation) Score() int { return s.score }

// HighestScore and HighestWave survive restarts; idle reports use them
func (s *Simulation) HighestScore() int { return s.highestScore }

func (s *Simulation) HighestWave() int { return s.highestWave }

// Wave returns the current wave
func (s *Simulation) Wave() int { return s.waves.Wave() }

// Remaining returns enemies left to defeat in the current wave
func (s *Simulation) Remaining() Quota { return s.waves.Remaining() }

// Session returns kill counters, the wave-start enemy snapshot and playtime
func (s *Simulation) Session() SessionStats {
	return SessionStats{Kills: s.kills, InitialEnemies: s.initial, Playtime: s.clock.Seconds()}
}

// Events drains everything that happened since the last call
func (s *Simulation) Events() []Event { return s.events.Drain() }

// SetDifficulty takes effect on the next Start or Restart
func (s *Simulation) SetDifficulty(d Difficulty) {
	if v, ok := ParseDifficulty(string(d)); ok {
		s.difficulty = v
	}
}

// Start begins a session from the idle or game-over screen
func (s *Simulation) Start() {
	if s.state == Playing || s.state == Paused {
		return
	}
	s.begin()
	s.report(0, s.waves.Wave())
}

// Restart abandons the current run and starts over without submitting it
func (s *Simulation) Restart() {
	s.begin()
}

func (s *Simulation) begin() {
	s.reset()
	s.clock.Start()
	s.initial = s.waves.Remaining()
	s.state = Playing
}

func (s *Simulation) reset() {
	s.player.Reset()
	s.waves.Reset(s.difficulty)
	s.items.Reset()
	s.kills = Kills{}
	s.score = 0
	s.reconcile()
}

// Pause freezes the world and the playtime clock
func (s *Simulation) Pause() {
	if s.state != Playing {
		return
	}
	s.state = Paused
	s.clock.Pause()
	s.report(s.score, s.waves.Wave())
}

// Resume continues a paused session
func (s *Simulation) Resume() {
	if s.state != Paused {
		return
	}
	s.clock.Resume()
	s.state = Playing
	s.report(s.score, s.waves.Wave())
}

// Quit ends an active session without a death. The run is submitted and
// the leaderboard entry zeroed and then withdrawn.
func (s *Simulation) Quit() {
	if s.state == Playing || s.state == Paused {
		s.results.Submit(s.result(false))
		s.report(0, 0)
		s.reporter.Stop()
		s.reset()
		s.clock = NewSessionClock(s.now)
		s.initial = Quota{}
	}
	s.state = Idle
}

func (s *Simulation) gameOver() {
	s.state = Over
	s.results.Submit(s.result(true))
	s.reporter.Stop()
}

func (s *Simulation) result(didDie bool) Result {
	wave := s.waves.Wave()
	return Result{
		Score:      Score(s.kills.Zombies, s.kills.Titans, wave),
		Wave:       wave,
		Kills:      s.kills,
		Playtime:   s.clock.Seconds(),
		Difficulty: s.difficulty,
		DidDie:     didDie,
	}
}

// Shoot fires one round along ray. Without ammo, or outside play, nothing happens.
func (s *Simulation) Shoot(ray Ray) ShotResult {
	if s.state != Playing || !s.player.ConsumeAmmo() {
		return ShotResult{}
	}
	res := s.combat.ResolveShot(ray)
	if res.Killed {
		s.kills.add(res.Kind)
		s.updateScore()
	}
	return res
}

// Tick advances the session by dt seconds of wall time. Call it every
// frame regardless of state; it also drives leaderboard reporting.
func (s *Simulation) Tick(dt float64, in Input) {
	now := s.now()
	switch s.state {
	case Playing:
		if dt > MaxTickDelta {
			dt = MaxTickDelta
		}
		if dt < 0 {
			dt = 0
		}
		s.player.Update(dt, in, s.obstacles)
		s.waves.Update(&engagement{
			dt:        dt,
			target:    s.player,
			obstacles: s.obstacles,
			rng:       s.rng,
			nextID:    s.nextID,
			events:    s.events,
		})
		s.items.Update(s.player, s.events)
		s.updateScore()

		wave := s.waves.Wave()
		if s.score != s.reportedScore || wave != s.reportedWave || now.Sub(s.lastReport) > ActiveReportInterval {
			s.report(s.score, wave)
		}
		if !s.player.Alive() {
			s.gameOver()
		}
	case Paused:
		if now.Sub(s.lastReport) > ActiveReportInterval {
			s.report(s.score, s.waves.Wave())
		}
	default:
		if now.Sub(s.lastReport) > IdleReportInterval {
			s.report(s.highestScore, s.highestWave)
		}
	}
	s.reconcile()
}

func (s *Simulation) updateScore() {
	wave := s.waves.Wave()
	s.score = Score(s.kills.Zombies, s.kills.Titans, wave)
	if s.score > s.highestScore {
		s.highestScore = s.score
	}
	if wave > s.highestWave {
		s.highestWave = wave
	}
}

func (s *Simulation) report(score, wave int) {
	s.reporter.Report(score, wave)
	s.reportedScore, s.reportedWave = score, wave
	s.lastReport = s.now()
}

type nopReporter struct{}

func (nopReporter) Report(int, int) {}
func (nopReporter) Stop()           {}

type nopSink struct{}

func (nopSink) Submit(Result) {}
