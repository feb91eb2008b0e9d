package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simFixture struct {
	clock     *fakeClock
	reporter  *recordingReporter
	sink      *recordingSink
	presenter *recordingPresenter
	sim       *Simulation
}

func newSimFixture(t *testing.T) *simFixture {
	t.Helper()
	f := &simFixture{
		clock:     newFakeClock(),
		reporter:  &recordingReporter{},
		sink:      &recordingSink{},
		presenter: &recordingPresenter{},
	}
	f.sim = New(Options{
		Seed:       1,
		Difficulty: Medium,
		Now:        f.clock.Now,
		Reporter:   f.reporter,
		Results:    f.sink,
		Presenter:  f.presenter,
	})
	return f
}

// placeZombie drops a zombie in front of the player, out of melee reach
func (f *simFixture) placeZombie(id uint64, pos Vec3) *Enemy {
	e := NewEnemy(id, Zombie, pos, 1)
	f.sim.waves.enemies = append(f.sim.waves.enemies, e)
	return e
}

func (f *simFixture) aimAt(e *Enemy) Ray {
	origin := f.sim.Player().Pos
	return Ray{Origin: origin, Dir: e.Pos.Sub(origin)}
}

func TestSimulationStartReports(t *testing.T) {
	f := newSimFixture(t)
	require.Equal(t, Idle, f.sim.State())

	f.sim.Start()
	assert.Equal(t, Playing, f.sim.State())
	assert.Equal(t, report{0, 1}, f.reporter.last())
	assert.Equal(t, QuotaFor(1), f.sim.Session().InitialEnemies)

	f.sim.Start()
	assert.Len(t, f.reporter.reports, 1, "start while playing is ignored")
}

func TestSimulationClampsDelta(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()

	for i := 0; i < 9; i++ {
		f.sim.Tick(5, Input{})
	}
	assert.Empty(t, f.sim.Waves().Enemies(), "nine clamped ticks are under one spawn interval")

	f.sim.Tick(5, Input{})
	f.sim.Tick(5, Input{})
	assert.Len(t, f.sim.Waves().Enemies(), 1)
}

func TestSimulationShootAndScore(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()
	z := f.placeZombie(900, V(0, 0, -8))

	for i := 0; i < ZombieHealth-1; i++ {
		res := f.sim.Shoot(f.aimAt(z))
		require.True(t, res.Hit)
	}
	res := f.sim.Shoot(f.aimAt(z))
	require.True(t, res.Killed)
	assert.Equal(t, Kills{Zombies: 1}, f.sim.Session().Kills)
	assert.Equal(t, Score(1, 0, 1), f.sim.Score())
	assert.Equal(t, PlayerMaxAmmo-ZombieHealth, f.sim.Player().Ammo)
}

func TestSimulationShootRequiresAmmoAndPlay(t *testing.T) {
	f := newSimFixture(t)
	z := f.placeZombie(900, V(0, 0, -8))
	assert.Equal(t, ShotResult{}, f.sim.Shoot(f.aimAt(z)), "idle")

	f.sim.Start()
	z = f.placeZombie(901, V(0, 0, -8))
	f.sim.Player().Ammo = 0
	assert.Equal(t, ShotResult{}, f.sim.Shoot(f.aimAt(z)))
	assert.Equal(t, ZombieHealth, z.Health)

	f.sim.Player().Ammo = 5
	f.sim.Pause()
	assert.Equal(t, ShotResult{}, f.sim.Shoot(f.aimAt(z)), "paused")
	assert.Equal(t, 5, f.sim.Player().Ammo)
}

func TestSimulationReportCadence(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()
	f.sim.Tick(0.01, Input{})
	assert.Equal(t, report{Score(0, 0, 1), 1}, f.reporter.last(), "first tick publishes the wave bonus")
	n := len(f.reporter.reports)

	f.clock.Advance(50 * time.Millisecond)
	f.sim.Tick(0.01, Input{})
	assert.Len(t, f.reporter.reports, n, "nothing changed within the interval")

	f.clock.Advance(60 * time.Millisecond)
	f.sim.Tick(0.01, Input{})
	assert.Len(t, f.reporter.reports, n+1)

	z := f.placeZombie(900, V(0, 0, -8))
	z.Health = 1
	f.sim.Shoot(f.aimAt(z))
	f.sim.Tick(0.01, Input{})
	assert.Len(t, f.reporter.reports, n+2, "score change reports immediately")
	assert.Equal(t, report{Score(1, 0, 1), 1}, f.reporter.last())

	f.sim.Pause()
	n = len(f.reporter.reports)
	f.clock.Advance(101 * time.Millisecond)
	f.sim.Tick(0.01, Input{})
	assert.Len(t, f.reporter.reports, n+1, "paused sessions keep reporting")
}

func TestSimulationIdleReportsHighest(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()
	z := f.placeZombie(900, V(0, 0, -8))
	z.Health = 1
	f.sim.Shoot(f.aimAt(z))
	f.sim.Quit()

	require.Equal(t, Idle, f.sim.State())
	assert.Equal(t, report{0, 0}, f.reporter.last(), "quit zeroes the live entry")
	n := len(f.reporter.reports)

	f.clock.Advance(150 * time.Millisecond)
	f.sim.Tick(0.01, Input{})
	assert.Len(t, f.reporter.reports, n)

	f.clock.Advance(100 * time.Millisecond)
	f.sim.Tick(0.01, Input{})
	require.Len(t, f.reporter.reports, n+1)
	assert.Equal(t, report{Score(1, 0, 1), 1}, f.reporter.last())
}

func TestSimulationQuitSubmits(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()
	f.clock.Advance(42 * time.Second)
	f.sim.Quit()

	require.Len(t, f.sink.results, 1)
	r := f.sink.results[0]
	assert.False(t, r.DidDie)
	assert.Equal(t, 42, r.Playtime)
	assert.Equal(t, Medium, r.Difficulty)
	assert.Equal(t, 1, r.Wave)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, 1, f.reporter.stops)
	assert.Equal(t, 0, f.sim.Session().Playtime)

	f.sim.Quit()
	assert.Len(t, f.sink.results, 1, "quitting from idle submits nothing")
	assert.Equal(t, 1, f.reporter.stops)
}

func TestSimulationGameOver(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()
	f.clock.Advance(10 * time.Second)
	f.sim.Pause()
	f.clock.Advance(20 * time.Second)
	f.sim.Resume()
	f.clock.Advance(5 * time.Second)

	f.sim.Player().TakeDamage(PlayerMaxHealth)
	f.sim.Tick(0.016, Input{})

	assert.Equal(t, Over, f.sim.State())
	assert.Equal(t, 1, f.reporter.stops)
	require.Len(t, f.sink.results, 1)
	r := f.sink.results[0]
	assert.True(t, r.DidDie)
	assert.Equal(t, 15, r.Playtime, "paused time excluded")

	f.sim.Tick(0.016, Input{})
	assert.Len(t, f.sink.results, 1, "game over fires once")

	f.sim.Restart()
	assert.Equal(t, Playing, f.sim.State())
	assert.Equal(t, PlayerMaxHealth, f.sim.Player().Health)
	assert.Equal(t, 1, f.sim.Wave())
}

func TestSimulationPresenterReconciles(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()

	for i := 0; i < 11; i++ {
		f.sim.Tick(0.1, Input{})
	}
	require.Len(t, f.presenter.attached, 1)
	var enemy *Enemy
	for _, e := range f.sim.Waves().Enemies() {
		enemy = e
	}
	require.NotNil(t, enemy)
	assert.Contains(t, f.presenter.attached, enemy.ID)

	enemy.Health = 1
	res := f.sim.Shoot(f.aimAt(enemy))
	require.True(t, res.Killed)
	f.sim.Tick(0.001, Input{})

	assert.NotContains(t, f.presenter.attached, enemy.ID)
	require.Len(t, f.presenter.detached, 1)
	assert.Equal(t, EntityEnemy, f.presenter.detached[0].Type)

	items := f.sim.Items()
	require.Len(t, items, 1)
	assert.Equal(t, EntityItem, f.presenter.attached[items[0].ID].Type)

	f.sim.Restart()
	assert.Empty(t, f.presenter.attached)
}

func TestSimulationDifficultyAppliesOnStart(t *testing.T) {
	f := newSimFixture(t)
	f.sim.SetDifficulty("hard")
	f.sim.SetDifficulty("bogus")
	assert.Equal(t, Hard, f.sim.Difficulty())

	f.sim.Start()
	for i := 0; i < 11; i++ {
		f.sim.Tick(0.1, Input{})
	}
	require.Len(t, f.sim.Waves().Enemies(), 1)
	assert.Equal(t, ZombieSpeed*2, f.sim.Waves().Enemies()[0].Speed)
}

func TestSimulationEvents(t *testing.T) {
	f := newSimFixture(t)
	f.sim.Start()
	for i := 0; i < 11; i++ {
		f.sim.Tick(0.1, Input{})
	}
	events := f.sim.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, EventEnemySpawned, events[0].Kind)
	assert.Empty(t, f.sim.Events(), "drained")
}
