package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type combatFixture struct {
	waves  *WaveDirector
	items  *ItemField
	events *EventLog
	cr     *CombatResolver
}

func newCombatFixture(seed int64) *combatFixture {
	var id uint64 = 100
	f := &combatFixture{
		waves:  NewWaveDirector(Medium),
		items:  &ItemField{},
		events: &EventLog{},
	}
	f.cr = NewCombatResolver(f.waves, f.items, rand.New(rand.NewSource(seed)), func() uint64 { id++; return id }, f.events)
	return f
}

func (f *combatFixture) place(id uint64, kind Kind, pos Vec3) *Enemy {
	e := NewEnemy(id, kind, pos, 1)
	f.waves.enemies = append(f.waves.enemies, e)
	return e
}

func TestResolveShotMiss(t *testing.T) {
	f := newCombatFixture(1)
	f.place(1, Zombie, V(0, 0, -5))

	res := f.cr.ResolveShot(Ray{Origin: V(0, 0.5, 0), Dir: V(0, 0, 1)})
	assert.Equal(t, ShotResult{}, res)

	res = f.cr.ResolveShot(Ray{Origin: V(0, 0.5, 0)})
	assert.Equal(t, ShotResult{}, res, "zero direction")
}

func TestResolveShotPicksNearest(t *testing.T) {
	f := newCombatFixture(1)
	far := f.place(1, Zombie, V(0, 0, -10))
	near := f.place(2, Zombie, V(0, 0, -5))

	res := f.cr.ResolveShot(Ray{Origin: V(0, 0.5, 0), Dir: V(0, 0, -1)})
	assert.True(t, res.Hit)
	assert.False(t, res.Killed)
	assert.Equal(t, Zombie, res.Kind)
	assert.Equal(t, ZombieHealth-1, near.Health)
	assert.Equal(t, ZombieHealth, far.Health)
}

func TestResolveShotKillDropsLoot(t *testing.T) {
	f := newCombatFixture(42)
	far := f.place(1, Zombie, V(0, 0, -10))
	near := f.place(2, Zombie, V(0, 0, -5))
	ray := Ray{Origin: V(0, 0.5, 0), Dir: V(0, 0, -1)}

	f.cr.ResolveShot(ray)
	f.cr.ResolveShot(ray)
	res := f.cr.ResolveShot(ray)
	assert.Equal(t, ShotResult{Hit: true, Killed: true, Kind: Zombie}, res)
	assert.False(t, near.Alive())

	require.Len(t, f.items.Items(), 1)
	it := f.items.Items()[0]
	assert.Equal(t, V(0, ItemHeight, -5), it.Pos, "dropped where the enemy died")

	expect := rand.New(rand.NewSource(42))
	want := AmmoPack
	if expect.Float64() < HealthDropChance {
		want = HealthPack
	}
	assert.Equal(t, want, it.Kind)

	// the corpse no longer blocks shots
	res = f.cr.ResolveShot(ray)
	assert.True(t, res.Hit)
	assert.False(t, res.Killed)
	assert.Equal(t, ZombieHealth-1, far.Health)
	assert.Len(t, f.items.Items(), 1)
}

func TestTitanTakesTwentyHits(t *testing.T) {
	f := newCombatFixture(1)
	titan := f.place(1, Titan, V(0, 0, -10))
	ray := Ray{Origin: V(0, 1.5, 0), Dir: V(0, 0, -1)}

	for i := 0; i < TitanHealth-1; i++ {
		res := f.cr.ResolveShot(ray)
		require.True(t, res.Hit)
		require.False(t, res.Killed, "shot %d", i+1)
	}
	res := f.cr.ResolveShot(ray)
	assert.Equal(t, ShotResult{Hit: true, Killed: true, Kind: Titan}, res)
	assert.False(t, titan.Alive())
}

func TestLootDistribution(t *testing.T) {
	f := newCombatFixture(7)
	ray := Ray{Origin: V(0, 0.5, 0), Dir: V(0, 0, -1)}
	for i := 0; i < 400; i++ {
		e := f.place(uint64(i+1), Zombie, V(0, 0, -5))
		e.Health = 1
		require.True(t, f.cr.ResolveShot(ray).Killed)
	}

	health := 0
	for _, it := range f.items.Items() {
		if it.Kind == HealthPack {
			health++
		}
	}
	assert.InDelta(t, 100, health, 40, "about a quarter of drops are health")
}

func TestResolveShotEvents(t *testing.T) {
	f := newCombatFixture(1)
	e := f.place(1, Zombie, V(0, 0, -5))
	e.Health = 2
	ray := Ray{Origin: V(0, 0.5, 0), Dir: V(0, 0, -1)}

	f.cr.ResolveShot(ray)
	f.cr.ResolveShot(ray)

	var kinds []EventKind
	for _, ev := range f.events.Drain() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventEnemyHit, EventEnemyKilled, EventItemDropped}, kinds)
}
