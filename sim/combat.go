package sim

import (
	"math"
	"math/rand"
)

// HealthDropChance is the probability a kill drops a HealthPack instead of ammo
const HealthDropChance = 0.25

// Ray is an aim line from the shooter's eye
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// ShotResult describes the outcome of one player shot
type ShotResult struct {
	Hit    bool
	Killed bool
	Kind   Kind // valid when Hit
}

// CombatResolver applies player shots to the enemies of a WaveDirector
// and drops loot into an ItemField.
type CombatResolver struct {
	waves  *WaveDirector
	items  *ItemField
	rng    *rand.Rand
	nextID func() uint64
	events *EventLog
}

// NewCombatResolver wires a resolver; nextID allocates ids for dropped items
func NewCombatResolver(waves *WaveDirector, items *ItemField, rng *rand.Rand, nextID func() uint64, events *EventLog) *CombatResolver {
	return &CombatResolver{waves: waves, items: items, rng: rng, nextID: nextID, events: events}
}

// ResolveShot hits the nearest live enemy along the ray for one point of damage
func (c *CombatResolver) ResolveShot(ray Ray) ShotResult {
	dir := ray.Dir.Normalize()
	if dir == (Vec3{}) {
		return ShotResult{}
	}

	var target *Enemy
	nearest := math.Inf(1)
	for _, e := range c.waves.Enemies() {
		if !e.Alive() {
			continue
		}
		if t, ok := e.Bounds().IntersectRay(ray.Origin, dir); ok && t < nearest {
			nearest = t
			target = e
		}
	}
	if target == nil {
		return ShotResult{}
	}

	deathPos := target.Pos
	switch target.TakeDamage(1) {
	case DamageKilled:
		c.events.emit(Event{Kind: EventEnemyKilled, EntityID: target.ID, Enemy: target.Kind, Pos: deathPos})
		c.dropLoot(deathPos)
		return ShotResult{Hit: true, Killed: true, Kind: target.Kind}
	default:
		c.events.emit(Event{Kind: EventEnemyHit, EntityID: target.ID, Enemy: target.Kind, Amount: 1, Pos: deathPos})
		return ShotResult{Hit: true, Kind: target.Kind}
	}
}

func (c *CombatResolver) dropLoot(pos Vec3) {
	kind := AmmoPack
	if c.rng.Float64() < HealthDropChance {
		kind = HealthPack
	}
	it := c.items.Spawn(c.nextID(), kind, pos)
	c.events.emit(Event{Kind: EventItemDropped, EntityID: it.ID, Item: kind, Amount: it.Amount, Pos: it.Pos})
}
