package sim

import (
	"math"
	"math/rand"
)

const (
	ZombieHealth         = 3
	ZombieSpeed          = 3.5
	ZombieDamage         = 10
	ZombieRadius         = 0.5
	ZombieHeight         = 0.5 // center above ground
	ZombieReach          = 1.5
	ZombieAttackInterval = 1.0

	TitanHealth         = 20
	TitanSpeed          = 1.0
	TitanDamage         = 15
	TitanRadius         = 1.5
	TitanHeight         = 1.5
	TitanReach          = 2.0
	TitanAttackInterval = 1.5
	TitanShootRange     = 30.0
	TitanShootInterval  = 2.0
)

// Kind tags the enemy variant
type Kind int

const (
	Zombie Kind = iota
	Titan
)

func (k Kind) String() string {
	switch k {
	case Zombie:
		return "zombie"
	case Titan:
		return "titan"
	}
	return "unknown"
}

// Target is what enemies chase and hurt
type Target interface {
	Position() Vec3
	TakeDamage(amount int)
}

// DamageResult reports what a TakeDamage call did
type DamageResult int

const (
	DamageIgnored DamageResult = iota // already dead
	DamageHit
	DamageKilled
)

// engagement carries everything an enemy needs for one tick
type engagement struct {
	dt        float64
	target    Target
	obstacles *CollisionIndex
	rng       *rand.Rand
	nextID    func() uint64
	events    *EventLog
}

type enemyStats struct {
	health int
	speed  float64
	damage int
	radius float64
	height float64
	size   Vec3 // hitbox extents
}

// behavior is the per-variant dispatch entry
type behavior struct {
	stats  enemyStats
	update func(e *Enemy, g *engagement)
	die    func(e *Enemy)
}

var behaviors = [...]behavior{
	Zombie: {
		stats: enemyStats{
			health: ZombieHealth, speed: ZombieSpeed, damage: ZombieDamage,
			radius: ZombieRadius, height: ZombieHeight, size: V(1, 1, 1),
		},
		update: updateZombie,
		die:    func(*Enemy) {},
	},
	Titan: {
		stats: enemyStats{
			health: TitanHealth, speed: TitanSpeed, damage: TitanDamage,
			radius: TitanRadius, height: TitanHeight, size: V(2, 3, 2),
		},
		update: updateTitan,
		die:    dieTitan,
	},
}

// Enemy is a hostile entity. Behavior is selected by Kind.
type Enemy struct {
	ID             uint64
	Kind           Kind
	Pos            Vec3
	Yaw            float64
	Health         int
	MaxHealth      int
	Speed          float64
	Damage         int
	Radius         float64
	AttackCooldown float64

	// Titan only
	ShootCooldown float64
	ShootRange    float64
	Projectiles   []*Projectile

	alive bool
}

// NewEnemy creates an enemy standing on the ground at pos (Y is ignored)
func NewEnemy(id uint64, kind Kind, pos Vec3, speedMul float64) *Enemy {
	st := behaviors[kind].stats
	e := &Enemy{
		ID:        id,
		Kind:      kind,
		Pos:       Vec3{X: pos.X, Y: st.height, Z: pos.Z},
		Health:    st.health,
		MaxHealth: st.health,
		Speed:     st.speed * speedMul,
		Damage:    st.damage,
		Radius:    st.radius,
		alive:     true,
	}
	if kind == Titan {
		e.ShootRange = TitanShootRange
	}
	return e
}

// Alive reports whether the enemy is still in play
func (e *Enemy) Alive() bool { return e.alive }

// Bounds returns the hitbox used for shot resolution
func (e *Enemy) Bounds() Box {
	return BoxAt(e.Pos, behaviors[e.Kind].stats.size)
}

// Update runs one tick of the variant's behavior
func (e *Enemy) Update(g *engagement) {
	if !e.alive {
		return
	}
	behaviors[e.Kind].update(e, g)
}

// TakeDamage subtracts health, clamped to [0, MaxHealth]. Reaching zero
// kills the enemy; calls after death are no-ops.
func (e *Enemy) TakeDamage(amount int) DamageResult {
	if !e.alive {
		return DamageIgnored
	}
	e.Health -= amount
	if e.Health > e.MaxHealth {
		e.Health = e.MaxHealth
	}
	if e.Health <= 0 {
		e.Health = 0
		e.Die()
		return DamageKilled
	}
	return DamageHit
}

// Die marks the enemy dead and releases anything it owns
func (e *Enemy) Die() {
	if !e.alive {
		return
	}
	e.alive = false
	behaviors[e.Kind].die(e)
}

func (e *Enemy) face(target Vec3) {
	e.Yaw = e.Pos.YawTo(target)
}

func (e *Enemy) strike(g *engagement) {
	g.target.TakeDamage(e.Damage)
	g.events.emit(Event{Kind: EventPlayerDamaged, EntityID: e.ID, Enemy: e.Kind, Amount: e.Damage, Pos: e.Pos})
}

// tryMove steps toward target, falling back to ±45°, ±90° and one random
// heading when the direct step is blocked. Returns false if every
// candidate collides, in which case the enemy stays put.
func (e *Enemy) tryMove(g *engagement, target Vec3) bool {
	dir := target.Sub(e.Pos).Flat().Normalize()
	candidates := [6]Vec3{
		dir,
		dir.RotateY(math.Pi / 4),
		dir.RotateY(-math.Pi / 4),
		dir.RotateY(math.Pi / 2),
		dir.RotateY(-math.Pi / 2),
		randomHeading(g.rng),
	}
	step := e.Speed * g.dt
	for _, c := range candidates {
		next := e.Pos.Add(c.Scale(step))
		if !g.obstacles.QuerySphere(next, e.Radius) {
			e.Pos = next
			return true
		}
	}
	return false
}

func randomHeading(rng *rand.Rand) Vec3 {
	return V(rng.Float64()-0.5, 0, rng.Float64()-0.5).Normalize()
}

func updateZombie(e *Enemy, g *engagement) {
	target := g.target.Position()
	e.face(target)

	if e.Pos.Dist(target) > ZombieReach {
		e.tryMove(g, target)
	} else if e.AttackCooldown <= 0 {
		e.strike(g)
		e.AttackCooldown = ZombieAttackInterval
	}
	if e.AttackCooldown > 0 {
		e.AttackCooldown -= g.dt
	}
}

func updateTitan(e *Enemy, g *engagement) {
	target := g.target.Position()
	e.face(target)
	dist := e.Pos.Dist(target)

	if dist <= e.ShootRange && dist > TitanReach && e.ShootCooldown <= 0 {
		e.shoot(g, target)
		e.ShootCooldown = TitanShootInterval
	}

	if dist > TitanReach {
		e.tryMove(g, target)
	} else if e.AttackCooldown <= 0 {
		e.strike(g)
		e.AttackCooldown = TitanAttackInterval
	}

	if e.AttackCooldown > 0 {
		e.AttackCooldown -= g.dt
	}
	if e.ShootCooldown > 0 {
		e.ShootCooldown -= g.dt
	}

	e.advanceProjectiles(g, target)
}

func (e *Enemy) shoot(g *engagement, target Vec3) {
	p := NewProjectile(g.nextID(), e.Pos, target)
	e.Projectiles = append(e.Projectiles, p)
	g.events.emit(Event{Kind: EventProjectileFired, EntityID: p.ID, Enemy: e.Kind, Pos: p.Pos})
}

// advanceProjectiles steps every live shot then compacts the list
func (e *Enemy) advanceProjectiles(g *engagement, target Vec3) {
	live := e.Projectiles[:0]
	for _, p := range e.Projectiles {
		switch p.Step(g.dt, target) {
		case FateFlying:
			live = append(live, p)
		case FateHit:
			g.target.TakeDamage(e.Damage)
			g.events.emit(Event{Kind: EventPlayerDamaged, EntityID: p.ID, Enemy: e.Kind, Amount: e.Damage, Pos: p.Pos})
		}
	}
	for i := len(live); i < len(e.Projectiles); i++ {
		e.Projectiles[i] = nil
	}
	e.Projectiles = live
}

func dieTitan(e *Enemy) {
	e.Projectiles = nil
}
