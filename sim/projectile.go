package sim

const (
	ProjectileSpeed     = 15.0
	ProjectileLifetime  = 3.0 // seconds
	ProjectileHitRadius = 0.5
	ProjectileLaunchY   = 2.0 // spawn height above the owner's center
)

// Fate is the outcome of advancing a projectile one tick
type Fate int

const (
	FateFlying  Fate = iota
	FateHit          // reached the target
	FateExpired      // lifetime ran out
	FateGrounded     // fell below the ground plane
)

// Projectile is a ballistic shot owned by the Titan that fired it
type Projectile struct {
	ID   uint64
	Pos  Vec3
	Vel  Vec3
	Life float64
}

// NewProjectile launches a shot from origin toward target
func NewProjectile(id uint64, origin, target Vec3) *Projectile {
	launch := origin.Add(Vec3{Y: ProjectileLaunchY})
	dir := target.Sub(origin).Normalize()
	return &Projectile{
		ID:   id,
		Pos:  launch,
		Vel:  dir.Scale(ProjectileSpeed),
		Life: ProjectileLifetime,
	}
}

// Step moves the projectile and reports whether it should be removed.
// Termination is checked in order: hit, lifetime, ground.
func (p *Projectile) Step(dt float64, target Vec3) Fate {
	p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	p.Life -= dt

	if p.Pos.Dist(target) < ProjectileHitRadius {
		return FateHit
	}
	if p.Life <= 0 {
		return FateExpired
	}
	if p.Pos.Y < 0 {
		return FateGrounded
	}
	return FateFlying
}
