package sim

import "math"

const (
	PlayerMaxHealth = 100
	PlayerMaxAmmo   = 100
	PlayerRadius    = 0.5
	PlayerEyeHeight = 1.6
	PlayerMoveSpeed = 120.0
	PlayerFriction  = 10.0
	Gravity         = 80.0
	JumpImpulse     = 30.0
	MaxPitch        = math.Pi / 2
)

// Input is the movement intent sampled once per tick
type Input struct {
	Forward, Backward bool
	Left, Right       bool
	Jump              bool
	Yaw               float64 // heading in radians, 0 looks down -Z
	Pitch             float64 // radians above the horizon, clamped to MaxPitch
}

// Player is the locally simulated survivor
type Player struct {
	Pos       Vec3
	Vel       Vec3
	Health    int
	MaxHealth int
	Ammo      int
	MaxAmmo   int
	Yaw       float64
	Pitch     float64
	grounded  bool
}

// NewPlayer creates a player standing at the world origin
func NewPlayer() *Player {
	p := &Player{MaxHealth: PlayerMaxHealth, MaxAmmo: PlayerMaxAmmo}
	p.Reset()
	return p
}

// Reset restores health, ammo and spawn position
func (p *Player) Reset() {
	p.Health = p.MaxHealth
	p.Ammo = p.MaxAmmo
	p.Pos = Vec3{Y: PlayerEyeHeight}
	p.Vel = Vec3{}
	p.Yaw = 0
	p.Pitch = 0
	p.grounded = true
}

// Position implements Target
func (p *Player) Position() Vec3 { return p.Pos }

// Alive returns true while the player has health left
func (p *Player) Alive() bool { return p.Health > 0 }

// TakeDamage lowers health, never below zero
func (p *Player) TakeDamage(amount int) {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
}

// Heal restores health up to the maximum
func (p *Player) Heal(amount int) {
	p.Health += amount
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// AddAmmo restores ammo up to the maximum
func (p *Player) AddAmmo(amount int) {
	p.Ammo += amount
	if p.Ammo > p.MaxAmmo {
		p.Ammo = p.MaxAmmo
	}
}

// ConsumeAmmo spends one round. Returns false when empty.
func (p *Player) ConsumeAmmo() bool {
	if p.Ammo <= 0 {
		return false
	}
	p.Ammo--
	return true
}

// Update integrates movement for one tick. Horizontal motion that would
// put the player inside an obstacle is reverted and horizontal velocity zeroed.
func (p *Player) Update(dt float64, in Input, obstacles *CollisionIndex) {
	p.Yaw = in.Yaw
	p.Pitch = max(-MaxPitch, min(MaxPitch, in.Pitch))

	p.Vel.X -= p.Vel.X * PlayerFriction * dt
	p.Vel.Z -= p.Vel.Z * PlayerFriction * dt
	p.Vel.Y -= Gravity * dt

	dir := Vec3{
		X: boolf(in.Right) - boolf(in.Left),
		Z: boolf(in.Forward) - boolf(in.Backward),
	}.Normalize()

	if in.Forward || in.Backward {
		p.Vel.Z -= dir.Z * PlayerMoveSpeed * dt
	}
	if in.Left || in.Right {
		p.Vel.X -= dir.X * PlayerMoveSpeed * dt
	}
	if in.Jump && p.grounded {
		p.Vel.Y += JumpImpulse
		p.grounded = false
	}

	// Camera-relative: forward looks down -Z at yaw 0, right is +X.
	forward := Vec3{X: -math.Sin(p.Yaw), Z: -math.Cos(p.Yaw)}
	right := Vec3{X: math.Cos(p.Yaw), Z: -math.Sin(p.Yaw)}

	prev := p.Pos
	p.Pos = p.Pos.
		Add(right.Scale(-p.Vel.X * dt)).
		Add(forward.Scale(-p.Vel.Z * dt))

	if obstacles != nil && obstacles.QuerySphere(p.Pos, PlayerRadius) {
		p.Pos.X = prev.X
		p.Pos.Z = prev.Z
		p.Vel.X = 0
		p.Vel.Z = 0
	}

	p.Pos.Y += p.Vel.Y * dt
	if p.Pos.Y < PlayerEyeHeight {
		p.Vel.Y = 0
		p.Pos.Y = PlayerEyeHeight
		p.grounded = true
	}
}

// AimRay returns the ray through the center of the player's view
func (p *Player) AimRay() Ray {
	c := math.Cos(p.Pitch)
	return Ray{
		Origin: p.Pos,
		Dir:    Vec3{X: -math.Sin(p.Yaw) * c, Y: math.Sin(p.Pitch), Z: -math.Cos(p.Yaw) * c},
	}
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
