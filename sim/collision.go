package sim

import "math"

// Box is an axis-aligned bounding box in world space
type Box struct {
	Min, Max Vec3
}

// BoxAt builds a box of the given size centered on c
func BoxAt(c Vec3, size Vec3) Box {
	h := size.Scale(0.5)
	return Box{Min: c.Sub(h), Max: c.Add(h)}
}

// Bounds lets a bare Box be registered as an obstacle
func (b Box) Bounds() Box { return b }

// IntersectsSphere reports whether the sphere touches or overlaps the box
func (b Box) IntersectsSphere(center Vec3, radius float64) bool {
	closest := Vec3{
		X: Clamp(center.X, b.Min.X, b.Max.X),
		Y: Clamp(center.Y, b.Min.Y, b.Max.Y),
		Z: Clamp(center.Z, b.Min.Z, b.Max.Z),
	}
	d := closest.Sub(center)
	return d.Dot(d) <= radius*radius
}

// IntersectRay returns the distance along the ray to the first point inside
// the box. dir need not be normalized; the result is in units of dir.
func (b Box) IntersectRay(origin, dir Vec3) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	slab := func(o, d, lo, hi float64) bool {
		if d == 0 {
			return o >= lo && o <= hi
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		return tmin <= tmax
	}

	if !slab(origin.X, dir.X, b.Min.X, b.Max.X) ||
		!slab(origin.Y, dir.Y, b.Min.Y, b.Max.Y) ||
		!slab(origin.Z, dir.Z, b.Min.Z, b.Max.Z) {
		return 0, false
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true // origin inside the box
	}
	return tmin, true
}

// Shape is anything with world-space bounds that can block movement
type Shape interface {
	Bounds() Box
}

// CollisionIndex holds the static obstacles of the world.
// Queries are a linear scan and never fail; an empty index collides with nothing.
type CollisionIndex struct {
	obstacles []Shape
}

// NewCollisionIndex creates an empty index
func NewCollisionIndex() *CollisionIndex {
	return &CollisionIndex{}
}

// AddObstacle registers a shape
func (c *CollisionIndex) AddObstacle(s Shape) {
	c.obstacles = append(c.obstacles, s)
}

// RemoveObstacle unregisters the first registered shape equal to s.
// Returns false if it was not registered.
func (c *CollisionIndex) RemoveObstacle(s Shape) bool {
	for i, o := range c.obstacles {
		if o == s {
			c.obstacles = append(c.obstacles[:i], c.obstacles[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered obstacles
func (c *CollisionIndex) Len() int {
	if c == nil {
		return 0
	}
	return len(c.obstacles)
}

// QuerySphere reports whether a sphere intersects any obstacle
func (c *CollisionIndex) QuerySphere(pos Vec3, radius float64) bool {
	if c == nil {
		return false
	}
	for _, o := range c.obstacles {
		if o.Bounds().IntersectsSphere(pos, radius) {
			return true
		}
	}
	return false
}
