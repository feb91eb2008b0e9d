package sim

import "math/rand"

const (
	MapSize         = 200.0
	TreeSpacing     = 3.0
	TreeTarget      = 320
	treeMaxAttempts = TreeTarget * 10
)

// fixed trees ringing the spawn point
var spawnTrees = [...][2]float64{
	{5, 5}, {-5, 5}, {5, -5}, {-5, -5},
	{0, 10}, {10, 0}, {-10, 0}, {0, -10},
}

type rockClass struct {
	count  int
	scaleX [2]float64
	scaleY [2]float64
	scaleZ [2]float64
}

var rockClasses = [...]rockClass{
	{75, [2]float64{0.6, 1.4}, [2]float64{0.4, 1.0}, [2]float64{0.6, 1.4}},
	{100, [2]float64{1.0, 1.5}, [2]float64{0.7, 1.1}, [2]float64{1.0, 1.5}},
	{25, [2]float64{1.5, 2.5}, [2]float64{1.0, 1.8}, [2]float64{1.5, 2.5}},
}

// ObstacleKind distinguishes static scenery
type ObstacleKind int

const (
	Tree ObstacleKind = iota
	Rock
)

// Obstacle is a piece of static scenery registered for collision
type Obstacle struct {
	Kind  ObstacleKind
	Pos   Vec3 // ground contact point
	Scale Vec3
	box   Box
}

// Bounds returns the collider: the trunk for trees, the scaled sphere's box for rocks
func (o *Obstacle) Bounds() Box { return o.box }

func newTree(x, z float64) *Obstacle {
	return &Obstacle{
		Kind:  Tree,
		Pos:   V(x, 0, z),
		Scale: V(1, 1, 1),
		box:   BoxAt(V(x, 1, z), V(0.8, 2, 0.8)),
	}
}

func newRock(x, z float64, scale Vec3) *Obstacle {
	return &Obstacle{
		Kind:  Rock,
		Pos:   V(x, 0, z),
		Scale: scale,
		box:   BoxAt(V(x, scale.Y, z), scale.Scale(2)),
	}
}

// GenerateWorld scatters trees and rocks and registers each with idx
func GenerateWorld(rng *rand.Rand, idx *CollisionIndex) []*Obstacle {
	obstacles := make([]*Obstacle, 0, TreeTarget+250)
	add := func(o *Obstacle) {
		obstacles = append(obstacles, o)
		idx.AddObstacle(o)
	}

	trees := make([][2]float64, 0, TreeTarget)
	for _, p := range spawnTrees {
		add(newTree(p[0], p[1]))
		trees = append(trees, p)
	}

	tooClose := func(x, z float64) bool {
		for _, t := range trees {
			dx, dz := x-t[0], z-t[1]
			if dx*dx+dz*dz < TreeSpacing*TreeSpacing {
				return true
			}
		}
		return false
	}
	for attempt := 0; attempt < treeMaxAttempts && len(trees) < TreeTarget; attempt++ {
		x := (rng.Float64() - 0.5) * MapSize
		z := (rng.Float64() - 0.5) * MapSize
		if tooClose(x, z) {
			continue
		}
		add(newTree(x, z))
		trees = append(trees, [2]float64{x, z})
	}

	between := func(r [2]float64) float64 { return r[0] + rng.Float64()*(r[1]-r[0]) }
	for _, rc := range rockClasses {
		for i := 0; i < rc.count; i++ {
			x := (rng.Float64() - 0.5) * MapSize
			z := (rng.Float64() - 0.5) * MapSize
			add(newRock(x, z, V(between(rc.scaleX), between(rc.scaleY), between(rc.scaleZ))))
		}
	}
	return obstacles
}
