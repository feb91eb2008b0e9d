package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWorld(t *testing.T) {
	idx := NewCollisionIndex()
	obstacles := GenerateWorld(rand.New(rand.NewSource(3)), idx)
	require.Equal(t, len(obstacles), idx.Len())

	var trees, rocks []*Obstacle
	for _, o := range obstacles {
		switch o.Kind {
		case Tree:
			trees = append(trees, o)
		case Rock:
			rocks = append(rocks, o)
		}
	}
	assert.Len(t, rocks, 75+100+25)
	assert.GreaterOrEqual(t, len(trees), len(spawnTrees))
	assert.LessOrEqual(t, len(trees), TreeTarget)

	for i, p := range spawnTrees {
		assert.Equal(t, V(p[0], 0, p[1]), trees[i].Pos)
	}
	for i := range trees {
		for j := i + 1; j < len(trees); j++ {
			d := trees[i].Pos.Dist(trees[j].Pos)
			require.GreaterOrEqual(t, d, TreeSpacing, "trees %d and %d", i, j)
		}
	}
	for _, o := range obstacles {
		assert.LessOrEqual(t, o.Pos.X, MapSize/2)
		assert.GreaterOrEqual(t, o.Pos.X, -MapSize/2)
	}

	ring := NewCollisionIndex()
	for _, tr := range trees[:len(spawnTrees)] {
		ring.AddObstacle(tr)
	}
	assert.False(t, ring.QuerySphere(V(0, PlayerEyeHeight, 0), PlayerRadius), "spawn point clear of the fixed ring")
}

func TestGenerateWorldDeterministic(t *testing.T) {
	a := GenerateWorld(rand.New(rand.NewSource(9)), NewCollisionIndex())
	b := GenerateWorld(rand.New(rand.NewSource(9)), NewCollisionIndex())
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Bounds(), b[i].Bounds())
	}
}
