package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomBox(random *rand.Rand) AABB {
	a := NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
	b := NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
	return NewAABBFromPoints(a, b)
}

func TestAABB_MergeClosure(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		boxes := make([]AABB, 1+random.Intn(12))
		for i := range boxes {
			boxes[i] = randomBox(random)
		}
		merged := MergeAABBs(boxes...)
		assert.True(t, merged.IsValid())
		for _, b := range boxes {
			assert.True(t, merged.Contains(b), "merged %v does not contain %v", merged, b)
		}

		incremental := boxes[0]
		for _, b := range boxes[1:] {
			incremental = incremental.Merge(b)
		}
		assert.Equal(t, merged, incremental)
	}
}

func TestAABB_MergeEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { MergeAABBs() })
}

func TestAABB_CenterAndSurfaceArea(t *testing.T) {
	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 2, 3))
	assert.Equal(t, NewVec3(0.5, 1, 1.5), box.Center)
	assert.InDelta(t, 2*(2+6+3), box.SurfaceArea(), 1e-12)
	assert.Equal(t, 2, box.LongestAxis())
}

func TestAABB_IsIntersect(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	tests := []struct {
		name     string
		ray      Ray
		expected bool
	}{
		{"toward center", NewRay(NewVec3(-5, 0.3, 0.2), NewVec3(1, 0, 0)), true},
		{"diagonal toward center", NewRay(NewVec3(4, 5, 6), NewVec3(-4, -5, -6)), true},
		{"away from box", NewRay(NewVec3(-5, 0, 0), NewVec3(-1, 0, 0)), false},
		{"parallel outside slab", NewRay(NewVec3(-5, 2, 0), NewVec3(1, 0, 0)), false},
		{"parallel inside slab", NewRay(NewVec3(-5, 0.5, 0.5), NewVec3(1, 0, 0)), true},
		{"origin on slab plane", NewRay(NewVec3(-5, 1, 0), NewVec3(1, 0, 0)), true},
		{"origin on slab plane, negative zero", NewRay(NewVec3(-5, -1, 0), NewVec3(1, math.Copysign(0, -1), 0)), true},
		{"origin on max plane, negative zero", NewRay(NewVec3(-5, 1, 0.5), NewVec3(1, math.Copysign(0, -1), math.Copysign(0, -1))), true},
		{"parallel outside slab, negative zero", NewRay(NewVec3(-5, 1.5, 0), NewVec3(1, math.Copysign(0, -1), 0)), false},
		{"negative direction components", NewRay(NewVec3(3, 3, 3), NewVec3(-1, -1, -1)), true},
		{"origin inside", NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1)), true},
		{"misses corner", NewRay(NewVec3(-5, 2.5, 0), NewVec3(1, -0.1, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, box.IsIntersect(tt.ray))
		})
	}
}

func TestAABB_HitRespectsInterval(t *testing.T) {
	box := NewAABB(NewVec3(4, -1, -1), NewVec3(6, 1, 1))
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(1, 0, 0))
	assert.True(t, box.Hit(ray, 0, math.Inf(1)))
	assert.False(t, box.Hit(ray, 0, 3.9), "box starts beyond tMax")
	assert.False(t, box.Hit(ray, 6.1, 100), "box ends before tMin")
	assert.True(t, box.Hit(ray, 5, 5.5))
}

func TestAABB_RandomRaysTowardCenter(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		box := randomBox(random)
		origin := SampleOnUnitSphere(NewVec2(random.Float64(), random.Float64())).Multiply(50)
		toward := box.Center.Subtract(origin)
		assert.True(t, box.IsIntersect(NewRay(origin, toward)))
		assert.False(t, box.IsIntersect(NewRay(origin, toward.Negate())))
	}
}

func TestAABB_HitSignedZeroDirections(t *testing.T) {
	box := NewAABB(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	origin := NewVec3(-1, 0, 0.5)
	negZero := math.Copysign(0, -1)

	assert.True(t, box.IsIntersect(NewRay(origin, NewVec3(1, 0, 0))))
	assert.True(t, box.IsIntersect(NewRay(origin, NewVec3(1, negZero, 0))))
	assert.True(t, box.IsIntersect(NewRay(origin, NewVec3(1, negZero, negZero))))

	// a flat box, as around an axis-aligned triangle, seen edge-on
	flat := NewAABB(NewVec3(0, 0, 2), NewVec3(1, 1, 2))
	assert.True(t, flat.IsIntersect(NewRay(NewVec3(-1, 0.5, 2), NewVec3(1, 0, negZero))))
	assert.False(t, flat.IsIntersect(NewRay(NewVec3(-1, 0.5, 2.001), NewVec3(1, 0, negZero))))
}
