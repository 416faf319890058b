package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomScene(random *rand.Rand, count int) []Shape {
	shapes := make([]Shape, 0, count)
	for i := 0; i < count; i++ {
		center := core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		if random.Intn(4) == 0 {
			shapes = append(shapes, NewSphere(center, 0.2+random.Float64(), nil))
			continue
		}
		jitter := func() core.Vec3 {
			return core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, random.Float64()*2-1)
		}
		shapes = append(shapes, NewTriangle(center.Add(jitter()), center.Add(jitter()), center.Add(jitter()), nil))
	}
	return shapes
}

func bruteForce(shapes []Shape, ray core.Ray, tMin, tMax float64) (Intersection, bool) {
	var closest Intersection
	found := false
	for _, s := range shapes {
		if hit, ok := s.Intersect(ray, tMin, tMax); ok {
			closest, found, tMax = hit, true, hit.Distance
		}
	}
	return closest, found
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	shapes := randomScene(random, 300)
	bvh := NewBVH(shapes)

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.SampleOnUnitSphere(core.NewVec2(random.Float64(), random.Float64())).Multiply(30)
		target := core.NewVec3(random.Float64()*16-8, random.Float64()*16-8, random.Float64()*16-8)
		ray := core.NewRay(origin, target.Subtract(origin).Normalize())

		expected, expectedOK := bruteForce(shapes, ray, core.Epsilon, math.Inf(1))
		actual, actualOK := bvh.NearestHit(ray, core.Epsilon, math.Inf(1))
		require.Equal(t, expectedOK, actualOK, "ray %d", i)
		if expectedOK {
			hits++
			assert.InDelta(t, expected.Distance, actual.Distance, 1e-12, "ray %d", i)
		}
	}
	assert.Greater(t, hits, 100, "test rays should mostly hit something")
}

func TestBVH_RespectsTMax(t *testing.T) {
	shapes := []Shape{
		NewSphere(core.NewVec3(0, 0, -3), 1, nil),
		NewSphere(core.NewVec3(0, 0, -10), 1, nil),
	}
	bvh := NewBVH(shapes)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	hit, ok := bvh.NearestHit(ray, core.Epsilon, math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 2.0, hit.Distance, 1e-9)

	_, ok = bvh.NearestHit(ray, core.Epsilon, 1.5)
	assert.False(t, ok)

	hit, ok = bvh.NearestHit(ray, 4.5, math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 9.0, hit.Distance, 1e-9)
}

func TestBVH_Structure(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	shapes := randomScene(random, 64)
	bvh := NewBVH(shapes)
	stats := bvh.Stats()

	assert.Equal(t, 64, stats.Shapes)
	assert.Equal(t, 64, stats.Leaves, "one shape per leaf")
	assert.Equal(t, 2*64-1, stats.Nodes)

	var walk func(n *BVHNode)
	walk = func(n *BVHNode) {
		if n.IsLeaf() {
			assert.Equal(t, n.Shape.BoundingBox(), n.BoundingBox)
			return
		}
		require.NotNil(t, n.Left)
		require.NotNil(t, n.Right)
		assert.True(t, n.BoundingBox.Contains(n.Left.BoundingBox))
		assert.True(t, n.BoundingBox.Contains(n.Right.BoundingBox))
		walk(n.Left)
		walk(n.Right)
	}
	walk(bvh.Root)
}

func TestBVH_DoesNotReorderInput(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	shapes := randomScene(random, 20)
	original := make([]Shape, len(shapes))
	copy(original, shapes)

	NewBVH(shapes)
	assert.Equal(t, original, shapes)
}

func TestBVH_EmptyPanics(t *testing.T) {
	assert.Panics(t, func() { NewBVH(nil) })
}

func TestSAHSplit_SeparatesClusters(t *testing.T) {
	// Two tight clusters far apart along Y; the cheapest cut falls between them
	var shapes []Shape
	for i := 0; i < 5; i++ {
		shapes = append(shapes, NewSphere(core.NewVec3(float64(i)*0.1, -50, 0), 0.1, nil))
	}
	for i := 0; i < 3; i++ {
		shapes = append(shapes, NewSphere(core.NewVec3(float64(i)*0.1, 50, 0), 0.1, nil))
	}

	axis, split := sahSplit(shapes)
	assert.Equal(t, 1, axis)
	assert.Equal(t, 5, split)
	for i, s := range shapes {
		if i < split {
			assert.Less(t, s.BoundingBox().Center.Y, 0.0)
		} else {
			assert.Greater(t, s.BoundingBox().Center.Y, 0.0)
		}
	}
}

func TestSAHSplit_IdenticalBoxesTieToFirstAxis(t *testing.T) {
	shapes := make([]Shape, 4)
	for i := range shapes {
		shapes[i] = NewSphere(core.NewVec3(1, 1, 1), 1, nil)
	}
	axis, split := sahSplit(shapes)
	assert.Equal(t, 0, axis)
	assert.Equal(t, 1, split)
}

func TestSAHSplit_FlatGeometry(t *testing.T) {
	// Zero total area must not divide by zero
	shapes := []Shape{
		NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), nil),
		NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), nil),
		NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0), nil),
	}
	axis, split := sahSplit(shapes)
	assert.Equal(t, 0, axis)
	assert.Equal(t, 1, split)
}

// latticeScene places axis-aligned triangles and spheres on integer
// coordinates so rays can run exactly along their planes and bounds.
func latticeScene(random *rand.Rand, count int) []Shape {
	point := func() core.Vec3 {
		return core.NewVec3(float64(random.Intn(9)-4), float64(random.Intn(9)-4), float64(random.Intn(9)-4))
	}
	shapes := make([]Shape, 0, count)
	for i := 0; i < count; i++ {
		corner := point()
		if random.Intn(4) == 0 {
			shapes = append(shapes, NewSphere(corner, 0.5, nil))
			continue
		}
		u, v := core.Vec3{}, core.Vec3{}
		switch random.Intn(3) {
		case 0:
			u, v = core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)
		case 1:
			u, v = core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 1)
		default:
			u, v = core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0)
		}
		shapes = append(shapes, NewTriangle(corner, corner.Add(u.Multiply(float64(1+random.Intn(2)))), corner.Add(v.Multiply(float64(1+random.Intn(2)))), nil))
	}
	return shapes
}

func TestBVH_MatchesBruteForce_AxisAligned(t *testing.T) {
	random := rand.New(rand.NewSource(11))
	shapes := latticeScene(random, 200)
	bvh := NewBVH(shapes)

	signedZero := func() float64 {
		if random.Intn(2) == 0 {
			return math.Copysign(0, -1)
		}
		return 0
	}
	coordinate := func() float64 {
		// integers land on triangle planes and box faces, halves between them
		return float64(random.Intn(17)-8) / 2
	}

	hits := 0
	for i := 0; i < 3000; i++ {
		axis := random.Intn(3)
		sign := 1.0
		if random.Intn(2) == 0 {
			sign = -1
		}
		d := [3]float64{signedZero(), signedZero(), signedZero()}
		d[axis] = sign
		o := [3]float64{coordinate(), coordinate(), coordinate()}
		o[axis] = -sign * 10
		ray := core.NewRay(core.NewVec3(o[0], o[1], o[2]), core.NewVec3(d[0], d[1], d[2]))

		expected, expectedOK := bruteForce(shapes, ray, core.Epsilon, math.Inf(1))
		actual, actualOK := bvh.NearestHit(ray, core.Epsilon, math.Inf(1))
		require.Equal(t, expectedOK, actualOK, "ray %d: %v", i, ray)
		if expectedOK {
			hits++
			assert.InDelta(t, expected.Distance, actual.Distance, 1e-12, "ray %d: %v", i, ray)
		}
	}
	assert.Greater(t, hits, 100, "lattice rays should often hit something")
}
