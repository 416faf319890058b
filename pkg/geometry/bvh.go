package geometry

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// SAH cost constants: one box test against two primitive tests
const (
	costAABB     = 1.0
	costTriangle = 2.0
)

// BVHNode is either a leaf wrapping one shape or an internal node with two children
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Shape       Shape // non-nil for leaves
	Axis        int   // split axis of an internal node
}

// IsLeaf reports whether the node wraps a single shape
func (n *BVHNode) IsLeaf() bool {
	return n.Shape != nil
}

// BVHStats summarizes a built hierarchy
type BVHStats struct {
	Shapes    int
	Nodes     int
	Leaves    int
	MaxDepth  int
	RootArea  float64
	BuildTime time.Duration
}

// BVH is a surface area heuristic bounding volume hierarchy. It is immutable
// once built and safe for concurrent queries.
type BVH struct {
	Root  *BVHNode
	stats BVHStats
}

// NewBVH builds a hierarchy over shapes. The input slice is copied and left
// untouched. It panics when shapes is empty.
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		panic("geometry: cannot build a BVH over zero shapes")
	}
	start := time.Now()

	shapesCopy := make([]Shape, len(shapes))
	copy(shapesCopy, shapes)

	root := construct(shapesCopy)
	bvh := &BVH{Root: root}
	bvh.stats = BVHStats{Shapes: len(shapes), RootArea: root.BoundingBox.SurfaceArea()}
	collectStats(root, 1, &bvh.stats)
	bvh.stats.BuildTime = time.Since(start)
	return bvh
}

// Stats returns node counts and build timing
func (b *BVH) Stats() BVHStats {
	return b.stats
}

// BoundingBox returns the bounds of the whole hierarchy
func (b *BVH) BoundingBox() core.AABB {
	return b.Root.BoundingBox
}

// construct recursively builds the subtree for shapes, reordering the slice in place
func construct(shapes []Shape) *BVHNode {
	if len(shapes) == 1 {
		return &BVHNode{BoundingBox: shapes[0].BoundingBox(), Shape: shapes[0]}
	}

	axis, split := sahSplit(shapes)
	if split < 1 || split > len(shapes)-1 {
		panic(fmt.Sprintf("geometry: invalid BVH split %d for %d shapes", split, len(shapes)))
	}

	left := construct(shapes[:split])
	right := construct(shapes[split:])
	return &BVHNode{
		BoundingBox: left.BoundingBox.Merge(right.BoundingBox),
		Left:        left,
		Right:       right,
		Axis:        axis,
	}
}

// sahSplit evaluates every split index on every axis and returns the cheapest.
// Axes are scanned X, Y, Z and indices ascending; a candidate must be strictly
// cheaper to win, so ties go to the first one found. On return the slice is
// ordered along the winning axis.
func sahSplit(shapes []Shape) (int, int) {
	n := len(shapes)
	leftArea := make([]float64, n)
	rightArea := make([]float64, n)

	input := make([]Shape, n)
	copy(input, shapes)
	best := make([]Shape, n)
	copy(best, shapes)

	bestAxis, bestSplit := -1, -1
	bestCost := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		copy(shapes, input)
		sortByCenter(shapes, axis)

		// leftArea[i] bounds shapes[0:i], rightArea[i] bounds shapes[i:n]
		box := shapes[0].BoundingBox()
		for i := 1; i < n; i++ {
			leftArea[i] = box.SurfaceArea()
			box = box.Merge(shapes[i].BoundingBox())
		}
		total := box.SurfaceArea()
		if total <= 0 {
			total = 1
		}
		box = shapes[n-1].BoundingBox()
		for i := n - 1; i >= 1; i-- {
			rightArea[i] = box.SurfaceArea()
			box = box.Merge(shapes[i-1].BoundingBox())
		}

		for i := 1; i < n; i++ {
			cost := 2*costAABB + (leftArea[i]*float64(i)+rightArea[i]*float64(n-i))*costTriangle/total
			if cost < bestCost {
				bestCost, bestAxis, bestSplit = cost, axis, i
			}
		}
		if bestAxis == axis {
			copy(best, shapes)
		}
	}
	copy(shapes, best)

	// Only reachable with NaN bounds; fall back to a median split
	if bestAxis < 0 {
		return 0, n / 2
	}
	return bestAxis, bestSplit
}

func sortByCenter(shapes []Shape, axis int) {
	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].BoundingBox().Center.Axis(axis) < shapes[j].BoundingBox().Center.Axis(axis)
	})
}

// NearestHit returns the closest intersection in (tMin, tMax)
func (b *BVH) NearestHit(ray core.Ray, tMin, tMax float64) (Intersection, bool) {
	return b.Root.nearestHit(ray, tMin, tMax)
}

// nearestHit visits the child on the ray's near side of the split first and
// narrows tMax to the best hit so far, so farther subtrees are pruned by the
// box test.
func (n *BVHNode) nearestHit(ray core.Ray, tMin, tMax float64) (Intersection, bool) {
	if !n.BoundingBox.Hit(ray, tMin, tMax) {
		return Intersection{}, false
	}
	if n.Shape != nil {
		return n.Shape.Intersect(ray, tMin, tMax)
	}

	first, second := n.Left, n.Right
	if ray.Direction.Axis(n.Axis) < 0 {
		first, second = second, first
	}

	closest, hit := first.nearestHit(ray, tMin, tMax)
	if hit {
		tMax = closest.Distance
	}
	if other, ok := second.nearestHit(ray, tMin, tMax); ok {
		return other, true
	}
	return closest, hit
}

func collectStats(n *BVHNode, depth int, stats *BVHStats) {
	stats.Nodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)
	if n.IsLeaf() {
		stats.Leaves++
		return
	}
	collectStats(n.Left, depth+1, stats)
	collectStats(n.Right, depth+1, stats)
}
