package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min    Vec3 // Minimum corner
	Max    Vec3 // Maximum corner
	Center Vec3 // (Min+Max)/2, kept alongside the corners for BVH sorting
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max, Center: min.Add(max).Multiply(0.5)}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	lo, hi := points[0], points[0]
	for _, point := range points[1:] {
		lo = lo.Min(point)
		hi = hi.Max(point)
	}
	return NewAABB(lo, hi)
}

// MergeAABBs returns the smallest box enclosing every input box.
// It panics on an empty list.
func MergeAABBs(boxes ...AABB) AABB {
	if len(boxes) == 0 {
		panic("core: MergeAABBs called with no boxes")
	}
	lo, hi := boxes[0].Min, boxes[0].Max
	for _, b := range boxes[1:] {
		lo = lo.Min(b.Min)
		hi = hi.Max(b.Max)
	}
	return NewAABB(lo, hi)
}

// Merge returns an AABB that bounds both this AABB and another
func (aabb AABB) Merge(other AABB) AABB {
	return NewAABB(aabb.Min.Min(other.Min), aabb.Max.Max(other.Max))
}

// slabPadding is 1 + 2γ(3) for float64 round-off
const slabPadding = 1 + 2*(3*0x1p-53)/(1-3*0x1p-53)

// IsIntersect reports whether the ray hits the box anywhere in front of its origin
func (aabb AABB) IsIntersect(ray Ray) bool {
	return aabb.Hit(ray, 0, math.Inf(1))
}

// Hit tests if a ray intersects with this AABB within [tMin, tMax] using the slab method.
// A ray parallel to a slab (a +0 or -0 direction component) hits it only when its
// origin lies within the closed slab; no division happens on that axis.
//
// The far distance is widened by a few ulps so flat boxes around axis-aligned
// triangles are not missed through rounding.
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	for axis := 0; axis < 3; axis++ {
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)
		if direction == 0 {
			if origin < aabb.Min.Axis(axis) || origin > aabb.Max.Axis(axis) {
				return false
			}
			continue
		}
		invDirection := 1.0 / direction
		t1 := (aabb.Min.Axis(axis) - origin) * invDirection
		t2 := (aabb.Max.Axis(axis) - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		t2 *= slabPadding
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// SurfaceArea returns the surface area of the AABB
func (aabb AABB) SurfaceArea() float64 {
	size := aabb.Size()
	return 2.0 * (size.X*size.Y + size.Y*size.Z + size.Z*size.X)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// IsValid returns true if min <= max on every axis
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// Contains reports whether other lies entirely inside this box
func (aabb AABB) Contains(other AABB) bool {
	return aabb.Min.X <= other.Min.X && aabb.Min.Y <= other.Min.Y && aabb.Min.Z <= other.Min.Z &&
		aabb.Max.X >= other.Max.X && aabb.Max.Y >= other.Max.Y && aabb.Max.Z >= other.Max.Z
}

// Expand returns an AABB expanded by the given amount in all directions
func (aabb AABB) Expand(amount float64) AABB {
	expansion := Splat(amount)
	return NewAABB(aabb.Min.Subtract(expansion), aabb.Max.Add(expansion))
}
