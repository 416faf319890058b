package geometry

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// parallelEpsilon rejects rays (nearly) parallel to a triangle's plane
const parallelEpsilon = 1e-12

// Triangle is a single flat-shaded triangle
type Triangle struct {
	V0, V1, V2 core.Vec3
	material   material.Material
	normal     core.Vec3 // cached unit normal
	area       float64
	bbox       core.AABB
}

// NewTriangle creates a triangle with counter-clockwise winding defining the normal
func NewTriangle(v0, v1, v2 core.Vec3, mat material.Material) *Triangle {
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	return &Triangle{
		V0:       v0,
		V1:       v1,
		V2:       v2,
		material: mat,
		normal:   cross.Normalize(),
		area:     cross.Length() / 2,
		bbox:     core.NewAABBFromPoints(v0, v1, v2),
	}
}

// Intersect uses the Möller-Trumbore algorithm
func (t *Triangle) Intersect(ray core.Ray, tMin, tMax float64) (Intersection, bool) {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < parallelEpsilon {
		return Intersection{}, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Subtract(t.V0)
	u := invDet * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return Intersection{}, false
	}

	q := s.Cross(edge1)
	v := invDet * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return Intersection{}, false
	}

	dist := invDet * edge2.Dot(q)
	if dist <= tMin || dist >= tMax {
		return Intersection{}, false
	}

	return Intersection{
		Point:    ray.At(dist),
		Distance: dist,
		Normal:   t.normal,
		Material: t.material,
	}, true
}

// BoundingBox implements Shape
func (t *Triangle) BoundingBox() core.AABB { return t.bbox }

// Area implements Shape
func (t *Triangle) Area() float64 { return t.area }

// Normal returns the unit geometric normal
func (t *Triangle) Normal() core.Vec3 { return t.normal }

// Material implements Shape
func (t *Triangle) Material() material.Material { return t.material }

// Sample picks a uniform point with barycentric warping
func (t *Triangle) Sample(sampler core.Sampler) SurfaceSample {
	b0, b1, b2 := core.SampleUniformTriangle(sampler.Get2D())
	p := t.V0.Multiply(b0).Add(t.V1.Multiply(b1)).Add(t.V2.Multiply(b2))
	return SurfaceSample{Point: p, Normal: t.normal, PDF: 1 / t.area}
}
