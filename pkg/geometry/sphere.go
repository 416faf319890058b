package geometry

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	material material.Material
	bbox     core.AABB
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat material.Material) *Sphere {
	r := core.Splat(math.Abs(radius))
	return &Sphere{
		Center:   center,
		Radius:   math.Abs(radius),
		material: mat,
		bbox:     core.NewAABB(center.Subtract(r), center.Add(r)),
	}
}

// Intersect solves |o + t·d - c|² = r² and keeps the smallest root in range
func (s *Sphere) Intersect(ray core.Ray, tMin, tMax float64) (Intersection, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return Intersection{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root <= tMin || root >= tMax {
		root = (-halfB + sqrtD) / a
		if root <= tMin || root >= tMax {
			return Intersection{}, false
		}
	}

	point := ray.At(root)
	return Intersection{
		Point:    point,
		Distance: root,
		Normal:   point.Subtract(s.Center).Multiply(1 / s.Radius),
		Material: s.material,
	}, true
}

// BoundingBox implements Shape
func (s *Sphere) BoundingBox() core.AABB { return s.bbox }

// Area implements Shape
func (s *Sphere) Area() float64 { return 4 * math.Pi * s.Radius * s.Radius }

// Material implements Shape
func (s *Sphere) Material() material.Material { return s.material }

// Sample picks a uniform point on the sphere's surface
func (s *Sphere) Sample(sampler core.Sampler) SurfaceSample {
	n := core.SampleOnUnitSphere(sampler.Get2D())
	return SurfaceSample{
		Point:  s.Center.Add(n.Multiply(s.Radius)),
		Normal: n,
		PDF:    1 / s.Area(),
	}
}
