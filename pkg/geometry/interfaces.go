package geometry

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// Intersection describes the nearest surface point found along a ray
type Intersection struct {
	Point    core.Vec3
	Distance float64   // ray parameter t
	Normal   core.Vec3 // geometric unit normal, not oriented toward the ray
	Material material.Material
}

// Shape is a primitive that can be intersected, bounded and, when it carries
// an emissive material, sampled as an area light.
type Shape interface {
	// Intersect returns the hit with the smallest t in (tMin, tMax)
	Intersect(ray core.Ray, tMin, tMax float64) (Intersection, bool)
	BoundingBox() core.AABB
	Area() float64
	// Sample picks a point uniformly by area; pdf is 1/Area
	Sample(sampler core.Sampler) SurfaceSample
	Material() material.Material
}

// SurfaceSample is a point drawn on a shape's surface
type SurfaceSample struct {
	Point  core.Vec3
	Normal core.Vec3
	PDF    float64 // area measure
}
