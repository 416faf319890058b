package integrator

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// NormalIntegrator visualizes geometric normals mapped into [0, 1]
type NormalIntegrator struct {
	scene *scene.Scene
}

// NewNormalIntegrator creates a normal visualizer for s
func NewNormalIntegrator(s *scene.Scene) *NormalIntegrator {
	return &NormalIntegrator{scene: s}
}

// Radiance returns n/2 + 0.5 at the nearest hit and black on a miss
func (n *NormalIntegrator) Radiance(ray core.Ray, _ core.Sampler) core.Vec3 {
	hit, ok := n.scene.Intersect(ray)
	if !ok {
		return core.Vec3{}
	}
	return hit.Normal.Multiply(0.5).Add(core.Splat(0.5))
}

// DepthIntegrator returns the distance to the nearest hit in every channel
type DepthIntegrator struct {
	scene *scene.Scene
}

// NewDepthIntegrator creates a depth visualizer for s
func NewDepthIntegrator(s *scene.Scene) *DepthIntegrator {
	return &DepthIntegrator{scene: s}
}

// Radiance implements Integrator
func (d *DepthIntegrator) Radiance(ray core.Ray, _ core.Sampler) core.Vec3 {
	hit, ok := d.scene.Intersect(ray)
	if !ok {
		return core.Vec3{}
	}
	return core.Splat(hit.Distance * ray.Direction.Length())
}
