package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewGroundQuad creates a large horizontal quad facing +Y, centered at center
func NewGroundQuad(center core.Vec3, size float64, mat material.Material) []geometry.Shape {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// (0,0,size) × (size,0,0) points up
	return geometry.NewQuad(corner, core.NewVec3(0, 0, size), core.NewVec3(size, 0, 0), mat)
}

// NewDefaultScene creates spheres of several materials on a ground quad
func NewDefaultScene() (*Scene, View, error) {
	view := View{
		Center:      core.NewVec3(0, 0.75, 2),
		LookAt:      core.NewVec3(0, 0.5, -1),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		Aperture:    0.05,
		AspectRatio: 16.0 / 9.0,
	}

	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6))
	blue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	coated := material.NewGGX(core.NewVec3(0.65, 0.25, 0.2), 0.2, 1.5)
	silver := material.NewMetal(core.NewVec3(0.8, 0.8, 0.8))
	gold := material.NewCookTorrance(core.NewVec3(0.8, 0.6, 0.2), 0.3, 0.47)
	glass := material.NewDielectric(1.5)

	shapes := []geometry.Shape{
		geometry.NewSphere(core.NewVec3(0, 0.5, -1), 0.5, coated),
		geometry.NewSphere(core.NewVec3(-1, 0.5, -1), 0.5, silver),
		geometry.NewSphere(core.NewVec3(1, 0.5, -1), 0.5, gold),
		geometry.NewSphere(core.NewVec3(0.5, 0.25, -0.5), 0.25, glass),

		// Hollow glass shell around a blue core
		geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.25, glass),
		geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.20, blue),

		// Sun
		geometry.NewSphere(core.NewVec3(30, 30.5, 15), 10, material.NewEmissive(nil, core.NewVec3(15.0, 14.0, 13.0))),
	}
	shapes = append(shapes, NewGroundQuad(core.NewVec3(0, 0, 0), 10000.0, ground)...)

	sky := NewSimpleSky(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))
	s, err := NewScene(shapes, sky, DefaultConfig())
	return s, view, err
}
