package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewCornellScene creates a classic Cornell box with an emissive ceiling panel
func NewCornellScene() (*Scene, View, error) {
	view := View{
		Center:      core.NewVec3(278, 278, -800), // outside the open front
		LookAt:      core.NewVec3(278, 278, 0),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		AspectRatio: 1.0,
	}

	white := material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))
	light := material.NewEmissive(nil, core.NewVec3(15.0, 15.0, 15.0))

	// Standard 555 unit box, every wall facing inward
	boxSize := 555.0
	var shapes []geometry.Shape

	// Floor
	shapes = append(shapes, geometry.NewQuad(
		core.NewVec3(0, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, 0, 0), white)...)
	// Ceiling
	shapes = append(shapes, geometry.NewQuad(
		core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), white)...)
	// Back wall
	shapes = append(shapes, geometry.NewQuad(
		core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), white)...)
	// Left wall (red)
	shapes = append(shapes, geometry.NewQuad(
		core.NewVec3(0, 0, 0), core.NewVec3(0, boxSize, 0), core.NewVec3(0, 0, boxSize), red)...)
	// Right wall (green)
	shapes = append(shapes, geometry.NewQuad(
		core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), green)...)

	// Ceiling light just below the ceiling, facing down
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	shapes = append(shapes, geometry.NewQuad(
		core.NewVec3(lightOffset, boxSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		light,
	)...)

	// Left sphere (mirror), right sphere (glass)
	shapes = append(shapes,
		geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5, material.NewMetal(core.NewVec3(0.8, 0.8, 0.9))),
		geometry.NewSphere(core.NewVec3(370, 90, 351), 90, material.NewDielectric(1.5)),
	)

	s, err := NewScene(shapes, NewUniformSky(core.Vec3{}), DefaultConfig())
	return s, view, err
}
