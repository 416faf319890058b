package scene

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// NewTriangleMeshScene creates a box, a pyramid and an icosahedron built from
// triangle meshes, lit by two sphere lights under a gradient sky.
func NewTriangleMeshScene() (*Scene, View, error) {
	view := View{
		Center:      core.NewVec3(0, 2, 6),
		LookAt:      core.NewVec3(0, 1, 0),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        45.0,
		Aperture:    0.02,
		AspectRatio: 16.0 / 9.0,
	}

	shapes := []geometry.Shape{
		// warm key light and a cool fill
		geometry.NewSphere(core.NewVec3(2, 6, 3), 1.5, material.NewEmissive(nil, core.NewVec3(12.0, 11.0, 10.0))),
		geometry.NewSphere(core.NewVec3(-3, 4, 2), 0.8, material.NewEmissive(nil, core.NewVec3(6.0, 7.0, 8.0))),
	}
	shapes = append(shapes, NewGroundQuad(core.Vec3{}, 40, material.NewLambertian(core.Splat(0.7)))...)

	red := material.NewMetal(core.NewVec3(0.8, 0.2, 0.2))
	blue := material.NewLambertian(core.NewVec3(0.2, 0.3, 0.8))
	gold := material.NewCookTorrance(core.NewVec3(0.8, 0.6, 0.2), 0.15, 0.47)

	boxRotation := spinY(core.NewVec3(-2, 0.5, 0), math.Pi/6)
	shapes = append(shapes, geometry.NewBox(core.Vec3{}, core.Splat(0.5), &boxRotation, red)...)

	pyramid, err := pyramidMesh(1.5, 2.0, spinY(core.NewVec3(0, 1, 0), math.Pi/4), blue)
	if err != nil {
		return nil, view, err
	}
	shapes = append(shapes, pyramid...)

	icosahedron, err := icosahedronMesh(0.8, spinY(core.NewVec3(2, 0.8, 0), math.Pi/3), gold)
	if err != nil {
		return nil, view, err
	}
	shapes = append(shapes, icosahedron...)

	sky := NewSimpleSky(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))
	s, err := NewScene(shapes, sky, DefaultConfig())
	return s, view, err
}

// spinY rotates about the Y axis and then moves the origin to center
func spinY(center core.Vec3, angle float64) core.Mat4 {
	return core.Translate(center).Mul(core.AxisAngle(core.NewVec3(0, 1, 0), angle))
}

// pyramidMesh creates a square pyramid centered on the origin before transform
func pyramidMesh(baseSize, height float64, transform core.Mat4, mat material.Material) ([]geometry.Shape, error) {
	b, h := baseSize/2, height/2
	vertices := []core.Vec3{
		core.NewVec3(-b, -h, -b), // 0: left-back
		core.NewVec3(b, -h, -b),  // 1: right-back
		core.NewVec3(b, -h, b),   // 2: right-front
		core.NewVec3(-b, -h, b),  // 3: left-front
		core.NewVec3(0, h, 0),    // 4: apex
	}
	faces := []int{
		0, 1, 2, 0, 2, 3, // base
		0, 4, 1,
		1, 4, 2,
		2, 4, 3,
		3, 4, 0,
	}
	return geometry.NewTriangleMesh(vertices, faces, mat, &geometry.MeshOptions{Transform: &transform})
}

// icosahedronMesh creates a regular icosahedron with its vertices on a
// sphere of the given radius
func icosahedronMesh(radius float64, transform core.Mat4, mat material.Material) ([]geometry.Shape, error) {
	phi := (1 + math.Sqrt(5)) / 2
	scale := radius / math.Sqrt(1+phi*phi)

	vertices := []core.Vec3{
		core.NewVec3(-1, phi, 0), core.NewVec3(1, phi, 0), core.NewVec3(-1, -phi, 0), core.NewVec3(1, -phi, 0),
		core.NewVec3(0, -1, phi), core.NewVec3(0, 1, phi), core.NewVec3(0, -1, -phi), core.NewVec3(0, 1, -phi),
		core.NewVec3(phi, 0, -1), core.NewVec3(phi, 0, 1), core.NewVec3(-phi, 0, -1), core.NewVec3(-phi, 0, 1),
	}
	for i := range vertices {
		vertices[i] = vertices[i].Multiply(scale)
	}

	faces := []int{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}
	return geometry.NewTriangleMesh(vertices, faces, mat, &geometry.MeshOptions{Transform: &transform})
}
