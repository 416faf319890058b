package geometry

import (
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
)

// MeshOptions contains optional parameters for triangle mesh creation
type MeshOptions struct {
	Transform *core.Mat4          // applied to every vertex; nil means identity
	Materials []material.Material // optional per-triangle materials
}

// NewTriangleMesh creates one triangle per face. faces holds vertex indices,
// three per triangle. Degenerate (zero area) triangles are skipped.
func NewTriangleMesh(vertices []core.Vec3, faces []int, mat material.Material, options *MeshOptions) ([]Shape, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}
	numTriangles := len(faces) / 3
	if options != nil && options.Materials != nil && len(options.Materials) != numTriangles {
		return nil, fmt.Errorf("got %d materials for %d triangles", len(options.Materials), numTriangles)
	}

	working := vertices
	if options != nil && options.Transform != nil {
		working = make([]core.Vec3, len(vertices))
		for i, v := range vertices {
			working[i] = options.Transform.Point(v)
		}
	}

	triangles := make([]Shape, 0, numTriangles)
	for i := 0; i < numTriangles; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]
		for _, idx := range [3]int{i0, i1, i2} {
			if idx < 0 || idx >= len(working) {
				return nil, fmt.Errorf("face %d: vertex index %d out of range [0, %d)", i, idx, len(working))
			}
		}

		triangleMaterial := mat
		if options != nil && options.Materials != nil {
			triangleMaterial = options.Materials[i]
		}

		tri := NewTriangle(working[i0], working[i1], working[i2], triangleMaterial)
		if tri.Area() == 0 {
			continue
		}
		triangles = append(triangles, tri)
	}
	return triangles, nil
}

// NewQuad creates a parallelogram from a corner and two edge vectors as a
// pair of triangles. The normal follows u × v.
func NewQuad(corner, u, v core.Vec3, mat material.Material) []Shape {
	p1 := corner.Add(u)
	p2 := corner.Add(u).Add(v)
	p3 := corner.Add(v)
	return []Shape{
		NewTriangle(corner, p1, p2, mat),
		NewTriangle(corner, p2, p3, mat),
	}
}

// NewBox creates an axis-aligned box of half extents size around center,
// optionally transformed, as 12 outward-facing triangles.
func NewBox(center, size core.Vec3, transform *core.Mat4, mat material.Material) []Shape {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	vertices := make([]core.Vec3, len(corners))
	for i, c := range corners {
		vertices[i] = c.MultiplyVec(size).Add(center)
	}

	// Counter-clockwise seen from outside
	faces := []int{
		4, 5, 6, 4, 6, 7, // front (Z+)
		1, 0, 3, 1, 3, 2, // back (Z-)
		5, 1, 2, 5, 2, 6, // right (X+)
		0, 4, 7, 0, 7, 3, // left (X-)
		3, 7, 6, 3, 6, 2, // top (Y+)
		4, 0, 1, 4, 1, 5, // bottom (Y-)
	}

	var options *MeshOptions
	if transform != nil {
		options = &MeshOptions{Transform: transform}
	}
	shapes, err := NewTriangleMesh(vertices, faces, mat, options)
	if err != nil {
		// indices above are fixed
		panic(err)
	}
	return shapes
}
