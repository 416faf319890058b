package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScene_Errors(t *testing.T) {
	_, err := NewScene(nil, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoShapes)

	shapes := []geometry.Shape{geometry.NewSphere(core.Vec3{}, 1, nil)}
	_, err = NewScene(shapes, nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingMaterial)

	white := material.NewLambertian(core.Splat(0.5))
	shapes = []geometry.Shape{geometry.NewSphere(core.Vec3{}, 1, white)}
	_, err = NewScene(shapes, nil, Config{MinDepth: 10, DepthLimit: 5})
	assert.Error(t, err)
}

func TestNewScene_IndexesEmittersByArea(t *testing.T) {
	white := material.NewLambertian(core.Splat(0.5))
	light := material.NewEmissive(nil, core.Splat(4))

	shapes := []geometry.Shape{
		geometry.NewSphere(core.NewVec3(0, -100, 0), 99, white),
	}
	// 2x2 light made of two triangles, plus a 1x1 one
	shapes = append(shapes, geometry.NewQuad(core.NewVec3(-1, 5, -1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2), light)...)
	shapes = append(shapes, geometry.NewQuad(core.NewVec3(10, 5, 10), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), light)...)

	s, err := NewScene(shapes, nil, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, s.HasEmitters())
	assert.Len(t, s.Emitters, 4)
	assert.InDelta(t, 5.0, s.EmitterArea(), 1e-12)

	sampler := core.NewSeededSampler(1)
	small := 0
	const samples = 20000
	for i := 0; i < samples; i++ {
		sample, ok := s.SampleEmitter(sampler)
		require.True(t, ok)
		assert.InDelta(t, 1/5.0, sample.PDF, 1e-12)
		assert.Equal(t, core.NewVec3(0, -1, 0), sample.Normal)
		if sample.Point.X > 5 {
			small++
		}
	}
	// Emitters are chosen proportionally to area
	assert.InDelta(t, 0.2, float64(small)/samples, 0.015)
}

func TestScene_NoEmitters(t *testing.T) {
	white := material.NewLambertian(core.Splat(0.5))
	s, err := NewScene([]geometry.Shape{geometry.NewSphere(core.Vec3{}, 1, white)}, nil, DefaultConfig())
	require.NoError(t, err)

	assert.False(t, s.HasEmitters())
	_, ok := s.SampleEmitter(core.NewSeededSampler(1))
	assert.False(t, ok)
	assert.Equal(t, core.Vec3{}, s.Sky.Radiance(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0))), "nil sky is black")
}

func TestScene_IntersectSkipsSelfHits(t *testing.T) {
	white := material.NewLambertian(core.Splat(0.5))
	shapes := NewGroundQuad(core.Vec3{}, 10, white)
	s, err := NewScene(shapes, nil, DefaultConfig())
	require.NoError(t, err)

	// A ray leaving the surface must not hit it again
	_, ok := s.Intersect(core.NewRay(core.NewVec3(0.3, 0, 0.2), core.NewVec3(0, 1, 0)))
	assert.False(t, ok)

	hit, ok := s.Intersect(core.NewRay(core.NewVec3(0.3, 2, 0.2), core.NewVec3(0, -1, 0)))
	require.True(t, ok)
	assert.InDelta(t, 2.0, hit.Distance, 1e-12)
	assert.Same(t, white, hit.Material)
}

func TestBuiltins(t *testing.T) {
	for _, b := range Builtins() {
		t.Run(b.ID, func(t *testing.T) {
			s, view, err := LoadBuiltin(b.ID)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Shapes)
			assert.True(t, s.HasEmitters())
			assert.Greater(t, view.VFov, 0.0)
			assert.Greater(t, view.AspectRatio, 0.0)
		})
	}

	_, _, err := LoadBuiltin("nope")
	assert.Error(t, err)
}

func TestCornellScene_LightFacesDown(t *testing.T) {
	s, _, err := NewCornellScene()
	require.NoError(t, err)
	require.Len(t, s.Emitters, 2)
	for _, e := range s.Emitters {
		assert.Equal(t, core.NewVec3(0, -1, 0), e.(*geometry.Triangle).Normal())
	}
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	content := "# Scene: Glass Bunny\n# Description: bunny in a box\n\n[renderer]\nsamples = 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bunny.toml"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.toml"), []byte("[film]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	scenes, err := ListAllScenes(dir)
	require.NoError(t, err)
	require.Len(t, scenes, len(Builtins())+2)

	files := scenes[len(Builtins()):]
	assert.Equal(t, "Glass Bunny", files[0].Name)
	assert.Equal(t, "bunny in a box", files[0].Description)
	assert.Equal(t, "toml", files[0].Type)
	assert.Equal(t, "plain", files[1].Name)

	missing, err := ListSceneFiles(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, missing)
}

func TestValidate_RequireEmitters(t *testing.T) {
	white := material.NewLambertian(core.Splat(0.5))
	shapes := []geometry.Shape{geometry.NewSphere(core.Vec3{}, 1, white)}

	config := DefaultConfig()
	config.RequireEmitters = true
	_, err := NewScene(shapes, nil, config)
	assert.ErrorIs(t, err, ErrNoEmitters)

	shapes = append(shapes, geometry.NewSphere(core.NewVec3(0, 5, 0), 1, material.NewEmissive(nil, core.Splat(1))))
	_, err = NewScene(shapes, nil, config)
	assert.NoError(t, err)
}

func TestTriangleMeshScene(t *testing.T) {
	s, _, err := NewTriangleMeshScene()
	require.NoError(t, err)
	// 2 sphere lights, 2 ground triangles, 12 box, 6 pyramid and 20 icosahedron triangles
	assert.Len(t, s.Shapes, 2+2+12+6+20)
	assert.Len(t, s.Emitters, 2)
}

func TestIcosahedronMesh(t *testing.T) {
	center := core.NewVec3(1, 2, 3)
	shapes, err := icosahedronMesh(0.8, spinY(center, 0.4), material.NewLambertian(core.Splat(0.5)))
	require.NoError(t, err)
	require.Len(t, shapes, 20)

	area := 0.0
	for _, shape := range shapes {
		box := shape.BoundingBox()
		for _, corner := range []core.Vec3{box.Min, box.Max} {
			assert.LessOrEqual(t, corner.Subtract(center).Length(), 0.8*math.Sqrt(3)+1e-9)
		}
		area += shape.Area()
	}
	// edge length of a regular icosahedron with circumradius r is r / sin(2π/5)
	edge := 0.8 / math.Sin(2*math.Pi/5)
	assert.InDelta(t, 5*math.Sqrt(3)*edge*edge, area, 1e-9)
}
