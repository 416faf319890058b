package integrator

import (
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	white := material.NewLambertian(core.Splat(0.5))
	s, err := scene.NewScene([]geometry.Shape{geometry.NewSphere(core.Vec3{}, 1, white)}, nil, scene.DefaultConfig())
	require.NoError(t, err)

	i, err := New("", s)
	require.NoError(t, err)
	assert.IsType(t, &PathTracer{}, i)
	assert.True(t, i.(*PathTracer).nee)

	i, err = New(PathTracing, s)
	require.NoError(t, err)
	assert.False(t, i.(*PathTracer).nee)

	i, err = New(Normal, s)
	require.NoError(t, err)
	assert.IsType(t, &NormalIntegrator{}, i)

	_, err = New("bdpt", s)
	assert.ErrorContains(t, err, "unknown integrator")

	assert.Equal(t, []string{"depth", "nee", "normal", "pt"}, Names())
}

func TestDebugIntegrators(t *testing.T) {
	white := material.NewLambertian(core.Splat(0.5))
	s, err := scene.NewScene([]geometry.Shape{geometry.NewSphere(core.NewVec3(0, 0, -3), 1, white)}, nil, scene.DefaultConfig())
	require.NoError(t, err)
	sampler := core.NewSeededSampler(1)

	toward := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))
	away := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1))

	normal := NewNormalIntegrator(s)
	assert.InDelta(t, 0, normal.Radiance(toward, sampler).Subtract(core.NewVec3(0.5, 0.5, 1)).Length(), 1e-9)
	assert.Equal(t, core.Vec3{}, normal.Radiance(away, sampler))

	depth := NewDepthIntegrator(s)
	assert.InDelta(t, 2.0, depth.Radiance(toward, sampler).X, 1e-9)
	assert.InDelta(t, 2.0, depth.Radiance(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -2)), sampler).X, 1e-9,
		"distance is in world units for unnormalized rays")
	assert.Equal(t, core.Vec3{}, depth.Radiance(away, sampler))
}
