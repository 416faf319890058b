package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSampler replays fixed 2D samples, cycling when exhausted
type scriptedSampler struct {
	samples []core.Vec2
	next    int
}

func (s *scriptedSampler) Get1D() float64 {
	return s.Get2D().X
}

func (s *scriptedSampler) Get2D() core.Vec2 {
	v := s.samples[s.next%len(s.samples)]
	s.next++
	return v
}

func (s *scriptedSampler) Get3D() core.Vec3 {
	v := s.Get2D()
	return core.NewVec3(v.X, v.Y, 0.5)
}

func testCameraConfig() CameraConfig {
	return CameraConfig{
		Center: core.NewVec3(0, 0, 0),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   90,
		Width:  3,
		Height: 3,
	}
}

func assertVecNear(t *testing.T, expected, actual core.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, 0, expected.Subtract(actual).Length(), delta, "expected %v, got %v", expected, actual)
}

func TestPinholeCamera_CenterPixelLooksAtTarget(t *testing.T) {
	camera := NewPinholeCamera(testCameraConfig())
	ray := camera.GetRay(1, 1, &scriptedSampler{samples: []core.Vec2{core.NewVec2(0.5, 0.5)}})

	assertVecNear(t, core.NewVec3(0, 0, 0), ray.Origin, 1e-12)
	assertVecNear(t, core.NewVec3(0, 0, -1), ray.Direction, 1e-12)
}

func TestPinholeCamera_TopLeftCorner(t *testing.T) {
	camera := NewPinholeCamera(testCameraConfig())
	ray := camera.GetRay(0, 0, &scriptedSampler{samples: []core.Vec2{core.NewVec2(0, 0)}})

	// 90 degree field of view puts the image plane corners at (+-1, +-1, -1)
	assertVecNear(t, core.NewVec3(-1, 1, -1).Normalize(), ray.Direction, 1e-12)
}

func TestPinholeCamera_AspectRatio(t *testing.T) {
	config := testCameraConfig()
	config.Width, config.Height = 200, 100
	camera := NewPinholeCamera(config)

	ray := camera.GetRay(199, 50, &scriptedSampler{samples: []core.Vec2{core.NewVec2(1, 0)}})
	assertVecNear(t, core.NewVec3(2, 0, -1).Normalize(), ray.Direction, 1e-12)
}

func TestThinLensCamera_ConvergesOnFocusPlane(t *testing.T) {
	config := testCameraConfig()
	config.LookAt = core.NewVec3(0, 0, -4)
	config.Aperture = 0.5

	camera := NewThinLensCamera(config)
	sampler := &scriptedSampler{samples: []core.Vec2{
		core.NewVec2(0.5, 0.5), core.NewVec2(0.1, 0.9),
		core.NewVec2(0.5, 0.5), core.NewVec2(0.8, 0.3),
		core.NewVec2(0.5, 0.5), core.NewVec2(0.95, 0.05),
	}}

	spread := 0.0
	for i := 0; i < 3; i++ {
		ray := camera.GetRay(1, 1, sampler)
		require.InDelta(t, 1.0, ray.Direction.Length(), 1e-12)
		assert.LessOrEqual(t, ray.Origin.Length(), 0.25+1e-12, "origin stays on the lens")
		spread = math.Max(spread, ray.Origin.Length())

		// Every ray through the pixel center passes through the focus point
		tFocus := -4 / ray.Direction.Z
		assertVecNear(t, config.LookAt, ray.At(tFocus), 1e-9)
	}
	assert.Greater(t, spread, 0.0)
}

func TestCameraConfigFromTransform(t *testing.T) {
	origin := core.NewVec3(0, 1, 5)
	target := core.NewVec3(0, 1, 0)
	config := CameraConfigFromTransform(core.LookAt(origin, target, core.NewVec3(0, 1, 0)), 40, 3, 3)

	assertVecNear(t, origin, config.Center, 1e-12)
	assertVecNear(t, core.NewVec3(0, 1, 0), config.Up, 1e-12)

	camera, err := NewCamera(config)
	require.NoError(t, err)
	ray := camera.GetRay(1, 1, &scriptedSampler{samples: []core.Vec2{core.NewVec2(0.5, 0.5)}})
	assertVecNear(t, core.NewVec3(0, 0, -1), ray.Direction, 1e-12)
}

func TestApertureFromFNumber(t *testing.T) {
	vfov := 2 * math.Atan(0.5) * 180 / math.Pi
	// Focal length 24mm on the 24mm sensor, so f/2 is a 12mm lens
	assert.InDelta(t, 0.012, ApertureFromFNumber(2, vfov), 1e-12)
	assert.Zero(t, ApertureFromFNumber(0, vfov))
	assert.Zero(t, ApertureFromFNumber(math.Inf(1), vfov))
}

func TestNewCamera(t *testing.T) {
	camera, err := NewCamera(testCameraConfig())
	require.NoError(t, err)
	assert.IsType(t, &PinholeCamera{}, camera)

	config := testCameraConfig()
	config.Aperture = 0.1
	camera, err = NewCamera(config)
	require.NoError(t, err)
	assert.IsType(t, &ThinLensCamera{}, camera)

	tests := []struct {
		name   string
		modify func(*CameraConfig)
	}{
		{"zero width", func(c *CameraConfig) { c.Width = 0 }},
		{"flat field of view", func(c *CameraConfig) { c.VFov = 180 }},
		{"look at self", func(c *CameraConfig) { c.LookAt = c.Center }},
		{"negative aperture", func(c *CameraConfig) { c.Aperture = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testCameraConfig()
			tt.modify(&config)
			_, err := NewCamera(config)
			assert.Error(t, err)
		})
	}
}
