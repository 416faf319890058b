package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// sensorHeight is the height of the virtual sensor used to turn an f-number
// into an aperture diameter (a full frame 24mm sensor).
const sensorHeight = 0.024

// Camera generates primary rays for pixel coordinates. Pixel (0, 0) is the
// top left corner of the image.
type Camera interface {
	GetRay(x, y int, sampler core.Sampler) core.Ray
}

// CameraConfig describes a camera placement and lens
type CameraConfig struct {
	Center        core.Vec3
	LookAt        core.Vec3
	Up            core.Vec3
	VFov          float64 // vertical field of view in degrees
	Aperture      float64 // lens diameter; 0 selects the pinhole camera
	FocusDistance float64 // 0 focuses on LookAt
	Width         int
	Height        int
}

// CameraConfigFromView places a camera at a built-in scene's viewpoint
func CameraConfigFromView(view scene.View, width, height int) CameraConfig {
	return CameraConfig{
		Center:        view.Center,
		LookAt:        view.LookAt,
		Up:            view.Up,
		VFov:          view.VFov,
		Aperture:      view.Aperture,
		FocusDistance: view.FocusDistance,
		Width:         width,
		Height:        height,
	}
}

// CameraConfigFromTransform places a camera with a local-to-world transform.
// The camera looks down the transform's -Z axis with +Y up.
func CameraConfigFromTransform(m core.Mat4, vfov float64, width, height int) CameraConfig {
	center := m.Point(core.NewVec3(0, 0, 0))
	return CameraConfig{
		Center: center,
		LookAt: m.Point(core.NewVec3(0, 0, -1)),
		Up:     m.Vector(core.NewVec3(0, 1, 0)),
		VFov:   vfov,
		Width:  width,
		Height: height,
	}
}

// ApertureFromFNumber returns the lens diameter for an f-number at the
// given field of view, deriving the focal length from the sensor height.
func ApertureFromFNumber(fNumber, vfov float64) float64 {
	if fNumber <= 0 || math.IsInf(fNumber, 1) {
		return 0
	}
	focal := sensorHeight / (2 * math.Tan(vfov*math.Pi/360))
	return focal / fNumber
}

// Validate reports configurations that cannot produce rays
func (c CameraConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.VFov <= 0 || c.VFov >= 180 {
		return fmt.Errorf("vertical field of view %g out of range (0, 180)", c.VFov)
	}
	if c.Center.Subtract(c.LookAt).IsZero() {
		return fmt.Errorf("camera center and look-at coincide at %v", c.Center)
	}
	if c.Aperture < 0 {
		return fmt.Errorf("negative aperture %g", c.Aperture)
	}
	return nil
}

// viewport is the image plane shared by both camera models
type viewport struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v            core.Vec3 // camera right and up
	width, height   int
}

// newViewport builds an image plane at distance focus in front of the camera
func newViewport(config CameraConfig, focus float64) viewport {
	aspect := float64(config.Width) / float64(config.Height)
	h := math.Tan(config.VFov * math.Pi / 360)
	viewportHeight := 2 * h
	viewportWidth := aspect * viewportHeight

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	if u.IsZero() {
		u, _ = core.OrthonormalBasis(w)
	}
	v := w.Cross(u)

	horizontal := u.Multiply(viewportWidth * focus)
	vertical := v.Multiply(viewportHeight * focus)
	lowerLeftCorner := config.Center.
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w.Multiply(focus))

	return viewport{
		origin:          config.Center,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
		u:               u,
		v:               v,
		width:           config.Width,
		height:          config.Height,
	}
}

// pixelTarget returns a jittered point on the image plane for pixel (x, y)
func (vp viewport) pixelTarget(x, y int, jitter core.Vec2) core.Vec3 {
	s := (float64(x) + jitter.X) / float64(vp.width)
	t := 1 - (float64(y)+jitter.Y)/float64(vp.height)
	return vp.lowerLeftCorner.Add(vp.horizontal.Multiply(s)).Add(vp.vertical.Multiply(t))
}

// PinholeCamera is an ideal pinhole: every ray starts at the camera center
type PinholeCamera struct {
	viewport
}

// NewPinholeCamera creates a pinhole camera
func NewPinholeCamera(config CameraConfig) *PinholeCamera {
	return &PinholeCamera{viewport: newViewport(config, 1)}
}

// GetRay returns a ray through a uniformly jittered point of pixel (x, y)
func (c *PinholeCamera) GetRay(x, y int, sampler core.Sampler) core.Ray {
	target := c.pixelTarget(x, y, sampler.Get2D())
	return core.NewRay(c.origin, target.Subtract(c.origin).Normalize())
}

// ThinLensCamera samples ray origins on a lens disk so that only the plane at
// the focus distance is sharp.
type ThinLensCamera struct {
	viewport
	lensRadius float64
}

// NewThinLensCamera creates a depth of field camera
func NewThinLensCamera(config CameraConfig) *ThinLensCamera {
	focus := config.FocusDistance
	if focus <= 0 {
		focus = config.Center.Subtract(config.LookAt).Length()
	}
	return &ThinLensCamera{
		viewport:   newViewport(config, focus),
		lensRadius: config.Aperture / 2,
	}
}

// GetRay returns a ray from a random lens point through pixel (x, y)
func (c *ThinLensCamera) GetRay(x, y int, sampler core.Sampler) core.Ray {
	target := c.pixelTarget(x, y, sampler.Get2D())
	disk := core.SamplePointInUnitDisk(sampler.Get2D()).Multiply(c.lensRadius)
	origin := c.origin.Add(c.u.Multiply(disk.X)).Add(c.v.Multiply(disk.Y))
	return core.NewRay(origin, target.Subtract(origin).Normalize())
}

// NewCamera picks the thin lens model when the config has an aperture
func NewCamera(config CameraConfig) (Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Aperture > 0 {
		return NewThinLensCamera(config), nil
	}
	return NewPinholeCamera(config), nil
}
