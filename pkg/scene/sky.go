package scene

import (
	"image"
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Sky gives the radiance arriving along rays that escape the scene
type Sky interface {
	Radiance(ray core.Ray) core.Vec3
}

// UniformSky emits the same radiance in every direction
type UniformSky struct {
	Emission core.Vec3
}

// NewUniformSky creates a constant sky
func NewUniformSky(emission core.Vec3) *UniformSky {
	return &UniformSky{Emission: emission}
}

// Radiance implements Sky
func (s *UniformSky) Radiance(core.Ray) core.Vec3 {
	return s.Emission
}

// SimpleSky blends from the horizon color to the meridian color by |dir.y|
type SimpleSky struct {
	Meridian core.Vec3
	Horizon  core.Vec3
}

// NewSimpleSky creates a two-color gradient sky
func NewSimpleSky(meridian, horizon core.Vec3) *SimpleSky {
	return &SimpleSky{Meridian: meridian, Horizon: horizon}
}

// Radiance implements Sky
func (s *SimpleSky) Radiance(ray core.Ray) core.Vec3 {
	weight := math.Abs(ray.Direction.Normalize().Y)
	return s.Meridian.Multiply(weight).Add(s.Horizon.Multiply(1 - weight))
}

// ImageSky looks up an equirectangular (latitude-longitude) environment map
type ImageSky struct {
	width, height int
	pixels        []core.Vec3 // linear radiance, row-major from the zenith down
	rotation      float64     // longitude offset in radians
}

// NewImageSky converts img to linear radiance using the given display gamma
// and scales it by intensity. rotation turns the map around +Y, in degrees.
func NewImageSky(img image.Image, gamma, intensity, rotation float64) *ImageSky {
	bounds := img.Bounds()
	sky := &ImageSky{
		width:    bounds.Dx(),
		height:   bounds.Dy(),
		pixels:   make([]core.Vec3, bounds.Dx()*bounds.Dy()),
		rotation: rotation * math.Pi / 180,
	}
	for y := 0; y < sky.height; y++ {
		for x := 0; x < sky.width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := core.NewVec3(float64(r), float64(g), float64(b)).Multiply(1.0 / 0xffff)
			if gamma > 0 && gamma != 1 {
				c = core.NewVec3(math.Pow(c.X, gamma), math.Pow(c.Y, gamma), math.Pow(c.Z, gamma))
			}
			sky.pixels[y*sky.width+x] = c.Multiply(intensity)
		}
	}
	return sky
}

// Radiance implements Sky
func (s *ImageSky) Radiance(ray core.Ray) core.Vec3 {
	if len(s.pixels) == 0 {
		return core.Vec3{}
	}
	d := ray.Direction.Normalize()
	theta := math.Acos(math.Max(-1, math.Min(1, d.Y)))
	phi := math.Atan2(d.Z, d.X) + s.rotation

	u := phi / (2 * math.Pi)
	u -= math.Floor(u)
	v := theta / math.Pi

	x := min(int(u*float64(s.width)), s.width-1)
	y := min(int(v*float64(s.height)), s.height-1)
	return s.pixels[y*s.width+x]
}
