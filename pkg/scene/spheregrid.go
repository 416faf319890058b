package scene

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
)

// oklchToRGB converts OKLCH (lightness 0-1, chroma, hue in degrees) to clamped linear RGB
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b
	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// gridMaterial cycles through the glossy reflectance models
func gridMaterial(index int, color core.Vec3, roughness float64) material.Material {
	switch index % 4 {
	case 0:
		return material.NewPhong(color, 2/(roughness*roughness))
	case 1:
		return material.NewBlinnPhong(color, 2/(roughness*roughness))
	case 2:
		return material.NewGGX(color, roughness, 1.5)
	default:
		return material.NewCookTorrance(color, roughness, 1.5)
	}
}

// NewSphereGridScene creates a 20x20 grid of small spheres lit by a large sphere light
func NewSphereGridScene() (*Scene, View, error) {
	view := View{
		Center:      core.NewVec3(4.5, 6, 18),
		LookAt:      core.NewVec3(4.5, 0.8, 4.5),
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		Aperture:    0.02,
		AspectRatio: 16.0 / 9.0,
	}

	shapes := []geometry.Shape{
		geometry.NewSphere(core.NewVec3(20, 25, 20), 8, material.NewEmissive(nil, core.NewVec3(12.0, 11.5, 10.0))),
	}
	shapes = append(shapes, NewGroundQuad(core.NewVec3(4.5, 0, 4.5), 200, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))...)

	const gridSize = 20
	targetArea := 9.0
	spacing := targetArea / float64(gridSize-1)
	radius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	// Hue varies across X, chroma across Z
	baseLightness := 0.65
	minChroma, maxChroma := 0.05, 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := float64(i)*spacing - targetArea/2.0 + 4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5

			hue := float64(i) / float64(gridSize-1) * 360.0
			chroma := minChroma + float64(j)/float64(gridSize-1)*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			roughness := 0.1 + 0.1*float64((i+j)%3)

			mat := gridMaterial(i*gridSize+j, oklchToRGB(lightness, chroma, hue), roughness)
			shapes = append(shapes, geometry.NewSphere(core.NewVec3(x, radius, z), radius, mat))
		}
	}

	sky := NewSimpleSky(core.NewVec3(0.5, 0.7, 1.0), core.NewVec3(1.0, 1.0, 1.0))
	s, err := NewScene(shapes, sky, DefaultConfig())
	return s, view, err
}
