package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Emission implements Material
func (l *Lambertian) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (l *Lambertian) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF is albedo/π on the viewer's side of the surface
func (l *Lambertian) BRDF(out, in, normal core.Vec3) core.Vec3 {
	on := orientingNormal(out, normal)
	if in.Dot(on) <= 0 {
		return core.Vec3{}
	}
	return l.Albedo.Multiply(1.0 / math.Pi)
}

// Sample draws a cosine-weighted direction, pdf = cos/π
func (l *Lambertian) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	in := core.SampleCosineHemisphere(on, sampler.Get2D())
	cos := in.Dot(on)
	if cos <= 0 {
		return ScatterSample{}, false
	}
	return ScatterSample{Direction: in, PDF: cos / math.Pi}, true
}

// Weight implements Material
func (l *Lambertian) Weight() float64 { return l.Albedo.MaxComponent() }

// IsDelta implements Material
func (l *Lambertian) IsDelta() bool { return false }
