package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// IdealRefraction is a smooth dielectric boundary (glass, water). Its BRDF is a
// pair of Dirac deltas on the mirror and refracted directions, chosen between
// by Fresnel-weighted Russian roulette.
type IdealRefraction struct {
	Reflectance core.Vec3
	Absorbtance float64 // interior absorption per unit length
	IOR         float64
}

// NewDielectric creates a clear dielectric with the given index of refraction
func NewDielectric(ior float64) *IdealRefraction {
	return &IdealRefraction{Reflectance: core.Splat(1), IOR: ior}
}

// NewIdealRefraction creates a tinted, optionally absorbing dielectric
func NewIdealRefraction(reflectance core.Vec3, absorbtance, ior float64) *IdealRefraction {
	return &IdealRefraction{Reflectance: reflectance, Absorbtance: absorbtance, IOR: ior}
}

// iorPair returns (n_from, n_to) for light crossing toward the viewer at out.
// out on the normal's side means the viewer is outside the object.
func (d *IdealRefraction) iorPair(out, normal core.Vec3) (float64, float64) {
	if out.Dot(normal) > 0 {
		return 1.0, d.IOR
	}
	return d.IOR, 1.0
}

// fresnel is the exact unpolarized reflectance for the viewer direction out and
// the refracted direction in, both relative to the oriented normal on.
func fresnel(from, to float64, out, in, on core.Vec3) float64 {
	cos1 := out.Dot(on)
	cos2 := in.Dot(on.Negate())
	rs := (from*cos1 - to*cos2) / (from*cos1 + to*cos2)
	rp := (from*cos2 - to*cos1) / (from*cos2 + to*cos1)
	return (rs*rs + rp*rp) / 2
}

// Emission implements Material
func (d *IdealRefraction) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (d *IdealRefraction) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF returns the delta-scaled value for in, which is assumed to be one of the
// two directions Sample can produce. The 1/|cos| factor cancels the integrator's
// cosine so the path throughput becomes reflectance times the branch weight.
func (d *IdealRefraction) BRDF(out, in, normal core.Vec3) core.Vec3 {
	cosIn := math.Abs(in.Dot(normal))
	if cosIn < 1e-12 {
		return core.Vec3{}
	}
	on := orientingNormal(out, normal)
	from, to := d.iorPair(out, normal)
	refracted, ok := out.Refract(on, from/to)
	if !ok {
		return d.Reflectance.Multiply(1 / cosIn)
	}
	fr := fresnel(from, to, out, refracted, on)
	if in.Dot(on) > 0 {
		return d.Reflectance.Multiply(fr / cosIn)
	}
	// transmitted radiance is compressed by (n_from/n_to)^2
	ratio := from / to
	return d.Reflectance.Multiply((1 - fr) * ratio * ratio / cosIn)
}

// Sample reflects with probability Fr and refracts otherwise
func (d *IdealRefraction) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	from, to := d.iorPair(out, normal)
	refracted, ok := out.Refract(on, from/to)
	if !ok {
		return ScatterSample{Direction: out.Reflect(on), PDF: 1}, true
	}
	fr := fresnel(from, to, out, refracted, on)
	if sampler.Get1D() < fr {
		return ScatterSample{Direction: out.Reflect(on), PDF: fr}, true
	}
	return ScatterSample{Direction: refracted, PDF: 1 - fr}, true
}

// Attenuation applies Beer-Lambert absorption to a segment travelled inside
func (d *IdealRefraction) Attenuation(out, normal core.Vec3, distance float64) core.Vec3 {
	if d.Absorbtance <= 0 || out.Dot(normal) >= 0 {
		return core.Splat(1)
	}
	return core.Splat(1).Subtract(d.Reflectance).Multiply(-d.Absorbtance * distance).Exp()
}

// Weight is always one: specular bounces are never cut short by roulette
// before the depth limit starts attenuating survival.
func (d *IdealRefraction) Weight() float64 { return 1 }

// IsDelta implements Material
func (d *IdealRefraction) IsDelta() bool { return true }
