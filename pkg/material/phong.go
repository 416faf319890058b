package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Phong is the energy-normalized Phong lobe around the mirror direction
type Phong struct {
	Reflectance core.Vec3
	Alpha       float64 // specular exponent
}

// NewPhong creates a Phong material
func NewPhong(reflectance core.Vec3, alpha float64) *Phong {
	return &Phong{Reflectance: reflectance, Alpha: alpha}
}

// Emission implements Material
func (p *Phong) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (p *Phong) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF is ρ(α+2)/(2π)·cos^α between in and the mirror of out
func (p *Phong) BRDF(out, in, normal core.Vec3) core.Vec3 {
	on := orientingNormal(out, normal)
	if in.Dot(on) <= 0 {
		return core.Vec3{}
	}
	cos := out.Reflect(on).Dot(in)
	if cos <= 0 {
		return core.Vec3{}
	}
	return p.Reflectance.Multiply((p.Alpha + 2) / (2 * math.Pi) * math.Pow(cos, p.Alpha))
}

// Sample draws from the cos^α lobe around the mirror direction
func (p *Phong) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	in, cos := core.SamplePowerCosine(out.Reflect(on), p.Alpha, sampler.Get2D())
	if in.Dot(on) <= 0 {
		return ScatterSample{}, false
	}
	pdf := core.PowerCosinePDF(p.Alpha, cos)
	if pdf <= 0 {
		return ScatterSample{}, false
	}
	return ScatterSample{Direction: in, PDF: pdf}, true
}

// Weight implements Material
func (p *Phong) Weight() float64 { return p.Reflectance.MaxComponent() }

// IsDelta implements Material
func (p *Phong) IsDelta() bool { return false }
