package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// BlinnPhong is the normalized Blinn-Phong lobe on the half vector
type BlinnPhong struct {
	Reflectance core.Vec3
	Alpha       float64 // specular exponent
}

// NewBlinnPhong creates a Blinn-Phong material
func NewBlinnPhong(reflectance core.Vec3, alpha float64) *BlinnPhong {
	return &BlinnPhong{Reflectance: reflectance, Alpha: alpha}
}

// Emission implements Material
func (b *BlinnPhong) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (b *BlinnPhong) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF evaluates ρ(α+2)(α+4)/(8π(2^(-α/2)+α))·cos^α(h·n)
func (b *BlinnPhong) BRDF(out, in, normal core.Vec3) core.Vec3 {
	on := orientingNormal(out, normal)
	if in.Dot(on) <= 0 {
		return core.Vec3{}
	}
	h := in.Add(out).Normalize()
	cos := h.Dot(on)
	if cos <= 0 {
		return core.Vec3{}
	}
	a := b.Alpha
	norm := (a + 2) * (a + 4) / (8 * math.Pi * (math.Pow(2, -a/2) + a))
	return b.Reflectance.Multiply(norm * math.Pow(cos, a))
}

// Sample draws the half vector from a cos^α lobe about the normal and
// reflects out about it. The half vector density is converted to a
// density over in with the 1/(4·out·h) Jacobian.
func (b *BlinnPhong) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	h, cos := core.SamplePowerCosine(on, b.Alpha, sampler.Get2D())
	oh := out.Dot(h)
	if oh <= 0 {
		return ScatterSample{}, false
	}
	in := out.Reflect(h)
	if in.Dot(on) <= 0 {
		return ScatterSample{}, false
	}
	pdf := core.PowerCosinePDF(b.Alpha, cos) / (4 * oh)
	if pdf <= 0 {
		return ScatterSample{}, false
	}
	return ScatterSample{Direction: in, PDF: pdf}, true
}

// Weight implements Material
func (b *BlinnPhong) Weight() float64 { return b.Reflectance.MaxComponent() }

// IsDelta implements Material
func (b *BlinnPhong) IsDelta() bool { return false }
