package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Metal is a perfect mirror tinted by Albedo
type Metal struct {
	Albedo core.Vec3
}

// NewMetal creates a new mirror material
func NewMetal(albedo core.Vec3) *Metal {
	return &Metal{Albedo: albedo}
}

// Emission implements Material
func (m *Metal) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (m *Metal) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF is the delta-scaled albedo/|cos| for the mirror direction
func (m *Metal) BRDF(out, in, normal core.Vec3) core.Vec3 {
	on := orientingNormal(out, normal)
	cos := in.Dot(on)
	if cos < 1e-12 {
		return core.Vec3{}
	}
	return m.Albedo.Multiply(1 / math.Abs(cos))
}

// Sample returns the mirror direction with unit probability
func (m *Metal) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	return ScatterSample{Direction: out.Reflect(on), PDF: 1}, true
}

// Weight implements Material
func (m *Metal) Weight() float64 { return 1 }

// IsDelta implements Material
func (m *Metal) IsDelta() bool { return true }
