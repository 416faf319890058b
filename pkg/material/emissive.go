package material

import (
	"github.com/df07/go-pathtracer/pkg/core"
)

// Emissive turns any material into an area light. Scattering is delegated
// to the wrapped material, so a light can still reflect.
type Emissive struct {
	Material
	Radiance core.Vec3
}

// NewEmissive wraps base with the given emitted radiance.
// A nil base gives a black diffuse emitter.
func NewEmissive(base Material, radiance core.Vec3) *Emissive {
	if base == nil {
		base = NewLambertian(core.Vec3{})
	}
	return &Emissive{Material: base, Radiance: radiance}
}

// Emission returns the configured radiance
func (e *Emissive) Emission() core.Vec3 {
	return e.Radiance
}
