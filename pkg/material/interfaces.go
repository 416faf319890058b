package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Material describes how a surface emits and scatters light.
//
// Directions follow one convention everywhere: out points from the surface
// toward the viewer (the negated ray direction), in points from the surface
// toward where light arrives from. Both are unit vectors.
type Material interface {
	// Emission returns the emitted radiance; zero for non-emitters
	Emission() core.Vec3

	// OrientingNormal returns the geometric normal flipped onto the side of out
	OrientingNormal(out, normal core.Vec3) core.Vec3

	// BRDF evaluates the reflectance for the pair of directions
	BRDF(out, in, normal core.Vec3) core.Vec3

	// Sample draws an incoming direction from the material's importance
	// distribution. ok is false when no valid direction was produced.
	Sample(out, normal core.Vec3, sampler core.Sampler) (sample ScatterSample, ok bool)

	// Weight is the Russian roulette survival proxy, the largest reflectance channel
	Weight() float64

	// IsDelta reports a Dirac BRDF that light sampling cannot evaluate
	IsDelta() bool
}

// Absorber is implemented by materials whose interior attenuates light
// travelling through it.
type Absorber interface {
	// Attenuation returns the transmittance for a path segment of the given
	// length that ended at a surface seen from out.
	Attenuation(out, normal core.Vec3, distance float64) core.Vec3
}

// ScatterSample is a sampled incoming direction and its solid angle density
type ScatterSample struct {
	Direction core.Vec3
	PDF       float64
}

// orientingNormal flips normal to the hemisphere containing out
func orientingNormal(out, normal core.Vec3) core.Vec3 {
	if normal.Dot(out) < 0 {
		return normal.Negate()
	}
	return normal
}

// schlick is Schlick's approximation of Fresnel reflectance at normal incidence f0
func schlick(f0, cos float64) float64 {
	return f0 + (1-f0)*math.Pow(1-math.Max(0, cos), 5)
}

// f0FromIOR returns the normal incidence reflectance of a dielectric in vacuum
func f0FromIOR(ior float64) float64 {
	r := (1 - ior) / (1 + ior)
	return r * r
}
