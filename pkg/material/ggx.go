package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// GGX is a Torrance-Sparrow microfacet reflector with the GGX (Trowbridge-Reitz)
// normal distribution, separable Smith shadowing and Schlick Fresnel.
type GGX struct {
	Reflectance core.Vec3
	Roughness   float64
	IOR         float64
}

// NewGGX creates a GGX material
func NewGGX(reflectance core.Vec3, roughness, ior float64) *GGX {
	return &GGX{Reflectance: reflectance, Roughness: roughness, IOR: ior}
}

func (g *GGX) alpha() float64 {
	return math.Max(g.Roughness*g.Roughness, 1e-4)
}

// ndf is D(m) for a microfacet normal at cos from the macro normal
func (g *GGX) ndf(cos float64) float64 {
	if cos <= 0 {
		return 0
	}
	a2 := g.alpha() * g.alpha()
	x := (a2-1)*cos*cos + 1
	return a2 / (math.Pi * x * x)
}

// g1 is the Smith masking term for a direction at cos from the normal
func (g *GGX) g1(cos float64) float64 {
	if cos <= 0 {
		return 0
	}
	a2 := g.alpha() * g.alpha()
	tan2 := 1/(cos*cos) - 1
	return 2 / (1 + math.Sqrt(1+a2*tan2))
}

// Emission implements Material
func (g *GGX) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (g *GGX) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF evaluates ρ·F·G·D / (4·cosθi·cosθo)
func (g *GGX) BRDF(out, in, normal core.Vec3) core.Vec3 {
	on := orientingNormal(out, normal)
	cosI, cosO := in.Dot(on), out.Dot(on)
	if cosI <= 0 || cosO <= 0 {
		return core.Vec3{}
	}
	h := in.Add(out).Normalize()
	f := schlick(f0FromIOR(g.IOR), in.Dot(h))
	shadowing := g.g1(cosI) * g.g1(cosO)
	d := g.ndf(h.Dot(on))
	return g.Reflectance.Multiply(f * shadowing * d / (4 * cosI * cosO))
}

// Sample draws a half vector with tanθ = α·sqrt(u/(1-u)) and reflects out about it
func (g *GGX) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	u := sampler.Get2D()
	tan := g.alpha() * math.Sqrt(u.Y/(1-u.Y))
	cos := 1 / math.Sqrt(1+tan*tan)
	h := core.FromLocal(on, cos, 2*math.Pi*u.X)
	return reflectHalfVector(out, on, h, g.ndf(cos)*cos)
}

// Weight implements Material
func (g *GGX) Weight() float64 { return g.Reflectance.MaxComponent() }

// IsDelta implements Material
func (g *GGX) IsDelta() bool { return false }

// reflectHalfVector turns a sampled microfacet normal h with density pdfH
// (over half vectors) into an incoming direction and its solid angle density.
func reflectHalfVector(out, on, h core.Vec3, pdfH float64) (ScatterSample, bool) {
	oh := out.Dot(h)
	if oh <= 0 {
		return ScatterSample{}, false
	}
	in := out.Reflect(h)
	if in.Dot(on) <= 0 {
		return ScatterSample{}, false
	}
	pdf := pdfH / (4 * oh)
	if pdf <= 0 || math.IsNaN(pdf) || math.IsInf(pdf, 0) {
		return ScatterSample{}, false
	}
	return ScatterSample{Direction: in, PDF: pdf}, true
}
