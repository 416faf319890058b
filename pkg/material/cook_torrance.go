package material

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
)

// CookTorrance is a microfacet reflector with the Beckmann distribution and
// height-correlated Smith masking-shadowing.
type CookTorrance struct {
	Reflectance core.Vec3
	Roughness   float64
	IOR         float64
}

// NewCookTorrance creates a Cook-Torrance material
func NewCookTorrance(reflectance core.Vec3, roughness, ior float64) *CookTorrance {
	return &CookTorrance{Reflectance: reflectance, Roughness: roughness, IOR: ior}
}

func (c *CookTorrance) alpha() float64 {
	return math.Max(c.Roughness*c.Roughness, 1e-4)
}

// ndf is the Beckmann D(m)
func (c *CookTorrance) ndf(cos float64) float64 {
	if cos <= 0 {
		return 0
	}
	a2 := c.alpha() * c.alpha()
	cos2 := cos * cos
	tan2 := (1 - cos2) / cos2
	return math.Exp(-tan2/a2) / (math.Pi * a2 * cos2 * cos2)
}

// lambda is the Beckmann Smith auxiliary function Λ
func (c *CookTorrance) lambda(cos float64) float64 {
	if cos >= 1 {
		return 0
	}
	tan := math.Sqrt(1-cos*cos) / cos
	a := 1 / (c.alpha() * tan)
	return (math.Erf(a)-1)/2 + math.Exp(-a*a)/(2*a*math.Sqrt(math.Pi))
}

// Emission implements Material
func (c *CookTorrance) Emission() core.Vec3 { return core.Vec3{} }

// OrientingNormal implements Material
func (c *CookTorrance) OrientingNormal(out, normal core.Vec3) core.Vec3 {
	return orientingNormal(out, normal)
}

// BRDF evaluates ρ·F·G2·D / (4·cosθi·cosθo) with G2 = 1/(1+Λ(o)+Λ(i))
func (c *CookTorrance) BRDF(out, in, normal core.Vec3) core.Vec3 {
	on := orientingNormal(out, normal)
	cosI, cosO := in.Dot(on), out.Dot(on)
	if cosI <= 0 || cosO <= 0 {
		return core.Vec3{}
	}
	h := in.Add(out).Normalize()
	f := schlick(f0FromIOR(c.IOR), in.Dot(h))
	g := 1 / (1 + c.lambda(cosO) + c.lambda(cosI))
	d := c.ndf(h.Dot(on))
	return c.Reflectance.Multiply(f * g * d / (4 * cosI * cosO))
}

// Sample draws a Beckmann half vector with tan²θ = -α²·ln(1-u)
func (c *CookTorrance) Sample(out, normal core.Vec3, sampler core.Sampler) (ScatterSample, bool) {
	on := orientingNormal(out, normal)
	u := sampler.Get2D()
	a := c.alpha()
	tan2 := -a * a * math.Log(1-u.Y)
	cos := 1 / math.Sqrt(1+tan2)
	h := core.FromLocal(on, cos, 2*math.Pi*u.X)
	return reflectHalfVector(out, on, h, c.ndf(cos)*cos)
}

// Weight implements Material
func (c *CookTorrance) Weight() float64 { return c.Reflectance.MaxComponent() }

// IsDelta implements Material
func (c *CookTorrance) IsDelta() bool { return false }
