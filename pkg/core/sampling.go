package core

import (
	"math"
	"math/rand"
)

// Epsilon is the minimum ray parameter accepted as a hit; it rejects
// self-intersection of rays spawned on a surface.
const Epsilon = 1e-4

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own random stream
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// OrthonormalBasis builds two unit tangents u, v such that (u, v, w) is right handed.
// w must be a unit vector.
func OrthonormalBasis(w Vec3) (Vec3, Vec3) {
	var helper Vec3
	if math.Abs(w.X) > 0.1 {
		helper = NewVec3(0, 1, 0)
	} else {
		helper = NewVec3(1, 0, 0)
	}
	u := helper.Cross(w).Normalize()
	v := w.Cross(u)
	return u, v
}

// FromLocal maps spherical coordinates around w into world space
func FromLocal(w Vec3, cosTheta, phi float64) Vec3 {
	u, v := OrthonormalBasis(w)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	return u.Multiply(sinTheta * math.Cos(phi)).
		Add(v.Multiply(sinTheta * math.Sin(phi))).
		Add(w.Multiply(cosTheta))
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	phi := 2.0 * math.Pi * sample.X
	cosTheta := math.Sqrt(1.0 - sample.Y)
	return FromLocal(normal, cosTheta, phi)
}

// SamplePowerCosine draws a direction around axis with density
// (exponent+1)/(2π) cos^exponent θ. The cosine to the axis is returned alongside.
func SamplePowerCosine(axis Vec3, exponent float64, sample Vec2) (Vec3, float64) {
	phi := 2.0 * math.Pi * sample.X
	cosTheta := math.Pow(sample.Y, 1.0/(exponent+1.0))
	return FromLocal(axis, cosTheta, phi), cosTheta
}

// PowerCosinePDF is the density of SamplePowerCosine for a direction at cosTheta from the axis
func PowerCosinePDF(exponent, cosTheta float64) float64 {
	if cosTheta <= 0 {
		return 0
	}
	return (exponent + 1.0) / (2.0 * math.Pi) * math.Pow(cosTheta, exponent)
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SampleUniformTriangle returns barycentric weights (b0, b1, b2) uniformly distributed over a triangle
func SampleUniformTriangle(sample Vec2) (float64, float64, float64) {
	su := math.Sqrt(sample.X)
	b0 := 1 - su
	b1 := sample.Y * su
	return b0, b1, 1 - b0 - b1
}

// SamplePointInUnitDisk generates a random point in a unit disk using concentric mapping
// This avoids rejection sampling by mapping a square uniformly to a disk
func SamplePointInUnitDisk(sample Vec2) Vec3 {
	uOffset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec3(0, 0, 0)
	}

	var theta, r float64
	if math.Abs(uOffset.X) > math.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math.Pi/2 - math.Pi/4*(uOffset.X/uOffset.Y)
	}

	return NewVec3(r*math.Cos(theta), r*math.Sin(theta), 0)
}
