package integrator

import (
	"math"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// shadowTolerance is the relative distance mismatch accepted when checking
// that a shadow ray reached the sampled light point
const shadowTolerance = 1e-4

// PathTracer implements unidirectional path tracing with Russian roulette
// termination and optional next event estimation.
type PathTracer struct {
	scene *scene.Scene
	nee   bool
}

// NewPathTracer creates a path tracer. With nee set, Radiance samples the
// emitters directly at every non-specular vertex.
func NewPathTracer(s *scene.Scene, nee bool) *PathTracer {
	return &PathTracer{scene: s, nee: nee}
}

// Radiance implements Integrator
func (pt *PathTracer) Radiance(ray core.Ray, sampler core.Sampler) core.Vec3 {
	if pt.nee {
		return pt.RadianceNEE(ray, sampler)
	}
	return pt.trace(ray, sampler, false)
}

// RadianceNEE estimates radiance combining light sampling with BRDF sampling.
// Emission found by a BRDF-sampled ray is dropped whenever the vertex that
// spawned it already sampled the lights.
func (pt *PathTracer) RadianceNEE(ray core.Ray, sampler core.Sampler) core.Vec3 {
	return pt.trace(ray, sampler, true)
}

// trace follows one path iteratively, carrying the product of BRDF, cosine
// and inverse pdf/survival probability in throughput.
func (pt *PathTracer) trace(ray core.Ray, sampler core.Sampler, nee bool) core.Vec3 {
	config := pt.scene.Config
	radiance := core.Vec3{}
	throughput := core.Splat(1)
	suppressEmission := false

	for depth := 0; ; depth++ {
		hit, ok := pt.scene.Intersect(ray)
		if !ok {
			return radiance.Add(throughput.MultiplyVec(pt.scene.Sky.Radiance(ray)))
		}

		out := ray.Direction.Negate().Normalize()
		mat := hit.Material

		// Light travelling inside an absorbing medium
		if absorber, ok := mat.(material.Absorber); ok {
			throughput = throughput.MultiplyVec(absorber.Attenuation(out, hit.Normal, hit.Distance*ray.Direction.Length()))
		}

		emission := mat.Emission()
		emissive := !emission.IsZero()
		if emissive && out.Dot(hit.Normal) > 0 && !suppressEmission && !(config.NoDirectEmitter && depth == 0) {
			radiance = radiance.Add(throughput.MultiplyVec(emission))
		}

		p := russianRoulette(mat.Weight(), depth, config)
		if p != 1 && sampler.Get1D() >= p {
			return radiance
		}

		normal := mat.OrientingNormal(out, hit.Normal)

		sampledLights := false
		if nee && !emissive && !mat.IsDelta() && pt.scene.HasEmitters() {
			sampledLights = true
			direct := pt.directLight(hit.Point, out, hit.Normal, normal, mat, sampler)
			radiance = radiance.Add(throughput.MultiplyVec(direct).Multiply(1 / p))
		}

		sample, ok := mat.Sample(out, hit.Normal, sampler)
		if !ok || !(sample.PDF > 0) {
			return radiance
		}
		brdf := mat.BRDF(out, sample.Direction, hit.Normal)
		cos := math.Abs(sample.Direction.Dot(normal))
		throughput = throughput.MultiplyVec(brdf).Multiply(cos / (sample.PDF * p))
		if throughput.IsZero() || !throughput.IsFinite() {
			return radiance
		}

		ray = core.NewRay(hit.Point, sample.Direction)
		suppressEmission = sampledLights
	}
}

// russianRoulette returns the probability of continuing a path. The first
// MinDepth bounces always continue unless the surface absorbs everything,
// and past DepthLimit the probability halves at every bounce.
func russianRoulette(weight float64, depth int, config scene.Config) float64 {
	p := math.Min(1, weight)
	if depth > config.DepthLimit {
		p *= math.Pow(0.5, float64(depth-config.DepthLimit))
	}
	if depth <= config.MinDepth && p > 0 {
		p = 1
	}
	return p
}

// directLight samples one point on the emitters by area and returns the
// unoccluded contribution BRDF · Le · G / pdf at a surface point. oriented is
// the geometric normal flipped toward out.
func (pt *PathTracer) directLight(point, out, normal, oriented core.Vec3, mat material.Material, sampler core.Sampler) core.Vec3 {
	light, ok := pt.scene.SampleEmitter(sampler)
	if !ok {
		return core.Vec3{}
	}

	toLight := light.Point.Subtract(point)
	dist := toLight.Length()
	if dist == 0 {
		return core.Vec3{}
	}
	in := toLight.Multiply(1 / dist)

	surfaceCos := in.Dot(oriented)
	if surfaceCos <= 0 {
		return core.Vec3{}
	}

	blocker, ok := pt.scene.Intersect(core.NewRay(point, in))
	if !ok || math.Abs(blocker.Distance-dist) >= shadowTolerance*math.Max(1, dist) {
		return core.Vec3{}
	}

	// Only the front face of a light emits
	lightCos := in.Negate().Dot(blocker.Normal)
	if lightCos <= 0 {
		return core.Vec3{}
	}

	brdf := mat.BRDF(out, in, normal)
	g := surfaceCos * lightCos / (dist * dist)
	return brdf.MultiplyVec(blocker.Material.Emission()).Multiply(g / light.PDF)
}
