package material

import (
	"math"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdealRefraction_IORPair(t *testing.T) {
	glass := NewDielectric(1.5)

	from, to := glass.iorPair(core.NewVec3(1, 0, 1).Normalize(), core.NewVec3(0, 0, 1))
	assert.Equal(t, 1.0, from)
	assert.Equal(t, 1.5, to)

	from, to = glass.iorPair(core.NewVec3(1, 0, 1).Normalize(), core.NewVec3(0, 0, -1))
	assert.Equal(t, 1.5, from)
	assert.Equal(t, 1.0, to)
}

func TestIdealRefraction_FresnelBounds(t *testing.T) {
	on := core.NewVec3(0, 0, 1)
	for _, pair := range [][2]float64{{1.0, 1.5}, {1.5, 1.0}} {
		for i := 0; i < 100; i++ {
			theta := float64(i) / 100 * math.Pi / 2
			out := core.NewVec3(math.Sin(theta), 0, math.Cos(theta))
			in, ok := out.Refract(on, pair[0]/pair[1])
			if !ok {
				continue
			}
			fr := fresnel(pair[0], pair[1], out, in, on)
			assert.Greater(t, fr, 0.0)
			assert.LessOrEqual(t, fr, 1.0+1e-12)
		}
	}

	// Normal incidence from air into glass reflects 4%
	in, _ := on.Refract(on, 1/1.5)
	assert.InDelta(t, 0.04, fresnel(1, 1.5, on, in, on), 1e-12)
}

func TestIdealRefraction_TotalInternalReflection(t *testing.T) {
	glass := NewDielectric(1.5)
	// Viewer inside the glass at a grazing angle
	n := core.NewVec3(0, 0, 1)
	out := core.NewVec3(math.Sin(1.2), 0, -math.Cos(1.2))
	on := glass.OrientingNormal(out, n)

	s, ok := glass.Sample(out, n, core.NewSeededSampler(1))
	require.True(t, ok)
	assert.Equal(t, 1.0, s.PDF)
	expected := out.Reflect(on)
	assert.InDelta(t, 0, s.Direction.Subtract(expected).Length(), 1e-12)

	throughput := glass.BRDF(out, s.Direction, n).Multiply(math.Abs(s.Direction.Dot(on)) / s.PDF)
	assert.InDelta(t, 1.0, throughput.X, 1e-12)
}

func TestIdealRefraction_SampleBranches(t *testing.T) {
	glass := NewDielectric(1.5)
	n := core.NewVec3(0, 1, 0)
	out := core.NewVec3(1, 1, 0).Normalize()

	reflections, refractions := 0, 0
	sampler := core.NewSeededSampler(42)
	for i := 0; i < 5000; i++ {
		s, ok := glass.Sample(out, n, sampler)
		require.True(t, ok)
		require.InDelta(t, 1.0, s.Direction.Length(), 1e-9)

		throughput := glass.BRDF(out, s.Direction, n).Multiply(math.Abs(s.Direction.Dot(n)) / s.PDF)
		if s.Direction.Y > 0 {
			reflections++
			assert.InDelta(t, 1.0, throughput.X, 1e-9)
		} else {
			refractions++
			assert.InDelta(t, 1/(1.5*1.5), throughput.X, 1e-9)
		}
	}

	// Fresnel reflectance at 45 degrees into glass is about 5%
	ratio := float64(reflections) / 5000
	assert.InDelta(t, 0.05, ratio, 0.015)
	assert.Greater(t, refractions, reflections)
}

func TestIdealRefraction_RoundTripThroughputIsOne(t *testing.T) {
	glass := NewDielectric(1.5)
	n := core.NewVec3(0, 0, 1)
	out := core.NewVec3(0.3, 0, 1).Normalize()

	// Enter the slab...
	on := glass.OrientingNormal(out, n)
	in, ok := out.Refract(on, 1/1.5)
	require.True(t, ok)
	enter := glass.BRDF(out, in, n).Multiply(math.Abs(in.Dot(n)))

	// ...and leave through the opposite face, viewed from inside
	exitOut := in.Negate()
	exitN := core.NewVec3(0, 0, -1)
	exitOn := glass.OrientingNormal(exitOut, exitN)
	exitIn, ok := exitOut.Refract(exitOn, 1.5)
	require.True(t, ok)
	exit := glass.BRDF(exitOut, exitIn, exitN).Multiply(math.Abs(exitIn.Dot(exitN)))

	fr1 := fresnel(1, 1.5, out, in, on)
	fr2 := fresnel(1.5, 1, exitOut, exitIn, exitOn)
	// Radiance scaling cancels, leaving the two transmittances
	assert.InDelta(t, (1-fr1)*(1-fr2), enter.X*exit.X, 1e-9)
}

func TestIdealRefraction_Attenuation(t *testing.T) {
	glass := NewIdealRefraction(core.NewVec3(0.9, 0.5, 1.0), 2.0, 1.5)
	n := core.NewVec3(0, 0, 1)

	outside := glass.Attenuation(core.NewVec3(0, 0, 1), n, 3)
	assert.Equal(t, core.Splat(1), outside)

	inside := glass.Attenuation(core.NewVec3(0, 0, -1), n, 0.5)
	assert.InDelta(t, math.Exp(-0.1*2*0.5), inside.X, 1e-12)
	assert.InDelta(t, math.Exp(-0.5*2*0.5), inside.Y, 1e-12)
	assert.InDelta(t, 1.0, inside.Z, 1e-12)

	var _ Absorber = glass
	assert.True(t, glass.IsDelta())
	assert.Equal(t, 1.0, glass.Weight())
}

func TestIdealRefraction_TransmissionScalesRadiance(t *testing.T) {
	glass := NewDielectric(1.5)
	n := core.NewVec3(0, 0, 1)
	out := core.NewVec3(0.2, 0.1, 1).Normalize()

	on := glass.OrientingNormal(out, n)
	in, ok := out.Refract(on, 1/1.5)
	require.True(t, ok)
	fr := fresnel(1, 1.5, out, in, on)

	// radiance entering the denser medium is compressed by (n_from/n_to)^2
	throughput := glass.BRDF(out, in, n).Multiply(math.Abs(in.Dot(n)))
	assert.InDelta(t, (1-fr)/(1.5*1.5), throughput.X, 1e-12)

	exitOut := in.Negate()
	exitN := core.NewVec3(0, 0, -1)
	exitOn := glass.OrientingNormal(exitOut, exitN)
	exitIn, ok := exitOut.Refract(exitOn, 1.5)
	require.True(t, ok)
	exitFr := fresnel(1.5, 1, exitOut, exitIn, exitOn)
	exit := glass.BRDF(exitOut, exitIn, exitN).Multiply(math.Abs(exitIn.Dot(exitN)))
	assert.InDelta(t, (1-exitFr)*1.5*1.5, exit.X, 1e-12)
}
