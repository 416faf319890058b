package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/log"
)

const (
	// DefaultMinDepth is the number of bounces always traced before Russian roulette starts
	DefaultMinDepth = 5
	// DefaultDepthLimit is the depth past which survival halves at every bounce
	DefaultDepthLimit = 64
)

var (
	// ErrNoShapes is returned when a scene is built without geometry
	ErrNoShapes = errors.New("scene has no shapes")
	// ErrMissingMaterial is returned when a shape carries no material
	ErrMissingMaterial = errors.New("shape has no material")
	// ErrNoEmitters is returned when light sampling is required but nothing emits
	ErrNoEmitters = errors.New("scene has no emissive shapes")
)

var logger = log.New("scene")

// Config holds the path termination settings shared by every integrator
type Config struct {
	MinDepth        int  // bounces traced unconditionally
	DepthLimit      int  // depth after which survival probability decays
	NoDirectEmitter bool // hide emitters seen directly by the camera
	RequireEmitters bool // fail validation when no shape emits
}

// DefaultConfig returns the standard termination settings
func DefaultConfig() Config {
	return Config{MinDepth: DefaultMinDepth, DepthLimit: DefaultDepthLimit}
}

// Scene contains all the elements needed for rendering. It is read-only once
// built and may be shared between goroutines.
type Scene struct {
	Shapes   []geometry.Shape
	Emitters []geometry.Shape // shapes with non-zero emission and area
	Sky      Sky
	Config   Config

	bvh            *geometry.BVH
	emitterSampler *core.WeightedSampler
}

// NewScene validates shapes, builds the BVH and indexes emitters by area.
// A nil sky is treated as black.
func NewScene(shapes []geometry.Shape, sky Sky, config Config) (*Scene, error) {
	if sky == nil {
		sky = NewUniformSky(core.Vec3{})
	}
	s := &Scene{Shapes: shapes, Sky: sky, Config: config}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	s.bvh = geometry.NewBVH(shapes)

	var areas []float64
	for _, shape := range shapes {
		if !isEmitter(shape) {
			continue
		}
		s.Emitters = append(s.Emitters, shape)
		areas = append(areas, shape.Area())
	}
	s.emitterSampler = core.NewWeightedSampler(areas)

	stats := s.bvh.Stats()
	logger.Debugf("built scene: %d shapes, %d emitters (area %.4g), BVH %d nodes, depth %d in %v",
		len(shapes), len(s.Emitters), s.EmitterArea(), stats.Nodes, stats.MaxDepth, stats.BuildTime)
	return s, nil
}

// Validate checks that the scene can be rendered
func (s *Scene) Validate() error {
	if len(s.Shapes) == 0 {
		return ErrNoShapes
	}
	for i, shape := range s.Shapes {
		if shape.Material() == nil {
			return fmt.Errorf("shape %d: %w", i, ErrMissingMaterial)
		}
		if !shape.BoundingBox().IsValid() {
			return fmt.Errorf("shape %d: invalid bounds %v", i, shape.BoundingBox())
		}
	}
	if s.Config.MinDepth < 0 {
		return fmt.Errorf("min depth must not be negative, got %d", s.Config.MinDepth)
	}
	if s.Config.DepthLimit < s.Config.MinDepth {
		return fmt.Errorf("depth limit %d is below min depth %d", s.Config.DepthLimit, s.Config.MinDepth)
	}
	if s.Config.RequireEmitters && !slices.ContainsFunc(s.Shapes, isEmitter) {
		return ErrNoEmitters
	}
	return nil
}

func isEmitter(shape geometry.Shape) bool {
	return !shape.Material().Emission().IsZero() && shape.Area() > 0
}

// Intersect returns the nearest hit beyond the self-intersection epsilon
func (s *Scene) Intersect(ray core.Ray) (geometry.Intersection, bool) {
	return s.bvh.NearestHit(ray, core.Epsilon, math.Inf(1))
}

// HasEmitters reports whether any shape can be sampled as a light
func (s *Scene) HasEmitters() bool {
	return len(s.Emitters) > 0
}

// EmitterArea is the summed area of all emitters
func (s *Scene) EmitterArea() float64 {
	return s.emitterSampler.Total()
}

// SampleEmitter picks a point uniformly by area over all emitters. The
// returned PDF is 1/EmitterArea in the area measure. ok is false when the
// scene has no emitters.
func (s *Scene) SampleEmitter(sampler core.Sampler) (geometry.SurfaceSample, bool) {
	idx, _ := s.emitterSampler.Pick(sampler.Get1D())
	if idx < 0 {
		return geometry.SurfaceSample{}, false
	}
	sample := s.Emitters[idx].Sample(sampler)
	sample.PDF = 1 / s.EmitterArea()
	return sample, true
}

// BVHStats returns statistics of the acceleration structure
func (s *Scene) BVHStats() geometry.BVHStats {
	return s.bvh.Stats()
}

// BoundingBox returns the bounds of all geometry
func (s *Scene) BoundingBox() core.AABB {
	return s.bvh.BoundingBox()
}
