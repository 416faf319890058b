package integrator

import (
	"fmt"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// Integrator estimates the radiance arriving along a camera ray
type Integrator interface {
	// Radiance returns one Monte Carlo sample of the radiance along ray.
	// Implementations are safe for concurrent use with distinct samplers.
	Radiance(ray core.Ray, sampler core.Sampler) core.Vec3
}

// Names of the available integrators
const (
	PathTracing = "pt"
	NextEvent   = "nee"
	Normal      = "normal"
	Depth       = "depth"
)

// Default is used when no integrator is configured
const Default = NextEvent

var constructors = map[string]func(*scene.Scene) Integrator{
	PathTracing: func(s *scene.Scene) Integrator { return NewPathTracer(s, false) },
	NextEvent:   func(s *scene.Scene) Integrator { return NewPathTracer(s, true) },
	Normal:      func(s *scene.Scene) Integrator { return NewNormalIntegrator(s) },
	Depth:       func(s *scene.Scene) Integrator { return NewDepthIntegrator(s) },
}

// New creates the integrator with the given name for s. An empty name
// selects Default.
func New(name string, s *scene.Scene) (Integrator, error) {
	if name == "" {
		name = Default
	}
	constructor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (available: %v)", name, Names())
	}
	return constructor(s), nil
}

// Names lists the registered integrators
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
