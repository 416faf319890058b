package scene

import (
	"fmt"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
)

// View is the default viewpoint shipped with a built-in scene
type View struct {
	Center        core.Vec3
	LookAt        core.Vec3
	Up            core.Vec3
	VFov          float64 // vertical field of view in degrees
	Aperture      float64 // lens diameter, 0 for a pinhole
	FocusDistance float64 // 0 focuses on LookAt
	AspectRatio   float64
}

// Builtin describes a scene compiled into the binary
type Builtin struct {
	ID          string
	Name        string
	Description string
	New         func() (*Scene, View, error)
}

var builtins = map[string]Builtin{
	"cornell-box": {
		ID:          "cornell-box",
		Name:        "Cornell Box",
		Description: "Cornell box with a mirror and a glass sphere under an area light",
		New:         NewCornellScene,
	},
	"default": {
		ID:          "default",
		Name:        "Default Scene",
		Description: "Spheres of several materials on a ground quad under a gradient sky",
		New:         NewDefaultScene,
	},
	"sphere-grid": {
		ID:          "sphere-grid",
		Name:        "Sphere Grid",
		Description: "20x20 grid of glossy spheres cycling through every reflectance model",
		New:         NewSphereGridScene,
	},
	"triangle-mesh": {
		ID:          "triangle-mesh",
		Name:        "Triangle Meshes",
		Description: "Box, pyramid and icosahedron meshes under two sphere lights",
		New:         NewTriangleMeshScene,
	},
}

// LoadBuiltin builds the built-in scene with the given id
func LoadBuiltin(id string) (*Scene, View, error) {
	b, ok := builtins[id]
	if !ok {
		return nil, View{}, fmt.Errorf("unknown built-in scene %q", id)
	}
	return b.New()
}

// Builtins returns all built-in scenes ordered by id
func Builtins() []Builtin {
	list := make([]Builtin, 0, len(builtins))
	for _, b := range builtins {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
