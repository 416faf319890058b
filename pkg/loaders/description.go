// Package loaders reads scene descriptions and the mesh and image files
// they reference.
package loaders

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/log"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

var logger = log.New("loaders")

var (
	// ErrUnknownMesh is returned when an object names a mesh that is not declared
	ErrUnknownMesh = errors.New("unknown mesh")
	// ErrUnknownMaterial is returned when an object names a material that is not declared
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrUnknownType is returned for an unsupported type tag in any section
	ErrUnknownType = errors.New("unknown type")
	// ErrUnknownObject is returned when a light names an object that is not declared
	ErrUnknownObject = errors.New("unknown object")
)

// Vec3 is a TOML triple such as [0.75, 0.75, 0.75]
type Vec3 [3]float64

func (v Vec3) vec() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// Description mirrors the layout of a TOML scene file
type Description struct {
	Renderer  RendererSection   `toml:"renderer"`
	Film      FilmSection       `toml:"film"`
	Sky       *SkySection       `toml:"sky"`
	Camera    CameraSection     `toml:"camera"`
	Materials []MaterialSection `toml:"material"`
	Meshes    []MeshSection     `toml:"mesh"`
	Objects   []ObjectSection   `toml:"object"`
	Lights    []LightSection    `toml:"light"`

	// dir resolves relative mesh and image paths
	dir string
}

type RendererSection struct {
	Samples         int    `toml:"samples"`
	Depth           *int   `toml:"depth"`
	DepthLimit      *int   `toml:"depth-limit"`
	NoDirectEmitter bool   `toml:"no-direct-emitter"`
	Threads         int    `toml:"threads"`
	Integrator      string `toml:"integrator"`
	TimeLimit       string `toml:"time-limit"` // Go duration, e.g. "90s"
	Seed            *int64 `toml:"seed"`
}

type FilmSection struct {
	Resolution  [2]int   `toml:"resolution"`
	Output      string   `toml:"output"`
	Gamma       *float64 `toml:"gamma"`
	Sensitivity *Vec3    `toml:"sensitivity"`
}

type SkySection struct {
	Type      string  `toml:"type"` // uniform, simple or ibl
	Color     Vec3    `toml:"color"`
	Meridian  Vec3    `toml:"meridian"`
	Horizon   Vec3    `toml:"horizon"`
	Path      string  `toml:"path"`
	Gamma     float64 `toml:"gamma"`
	Intensity float64 `toml:"intensity"`
	Rotation  float64 `toml:"rotation"` // degrees around +Y
}

// Transform is one step of a transform list; later steps apply after earlier ones
type Transform struct {
	Type   string  `toml:"type"` // translate, scale, axis-angle or look-at
	Vector Vec3    `toml:"vector"`
	Axis   Vec3    `toml:"axis"`
	Angle  float64 `toml:"angle"` // degrees
	Origin Vec3    `toml:"origin"`
	Target Vec3    `toml:"target"`
	Up     Vec3    `toml:"up"`
}

type CameraSection struct {
	Type          string      `toml:"type"` // ideal-pinhole or thin-lens
	Fov           float64     `toml:"fov"`  // vertical, degrees
	FocusDistance float64     `toml:"focus-distance"`
	FNumber       float64     `toml:"f-number"`
	Transform     []Transform `toml:"transform"`
}

type MaterialSection struct {
	Name        string  `toml:"name"`
	Type        string  `toml:"type"`
	Albedo      Vec3    `toml:"albedo"`
	Reflectance Vec3    `toml:"reflectance"`
	Alpha       float64 `toml:"alpha"`
	Roughness   float64 `toml:"roughness"`
	IOR         float64 `toml:"ior"`
	Absorbtance float64 `toml:"absorbtance"`
}

type MeshSection struct {
	Name   string  `toml:"name"`
	Type   string  `toml:"type"` // obj, ply or sphere
	Path   string  `toml:"path"`
	Radius float64 `toml:"radius"`
}

type ObjectSection struct {
	Name      string      `toml:"name"`
	Mesh      string      `toml:"mesh"`
	Material  string      `toml:"material"`
	Transform []Transform `toml:"transform"`
}

type LightSection struct {
	Type     string `toml:"type"` // area
	Object   string `toml:"object"`
	Emission Vec3   `toml:"emission"`
}

// Options are the render settings a description carries besides the scene
type Options struct {
	Width, Height int
	Samples       int
	Threads       int
	Integrator    string
	TimeLimit     time.Duration
	Seed          int64
	Output        string
	Gamma         float64
	Sensitivity   [3]float64
}

// Built is a description turned into renderable objects
type Built struct {
	Scene        *scene.Scene
	Camera       renderer.Camera
	CameraConfig renderer.CameraConfig
	Options      Options
}

// LoadDescription reads and decodes a TOML scene file. Unknown keys are errors.
func LoadDescription(path string) (*Description, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	desc, err := DecodeDescription(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	desc.dir = filepath.Dir(path)
	return desc, nil
}

// DecodeDescription decodes a TOML scene. Relative paths resolve against the
// working directory.
func DecodeDescription(r io.Reader) (*Description, error) {
	var desc Description
	decoder := toml.NewDecoder(r).DisallowUnknownFields()
	if err := decoder.Decode(&desc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("toml decode error at line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("toml decode error: %w", err)
	}
	return &desc, nil
}

// resolve expands a leading ~ and makes path relative to the description file
func (d *Description) resolve(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	if filepath.IsAbs(path) || d.dir == "" {
		return path
	}
	return filepath.Join(d.dir, path)
}

// Options returns the render settings with defaults applied
func (d *Description) Options() (Options, error) {
	opts := Options{
		Width:       d.Film.Resolution[0],
		Height:      d.Film.Resolution[1],
		Samples:     d.Renderer.Samples,
		Threads:     d.Renderer.Threads,
		Integrator:  d.Renderer.Integrator,
		Seed:        42,
		Output:      d.Film.Output,
		Gamma:       renderer.DefaultGamma,
		Sensitivity: [3]float64{1, 1, 1},
	}
	if opts.Integrator == "" {
		opts.Integrator = integrator.Default
	}
	if d.Renderer.Seed != nil {
		opts.Seed = *d.Renderer.Seed
	}
	if d.Film.Gamma != nil {
		opts.Gamma = *d.Film.Gamma
	}
	if d.Film.Sensitivity != nil {
		opts.Sensitivity = *d.Film.Sensitivity
	}
	if d.Renderer.TimeLimit != "" {
		limit, err := time.ParseDuration(d.Renderer.TimeLimit)
		if err != nil {
			return opts, fmt.Errorf("renderer time-limit: %w", err)
		}
		opts.TimeLimit = limit
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return opts, fmt.Errorf("film resolution %dx%d must be positive", opts.Width, opts.Height)
	}
	return opts, nil
}

// SceneConfig returns the path termination settings
func (d *Description) SceneConfig() scene.Config {
	config := scene.DefaultConfig()
	if d.Renderer.Depth != nil {
		config.MinDepth = *d.Renderer.Depth
	}
	if d.Renderer.DepthLimit != nil {
		config.DepthLimit = *d.Renderer.DepthLimit
	}
	config.NoDirectEmitter = d.Renderer.NoDirectEmitter
	return config
}

// Matrix composes a transform list into one local-to-world matrix
func Matrix(transforms []Transform) (core.Mat4, error) {
	m := core.Identity()
	for i, t := range transforms {
		var step core.Mat4
		switch t.Type {
		case "translate":
			step = core.Translate(t.Vector.vec())
		case "scale":
			step = core.Scale(t.Vector.vec())
		case "axis-angle":
			if t.Axis.vec().IsZero() {
				return m, fmt.Errorf("transform %d: axis-angle needs a non-zero axis", i)
			}
			step = core.AxisAngle(t.Axis.vec().Normalize(), t.Angle*math.Pi/180)
		case "look-at":
			step = core.LookAt(t.Origin.vec(), t.Target.vec(), t.Up.vec())
		default:
			return m, fmt.Errorf("transform %d: %w %q", i, ErrUnknownType, t.Type)
		}
		m = step.Mul(m)
	}
	return m, nil
}

// Build loads meshes and images and assembles the scene and camera
func (d *Description) Build() (*Built, error) {
	opts, err := d.Options()
	if err != nil {
		return nil, err
	}

	materials, err := d.buildMaterials()
	if err != nil {
		return nil, err
	}
	meshes := make(map[string]MeshSection, len(d.Meshes))
	for _, mesh := range d.Meshes {
		meshes[mesh.Name] = mesh
	}
	objects := make(map[string]bool, len(d.Objects))
	for _, object := range d.Objects {
		objects[object.Name] = true
	}
	emission := make(map[string]core.Vec3, len(d.Lights))
	for i, light := range d.Lights {
		if light.Type != "area" {
			return nil, fmt.Errorf("light on %q: %w %q", light.Object, ErrUnknownType, light.Type)
		}
		if light.Object == "" || !objects[light.Object] {
			return nil, fmt.Errorf("light %d: %w %q", i, ErrUnknownObject, light.Object)
		}
		emission[light.Object] = light.Emission.vec()
	}

	var shapes []geometry.Shape
	cache := newMeshCache()
	for i, object := range d.Objects {
		objectShapes, err := d.buildObject(object, meshes, materials, emission, cache)
		if err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, object.Name, err)
		}
		shapes = append(shapes, objectShapes...)
	}

	sky, err := d.buildSky()
	if err != nil {
		return nil, err
	}

	s, err := scene.NewScene(shapes, sky, d.SceneConfig())
	if err != nil {
		return nil, err
	}
	if opts.Integrator == integrator.NextEvent && !s.HasEmitters() {
		logger.Warningf("integrator %q samples lights but the scene has no emitters", opts.Integrator)
	}

	cameraConfig, err := d.cameraConfig(opts)
	if err != nil {
		return nil, err
	}
	camera, err := renderer.NewCamera(cameraConfig)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	logger.Infof("built scene with %d shapes, %d emitters", len(s.Shapes), len(s.Emitters))
	return &Built{Scene: s, Camera: camera, CameraConfig: cameraConfig, Options: opts}, nil
}

func (d *Description) buildMaterials() (map[string]material.Material, error) {
	materials := make(map[string]material.Material, len(d.Materials))
	for _, m := range d.Materials {
		if _, exists := materials[m.Name]; exists {
			return nil, fmt.Errorf("material %q defined twice", m.Name)
		}
		var mat material.Material
		switch m.Type {
		case "lambert":
			mat = material.NewLambertian(m.Albedo.vec())
		case "phong":
			mat = material.NewPhong(m.Reflectance.vec(), m.Alpha)
		case "blinn-phong":
			mat = material.NewBlinnPhong(m.Reflectance.vec(), m.Alpha)
		case "ggx":
			mat = material.NewGGX(m.Reflectance.vec(), m.Roughness, m.IOR)
		case "cook-torrance":
			mat = material.NewCookTorrance(m.Reflectance.vec(), m.Roughness, m.IOR)
		case "ideal-refraction":
			reflectance := m.Reflectance.vec()
			if reflectance.IsZero() {
				reflectance = core.Splat(1)
			}
			mat = material.NewIdealRefraction(reflectance, m.Absorbtance, m.IOR)
		case "metal":
			mat = material.NewMetal(m.Reflectance.vec())
		default:
			return nil, fmt.Errorf("material %q: %w %q", m.Name, ErrUnknownType, m.Type)
		}
		materials[m.Name] = mat
	}
	return materials, nil
}

// defaultMaterial is used by objects without a material and OBJ faces without usemtl
func defaultMaterial() material.Material {
	return material.NewLambertian(core.Splat(0.75))
}

func withEmission(mat material.Material, radiance core.Vec3, emits bool) material.Material {
	if !emits {
		return mat
	}
	return material.NewEmissive(mat, radiance)
}

func (d *Description) buildObject(object ObjectSection, meshes map[string]MeshSection, materials map[string]material.Material, emission map[string]core.Vec3, cache *meshCache) ([]geometry.Shape, error) {
	mesh, ok := meshes[object.Mesh]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMesh, object.Mesh)
	}
	var mat material.Material
	if object.Material != "" {
		if mat, ok = materials[object.Material]; !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMaterial, object.Material)
		}
	}
	radiance, emits := core.Vec3{}, false
	if object.Name != "" {
		radiance, emits = emission[object.Name]
	}
	m, err := Matrix(object.Transform)
	if err != nil {
		return nil, err
	}

	switch mesh.Type {
	case "sphere":
		if mat == nil {
			mat = defaultMaterial()
		}
		if mesh.Radius <= 0 {
			return nil, fmt.Errorf("sphere mesh %q needs a positive radius", mesh.Name)
		}
		center := m.Point(core.NewVec3(0, 0, 0))
		return []geometry.Shape{geometry.NewSphere(center, mesh.Radius*m.UniformScale(), withEmission(mat, radiance, emits))}, nil

	case "obj":
		data, err := cache.obj(d.resolve(mesh.Path))
		if err != nil {
			return nil, err
		}
		options := &geometry.MeshOptions{Transform: &m}
		if mat == nil {
			options.Materials = objFaceMaterials(data, radiance, emits)
			return geometry.NewTriangleMesh(data.Vertices, data.Faces, nil, options)
		}
		return geometry.NewTriangleMesh(data.Vertices, data.Faces, withEmission(mat, radiance, emits), options)

	case "ply":
		data, err := cache.ply(d.resolve(mesh.Path))
		if err != nil {
			return nil, err
		}
		if mat == nil {
			mat = defaultMaterial()
		}
		return geometry.NewTriangleMesh(data.Vertices, data.Faces, withEmission(mat, radiance, emits), &geometry.MeshOptions{Transform: &m})

	default:
		return nil, fmt.Errorf("mesh %q: %w %q", mesh.Name, ErrUnknownType, mesh.Type)
	}
}

// objFaceMaterials maps MTL materials to Lambertian surfaces, emissive when Ke is set
func objFaceMaterials(data *OBJData, radiance core.Vec3, emits bool) []material.Material {
	converted := make([]material.Material, len(data.Materials))
	for i, m := range data.Materials {
		var mat material.Material = material.NewLambertian(m.Diffuse)
		if !m.Emission.IsZero() {
			mat = material.NewEmissive(mat, m.Emission)
		}
		converted[i] = withEmission(mat, radiance, emits)
	}
	fallback := withEmission(defaultMaterial(), radiance, emits)

	faceMaterials := make([]material.Material, len(data.FaceMaterials))
	for i, index := range data.FaceMaterials {
		if index < 0 {
			faceMaterials[i] = fallback
		} else {
			faceMaterials[i] = converted[index]
		}
	}
	return faceMaterials
}

func (d *Description) buildSky() (scene.Sky, error) {
	if d.Sky == nil {
		return scene.NewUniformSky(core.Vec3{}), nil
	}
	switch d.Sky.Type {
	case "uniform":
		return scene.NewUniformSky(d.Sky.Color.vec()), nil
	case "simple":
		return scene.NewSimpleSky(d.Sky.Meridian.vec(), d.Sky.Horizon.vec()), nil
	case "ibl":
		img, err := LoadImage(d.resolve(d.Sky.Path))
		if err != nil {
			return nil, fmt.Errorf("sky: %w", err)
		}
		gamma, intensity := d.Sky.Gamma, d.Sky.Intensity
		if gamma == 0 {
			gamma = renderer.DefaultGamma
		}
		if intensity == 0 {
			intensity = 1
		}
		return scene.NewImageSky(img, gamma, intensity, d.Sky.Rotation), nil
	default:
		return nil, fmt.Errorf("sky: %w %q", ErrUnknownType, d.Sky.Type)
	}
}

func (d *Description) cameraConfig(opts Options) (renderer.CameraConfig, error) {
	m, err := Matrix(d.Camera.Transform)
	if err != nil {
		return renderer.CameraConfig{}, fmt.Errorf("camera: %w", err)
	}
	config := renderer.CameraConfigFromTransform(m, d.Camera.Fov, opts.Width, opts.Height)

	switch d.Camera.Type {
	case "ideal-pinhole", "":
	case "thin-lens":
		if d.Camera.FocusDistance <= 0 {
			return config, errors.New("camera: thin-lens needs a positive focus-distance")
		}
		config.FocusDistance = d.Camera.FocusDistance
		config.Aperture = renderer.ApertureFromFNumber(d.Camera.FNumber, d.Camera.Fov)
	default:
		return config, fmt.Errorf("camera: %w %q", ErrUnknownType, d.Camera.Type)
	}
	return config, nil
}

// meshCache loads each referenced file once even when several objects
// instance it.
type meshCache struct {
	objs map[string]*OBJData
	plys map[string]*PLYData
}

func newMeshCache() *meshCache {
	return &meshCache{objs: make(map[string]*OBJData), plys: make(map[string]*PLYData)}
}

func (c *meshCache) obj(path string) (*OBJData, error) {
	if data, ok := c.objs[path]; ok {
		return data, nil
	}
	data, err := LoadOBJ(path)
	if err != nil {
		return nil, err
	}
	c.objs[path] = data
	return data, nil
}

func (c *meshCache) ply(path string) (*PLYData, error) {
	if data, ok := c.plys[path]; ok {
		return data, nil
	}
	data, err := LoadPLY(path)
	if err != nil {
		return nil, err
	}
	c.plys[path] = data
	return data, nil
}
