package server

import (
	"fmt"
	"net/http"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/loaders"
	"github.com/df07/go-pathtracer/pkg/material"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// pixelCenter is a sampler that always returns 0.5: camera rays go through
// pixel centers and the middle of the lens.
type pixelCenter struct{}

func (pixelCenter) Get1D() float64 { return 0.5 }
func (pixelCenter) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }
func (pixelCenter) Get3D() core.Vec3 { return core.Splat(0.5) }

// handleInspect reports what the camera sees through one pixel
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ref := query.Get("scene")
	if ref == "" {
		ref = "cornell-box"
	}

	width, err := parseIntParam(query, "width", 0, 0, 4096)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	height, err := parseIntParam(query, "height", 0, 0, 4096)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	job, err := s.resolveScene(ref, width, height)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	x, errX := parseIntParam(query, "x", -1, 0, job.Options.Width-1)
	y, errY := parseIntParam(query, "y", -1, 0, job.Options.Height-1)
	if errX != nil || errY != nil || x < 0 || y < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("x and y must address a pixel of the %dx%d image", job.Options.Width, job.Options.Height),
		})
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(job, x, y))
}

// inspectPixel casts the ray through the center of pixel (x, y) and describes
// the first surface it hits.
func inspectPixel(job *loaders.Built, x, y int) InspectResponse {
	ray := job.Camera.GetRay(x, y, pixelCenter{})
	hit, ok := job.Scene.Intersect(ray)
	if !ok {
		return InspectResponse{Hit: false}
	}
	return describeHit(hit)
}

func describeHit(hit geometry.Intersection) InspectResponse {
	materialType, properties := materialInfo(hit.Material)
	return InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		Point:        [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.Distance,
		Properties:   properties,
	}
}

func vecProperty(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// colorProperty formats a reflectance as a CSS color for the front end
func colorProperty(v core.Vec3) string {
	c := v.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// materialInfo extracts detailed material information with type assertions
func materialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = vecProperty(m.Albedo)
		properties["color"] = colorProperty(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vecProperty(m.Albedo)
		properties["color"] = colorProperty(m.Albedo)
		return "metal", properties

	case *material.Phong:
		properties["reflectance"] = vecProperty(m.Reflectance)
		properties["alpha"] = m.Alpha
		properties["color"] = colorProperty(m.Reflectance)
		return "phong", properties

	case *material.BlinnPhong:
		properties["reflectance"] = vecProperty(m.Reflectance)
		properties["alpha"] = m.Alpha
		properties["color"] = colorProperty(m.Reflectance)
		return "blinn-phong", properties

	case *material.GGX:
		properties["reflectance"] = vecProperty(m.Reflectance)
		properties["roughness"] = m.Roughness
		properties["ior"] = m.IOR
		properties["color"] = colorProperty(m.Reflectance)
		return "ggx", properties

	case *material.CookTorrance:
		properties["reflectance"] = vecProperty(m.Reflectance)
		properties["roughness"] = m.Roughness
		properties["ior"] = m.IOR
		properties["color"] = colorProperty(m.Reflectance)
		return "cook-torrance", properties

	case *material.IdealRefraction:
		properties["reflectance"] = vecProperty(m.Reflectance)
		properties["absorbtance"] = m.Absorbtance
		properties["ior"] = m.IOR
		properties["color"] = "#ffffff"
		return "ideal-refraction", properties

	case *material.Emissive:
		baseType, baseProps := materialInfo(m.Material)
		properties["radiance"] = vecProperty(m.Radiance)
		properties["base"] = map[string]interface{}{
			"type":       baseType,
			"properties": baseProps,
		}
		return "emissive", properties

	case nil:
		return "none", properties

	default:
		return "unknown", properties
	}
}
