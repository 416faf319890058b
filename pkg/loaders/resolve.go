package loaders

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// DefaultBuiltinWidth is the width of built-in scene renders when no size is
// given; the height follows the scene's aspect ratio.
const DefaultBuiltinWidth = 400

// Resolve turns a scene reference, either a TOML description file or the id
// of a built-in scene, into a ready-to-render job. width and height override
// the scene's resolution when positive.
func Resolve(ref string, width, height int) (*Built, error) {
	if ref == "" {
		return nil, errors.New("missing scene reference")
	}
	if IsDescriptionFile(ref) {
		desc, err := LoadDescription(ref)
		if err != nil {
			return nil, err
		}
		if width > 0 {
			desc.Film.Resolution[0] = width
		}
		if height > 0 {
			desc.Film.Resolution[1] = height
		}
		return desc.Build()
	}

	s, view, err := scene.LoadBuiltin(ref)
	if err != nil {
		return nil, err
	}
	width, height = BuiltinResolution(view, width, height)

	cameraConfig := renderer.CameraConfigFromView(view, width, height)
	camera, err := renderer.NewCamera(cameraConfig)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	progressive := renderer.DefaultProgressiveConfig(width, height)
	return &Built{
		Scene:        s,
		Camera:       camera,
		CameraConfig: cameraConfig,
		Options: Options{
			Width:       width,
			Height:      height,
			Samples:     progressive.SamplesPerPixel,
			Integrator:  integrator.Default,
			TimeLimit:   progressive.TimeLimit,
			Seed:        progressive.Seed,
			Gamma:       renderer.DefaultGamma,
			Sensitivity: [3]float64{1, 1, 1},
		},
	}, nil
}

// IsDescriptionFile reports whether ref names a scene file rather than a built-in
func IsDescriptionFile(ref string) bool {
	if strings.EqualFold(filepath.Ext(ref), ".toml") {
		return true
	}
	info, err := os.Stat(ref)
	return err == nil && !info.IsDir()
}

// BuiltinResolution fills in whichever of width and height is missing from
// the view's aspect ratio.
func BuiltinResolution(view scene.View, width, height int) (int, int) {
	aspect := view.AspectRatio
	if aspect <= 0 {
		aspect = 1
	}
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, max(1, int(math.Round(float64(width)/aspect)))
	case height > 0:
		return max(1, int(math.Round(float64(height)*aspect))), height
	default:
		return DefaultBuiltinWidth, max(1, int(math.Round(DefaultBuiltinWidth/aspect)))
	}
}
