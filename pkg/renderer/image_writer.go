package renderer

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-pathtracer/pkg/core"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Encode writes img to w in the named format ("png", "tiff" or "bmp")
func Encode(w io.Writer, format string, img image.Image) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "tiff", "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}

// FormatFromPath derives the image format from a file extension
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// SaveFilm tone maps film and writes it to path. TIFF output keeps 16 bits
// per channel; other formats are 8-bit.
func SaveFilm(path string, film *Film, gamma float64, sensitivity [3]float64) error {
	format := FormatFromPath(path)
	exposure := vec3FromArray(sensitivity)

	var img image.Image
	switch format {
	case "tiff", "tif":
		img = film.Image16(gamma, exposure)
	default:
		img = film.Image(gamma, exposure)
	}
	return saveImage(path, format, img)
}

// SavePNG writes an 8-bit PNG snapshot of film
func SavePNG(path string, film *Film, gamma float64, sensitivity [3]float64) error {
	return saveImage(path, "png", film.Image(gamma, vec3FromArray(sensitivity)))
}

// SaveTIFF16 writes a 16-bit TIFF snapshot of film
func SaveTIFF16(path string, film *Film, gamma float64, sensitivity [3]float64) error {
	return saveImage(path, "tiff", film.Image16(gamma, vec3FromArray(sensitivity)))
}

// saveImage writes through a temporary file so a checkpoint never leaves a
// truncated image behind.
func saveImage(path, format string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".render-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, format, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func vec3FromArray(a [3]float64) core.Vec3 {
	return core.NewVec3(a[0], a[1], a[2])
}
