package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/df07/go-pathtracer/pkg/core"
)

// DefaultGamma is the display gamma applied when converting film to images
const DefaultGamma = 2.2

// Film accumulates radiance samples per pixel. It is not safe for concurrent
// writes; the progressive renderer funnels all writes through one goroutine.
type Film struct {
	width, height int
	pixels        []PixelStats
}

// NewFilm allocates an empty film
func NewFilm(width, height int) *Film {
	return &Film{
		width:  width,
		height: height,
		pixels: make([]PixelStats, width*height),
	}
}

// Bounds returns the pixel rectangle covered by the film
func (f *Film) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// Add records one sample for pixel (x, y)
func (f *Film) Add(x, y int, sample core.Vec3) {
	f.pixels[y*f.width+x].AddSample(sample)
}

// Pixel returns the accumulated statistics for pixel (x, y)
func (f *Film) Pixel(x, y int) PixelStats {
	return f.pixels[y*f.width+x]
}

// AddTile merges a rendered tile into the film
func (f *Film) AddTile(result TileResult) error {
	bounds := result.Bounds
	if !bounds.In(f.Bounds()) {
		return fmt.Errorf("tile %v outside film %v", bounds, f.Bounds())
	}
	if len(result.Pixels) != bounds.Dx()*bounds.Dy() {
		return fmt.Errorf("tile %v carries %d pixels, want %d", bounds, len(result.Pixels), bounds.Dx()*bounds.Dy())
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			f.pixels[y*f.width+x].Merge(result.Pixels[i])
			i++
		}
	}
	return nil
}

// Mean returns the average radiance of pixel (x, y)
func (f *Film) Mean(x, y int) core.Vec3 {
	return f.pixels[y*f.width+x].GetColor()
}

// exposed converts a pixel mean to display space in [0, 1]
func (f *Film) exposed(x, y int, gamma float64, sensitivity core.Vec3) core.Vec3 {
	return f.Mean(x, y).MultiplyVec(sensitivity).GammaCorrect(gamma).Clamp(0, 1)
}

// Image returns an 8-bit snapshot of the film. sensitivity scales each
// channel before gamma correction.
func (f *Film) Image(gamma float64, sensitivity core.Vec3) *image.RGBA {
	img := image.NewRGBA(f.Bounds())
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			c := f.exposed(x, y, gamma, sensitivity)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(255*c.X + 0.5),
				G: uint8(255*c.Y + 0.5),
				B: uint8(255*c.Z + 0.5),
				A: 255,
			})
		}
	}
	return img
}

// Image16 returns a 16-bit per channel snapshot of the film
func (f *Film) Image16(gamma float64, sensitivity core.Vec3) *image.RGBA64 {
	img := image.NewRGBA64(f.Bounds())
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			c := f.exposed(x, y, gamma, sensitivity)
			img.SetRGBA64(x, y, color.RGBA64{
				R: uint16(65535*c.X + 0.5),
				G: uint16(65535*c.Y + 0.5),
				B: uint16(65535*c.Z + 0.5),
				A: 65535,
			})
		}
	}
	return img
}

// AverageLuminance returns the mean linear luminance over the film
func (f *Film) AverageLuminance() float64 {
	if len(f.pixels) == 0 {
		return 0
	}
	total := 0.0
	for i := range f.pixels {
		total += f.pixels[i].GetColor().Luminance()
	}
	return total / float64(len(f.pixels))
}
