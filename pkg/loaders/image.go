package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder, including 16-bit
)

// LoadImage decodes a PNG, JPEG, TIFF or BMP file, detecting the format from
// the file header.
func LoadImage(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filename, err)
	}

	logger.Debugf("decoded %s image %s (%dx%d)", format, filename, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}
