package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels matches the input limit libvips applies by default (0x3FFF squared).
const DefaultMaxPixels = 0x3FFF * 0x3FFF

// Info describes an image without decoding its pixels.
type Info struct {
	Width  int
	Height int
	Format string
}

// Probe reads the dimensions and format name of buf.
func Probe(buf []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		if err == image.ErrFormat {
			return Info{}, ErrUnsupportedFormat
		}
		return Info{}, fmt.Errorf("probe image: %w", err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// CheckPixels rejects images whose declared size would need more than
// maxPixels to decode. Non-positive maxPixels falls back to DefaultMaxPixels.
func CheckPixels(width, height, maxPixels int) error {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image has no pixels (%dx%d): %w", width, height, ErrUnsupportedFormat)
	}
	if int64(width)*int64(height) > int64(maxPixels) {
		return fmt.Errorf("%dx%d is more than %d pixels: %w", width, height, maxPixels, ErrTooManyPixels)
	}
	return nil
}
