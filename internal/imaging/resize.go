package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const DefaultMaxDimension = 800

// Processed is a resized, re-encoded image ready to be sent back to the client.
type Processed struct {
	Data   []byte
	Width  int
	Height int
	Format string
	MIME   string
}

// FitInside scales (w, h) so neither side exceeds maxDim, keeping the aspect ratio.
// Images already inside the box are returned unchanged.
func FitInside(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	scale := math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return min(nw, maxDim), min(nh, maxDim)
}

// Resize decodes buf, fits it inside maxDim x maxDim, applies the EXIF
// orientation and re-encodes. PNG stays PNG, everything else becomes JPEG.
// It must run after metadata extraction since the output carries no EXIF.
func Resize(buf []byte, maxDim int) (*Processed, error) {
	src, format, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		if err == image.ErrFormat {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := FitInside(b.Dx(), b.Dy(), maxDim)

	var img image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		img = dst
	}

	if format == "jpeg" {
		img = applyOrientation(img, Orientation(buf))
	}

	var out bytes.Buffer
	p := &Processed{}
	if format == "png" {
		if err := png.Encode(&out, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		p.Format, p.MIME = "png", "image/png"
	} else {
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: DefaultJPEGQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		p.Format, p.MIME = "jpeg", "image/jpeg"
	}

	p.Data = out.Bytes()
	p.Width = img.Bounds().Dx()
	p.Height = img.Bounds().Dy()
	return p, nil
}
