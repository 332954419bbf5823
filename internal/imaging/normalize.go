package imaging

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/jdeng/goheif"
)

const DefaultJPEGQuality = 90

// IsHEIC reports whether the filename carries a HEIC/HEIF extension.
func IsHEIC(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".heic", ".heif":
		return true
	}
	return false
}

// Normalize converts HEIC/HEIF uploads to JPEG and returns every other buffer unchanged.
// The container's EXIF block is carried into the JPEG so GPS extraction still works.
func Normalize(buf []byte, filename string, quality, maxPixels int) (out []byte, err error) {
	if !IsHEIC(filename) {
		return buf, nil
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &ConversionError{Format: "heic", Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	cfg, err := goheif.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, &ConversionError{Format: "heic", Err: err}
	}
	if err := CheckPixels(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, err
	}

	img, err := goheif.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &ConversionError{Format: "heic", Err: err}
	}

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, &ConversionError{Format: "heic", Err: err}
	}

	raw, err := goheif.ExtractExif(bytes.NewReader(buf))
	if err != nil || len(raw) == 0 {
		return jpg.Bytes(), nil
	}

	return spliceExif(jpg.Bytes(), exifPayload(raw)), nil
}
