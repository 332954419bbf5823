package imaging

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooManyPixels     = errors.New("image exceeds the pixel limit")
)

// ConversionError is returned when a proprietary container cannot be transcoded.
type ConversionError struct {
	Format string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s image: %v", e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
