package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"tripRecapAPI/internal/types/geo"
)

type Status string

const (
	// StatusFound: GPS read on the first pass.
	StatusFound Status = "embedded"
	// StatusRecovered: GPS read after re-encoding with the metadata block preserved.
	StatusRecovered Status = "recovered"
	// StatusAbsent: the image carries no location.
	StatusAbsent Status = "absent"
	// StatusFailed: a metadata block exists but could not be parsed.
	StatusFailed Status = "failed"
)

// Result of coordinate extraction. Coordinates is set only for found/recovered,
// OriginalTimestamp is independent of the location outcome.
type Result struct {
	Status            Status
	Coordinates       *geo.Coordinates
	OriginalTimestamp *time.Time
	Err               error
}

func (r Result) HasLocation() bool {
	return r.Coordinates != nil
}

// ExtractCoordinates reads the GPS position and capture time from an image buffer.
// It never returns an error directly; parse failures are reported as StatusFailed.
func ExtractCoordinates(buf []byte) Result {
	res := Result{Status: StatusAbsent}

	x, err := decodeExif(buf)
	if x != nil {
		res.OriginalTimestamp = originalTimestamp(x)
		if c, ok := latLong(x); ok {
			res.Status = StatusFound
			res.Coordinates = c
		}
		return res
	}

	payload := findExifPayload(buf)
	if payload == nil {
		return res
	}

	rebuilt, rerr := preserveMetadata(buf, payload)
	if rerr != nil {
		res.Status = StatusFailed
		res.Err = errors.Join(err, rerr)
		return res
	}

	x, rerr = decodeExif(rebuilt)
	if x == nil {
		res.Status = StatusFailed
		res.Err = errors.Join(err, rerr)
		return res
	}

	res.OriginalTimestamp = originalTimestamp(x)
	if c, ok := latLong(x); ok {
		res.Status = StatusRecovered
		res.Coordinates = c
	}
	return res
}

// decodeExif returns nil when buf has no usable EXIF data.
func decodeExif(buf []byte) (x *exif.Exif, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, fmt.Errorf("exif parser panic: %v", r)
		}
	}()

	x, err = exif.Decode(bytes.NewReader(buf))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, err
	}
	return x, nil
}

// preserveMetadata re-encodes the image as a JPEG whose first APP1 segment is payload.
// A JPEG source keeps its original scan data, anything else is decoded and re-encoded.
func preserveMetadata(buf, payload []byte) ([]byte, error) {
	if isJPEG(buf) {
		return spliceExif(stripExifSegments(buf), payload), nil
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("re-encode for metadata: %w", err)
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: DefaultJPEGQuality}); err != nil {
		return nil, fmt.Errorf("re-encode for metadata: %w", err)
	}
	return spliceExif(out.Bytes(), payload), nil
}

// stripExifSegments drops APP1 segments from the JPEG header so the spliced
// block is the only one a reader will see.
func stripExifSegments(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	out = append(out, buf[:2]...)

	i := 2
	for i+4 <= len(buf) && buf[i] == 0xFF {
		marker := buf[i+1]
		// start of scan: the rest is entropy-coded data
		if marker == 0xDA {
			break
		}
		segLen := int(buf[i+2])<<8 | int(buf[i+3])
		end := i + 2 + segLen
		if segLen < 2 || end > len(buf) {
			break
		}
		if marker != markerAPP1 {
			out = append(out, buf[i:end]...)
		}
		i = end
	}
	return append(out, buf[i:]...)
}

func latLong(x *exif.Exif) (*geo.Coordinates, bool) {
	lat, lon, err := x.LatLong()
	if err != nil {
		return nil, false
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return nil, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, false
	}
	return &geo.Coordinates{Latitude: lat, Longitude: lon}, true
}

// originalTimestamp returns the camera's wall-clock capture time labelled UTC.
// EXIF dates carry no zone and goexif parses them in time.Local, so the
// fields are re-read into UTC to keep the result independent of the host.
func originalTimestamp(x *exif.Exif) *time.Time {
	t, err := x.DateTime()
	if err != nil || t.IsZero() {
		return nil
	}
	utc := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return &utc
}

// Orientation returns the EXIF orientation (1-8), or 1 when unknown.
func Orientation(buf []byte) int {
	x, _ := decodeExif(buf)
	if x == nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}
