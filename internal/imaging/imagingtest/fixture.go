// Package imagingtest builds small images with hand-made EXIF blocks for tests.
package imagingtest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var le = binary.LittleEndian

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type tag struct {
	id    uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiTag(id uint16, s string) tag {
	b := append([]byte(s), 0)
	return tag{id: id, typ: typeASCII, count: uint32(len(b)), data: b}
}

func shortTag(id, v uint16) tag {
	return tag{id: id, typ: typeShort, count: 1, data: le.AppendUint16(nil, v)}
}

func longTag(id uint16, v uint32) tag {
	return tag{id: id, typ: typeLong, count: 1, data: le.AppendUint32(nil, v)}
}

// degreesTag encodes a decimal angle as the degrees/minutes/seconds rational triple GPS uses.
func degreesTag(id uint16, v float64) tag {
	v = math.Abs(v)
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	sec := ((v-deg)*60 - minutes) * 60

	var b []byte
	for _, r := range [][2]uint32{{uint32(deg), 1}, {uint32(minutes), 1}, {uint32(math.Round(sec * 10000)), 10000}} {
		b = le.AppendUint32(b, r[0])
		b = le.AppendUint32(b, r[1])
	}
	return tag{id: id, typ: typeRational, count: 3, data: b}
}

func ifdSize(tags []tag) int {
	n := 2 + 12*len(tags) + 4
	for _, t := range tags {
		if len(t.data) > 4 {
			n += len(t.data) + len(t.data)%2
		}
	}
	return n
}

func appendIFD(out []byte, tags []tag) []byte {
	dataOff := len(out) + 2 + 12*len(tags) + 4

	var data []byte
	out = le.AppendUint16(out, uint16(len(tags)))
	for _, t := range tags {
		out = le.AppendUint16(out, t.id)
		out = le.AppendUint16(out, t.typ)
		out = le.AppendUint32(out, t.count)
		if len(t.data) <= 4 {
			v := make([]byte, 4)
			copy(v, t.data)
			out = append(out, v...)
			continue
		}
		out = le.AppendUint32(out, uint32(dataOff+len(data)))
		data = append(data, t.data...)
		if len(t.data)%2 == 1 {
			data = append(data, 0)
		}
	}
	out = le.AppendUint32(out, 0)
	return append(out, data...)
}

// Exif describes the tags to write. Zero values are left out.
type Exif struct {
	Orientation      uint16
	DateTimeOriginal string
	Latitude         *float64
	Longitude        *float64
}

func Float(v float64) *float64 { return &v }

// TIFF builds a little-endian TIFF structure with IFD0, an Exif sub-IFD and a GPS sub-IFD.
func (f Exif) TIFF() []byte {
	var ifd0, exifIFD, gpsIFD []tag

	if f.Orientation != 0 {
		ifd0 = append(ifd0, shortTag(0x0112, f.Orientation))
	}
	if f.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, asciiTag(0x9003, f.DateTimeOriginal))
	}
	if f.Latitude != nil {
		ref := "N"
		if *f.Latitude < 0 {
			ref = "S"
		}
		gpsIFD = append(gpsIFD, asciiTag(0x0001, ref), degreesTag(0x0002, *f.Latitude))
	}
	if f.Longitude != nil {
		ref := "E"
		if *f.Longitude < 0 {
			ref = "W"
		}
		gpsIFD = append(gpsIFD, asciiTag(0x0003, ref), degreesTag(0x0004, *f.Longitude))
	}

	// pointer tags are inline LONGs, so IFD0's size is known before the offsets are
	pointers := 0
	if len(exifIFD) > 0 {
		pointers++
	}
	if len(gpsIFD) > 0 {
		pointers++
	}
	next := 8 + ifdSize(ifd0) + 12*pointers
	if len(exifIFD) > 0 {
		ifd0 = append(ifd0, longTag(0x8769, uint32(next)))
		next += ifdSize(exifIFD)
	}
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, longTag(0x8825, uint32(next)))
	}

	out := []byte("II*\x00")
	out = le.AppendUint32(out, 8)
	out = appendIFD(out, ifd0)
	if len(exifIFD) > 0 {
		out = appendIFD(out, exifIFD)
	}
	if len(gpsIFD) > 0 {
		out = appendIFD(out, gpsIFD)
	}
	return out
}

// Payload is the APP1 body: the "Exif\0\0" header followed by the TIFF structure.
func (f Exif) Payload() []byte {
	return append([]byte("Exif\x00\x00"), f.TIFF()...)
}

// InsertAPP1 adds payload as the first APP1 segment after the SOI marker.
func InsertAPP1(jpegData, payload []byte) []byte {
	out := make([]byte, 0, len(jpegData)+len(payload)+4)
	out = append(out, 0xFF, 0xD8, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, jpegData[2:]...)
}

func Image(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, Image(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, Image(w, h)))
	return buf.Bytes()
}

func JPEGWithExif(t testing.TB, w, h int, f Exif) []byte {
	t.Helper()
	return InsertAPP1(JPEG(t, w, h), f.Payload())
}

// PNGWithExif stores the TIFF structure in an eXIf chunk right after IHDR.
func PNGWithExif(t testing.TB, w, h int, f Exif) []byte {
	t.Helper()
	src := PNG(t, w, h)

	// signature (8) + IHDR chunk (4 len + 4 type + 13 data + 4 crc)
	const ihdrEnd = 8 + 25
	data := f.TIFF()

	body := append([]byte("eXIf"), data...)
	var chunk []byte
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(body))

	out := append([]byte{}, src[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, src[ihdrEnd:]...)
}

// PNGHeader is a PNG that declares w x h RGBA pixels but carries no image data.
// It decodes its config fine and fails any full decode.
func PNGHeader(w, h int) []byte {
	chunk := func(out []byte, typ string, data []byte) []byte {
		body := append([]byte(typ), data...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
		out = append(out, body...)
		return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(body))
	}

	var ihdr []byte
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(w))
	ihdr = binary.BigEndian.AppendUint32(ihdr, uint32(h))
	// bit depth 8, colour type RGBA, deflate, adaptive filter, no interlace
	ihdr = append(ihdr, 8, 6, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = chunk(out, "IHDR", ihdr)
	return chunk(out, "IEND", nil)
}
