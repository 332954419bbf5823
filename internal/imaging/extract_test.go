package imaging

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripRecapAPI/internal/imaging/imagingtest"
)

func TestExtractCoordinates_EmbeddedGPS(t *testing.T) {
	buf := imagingtest.JPEGWithExif(t, 32, 16, imagingtest.Exif{
		Latitude:         imagingtest.Float(43.68),
		Longitude:        imagingtest.Float(7.23),
		DateTimeOriginal: "2023:07:14 10:30:00",
	})

	res := ExtractCoordinates(buf)

	require.Equal(t, StatusFound, res.Status)
	require.NotNil(t, res.Coordinates)
	assert.InDelta(t, 43.68, res.Coordinates.Latitude, 1e-6)
	assert.InDelta(t, 7.23, res.Coordinates.Longitude, 1e-6)
	require.NotNil(t, res.OriginalTimestamp)
	assert.Equal(t, 2023, res.OriginalTimestamp.Year())
	assert.Equal(t, time.July, res.OriginalTimestamp.Month())
	assert.Equal(t, 14, res.OriginalTimestamp.Day())
	assert.NoError(t, res.Err)
}

func TestExtractCoordinates_SouthWestHemisphere(t *testing.T) {
	buf := imagingtest.JPEGWithExif(t, 8, 8, imagingtest.Exif{Latitude: imagingtest.Float(-33.8688), Longitude: imagingtest.Float(-151.2093)})

	res := ExtractCoordinates(buf)

	require.True(t, res.HasLocation())
	assert.InDelta(t, -33.8688, res.Coordinates.Latitude, 1e-6)
	assert.InDelta(t, -151.2093, res.Coordinates.Longitude, 1e-6)
}

func TestExtractCoordinates_NoMetadata(t *testing.T) {
	res := ExtractCoordinates(imagingtest.JPEG(t, 8, 8))

	assert.Equal(t, StatusAbsent, res.Status)
	assert.Nil(t, res.Coordinates)
	assert.Nil(t, res.OriginalTimestamp)
	assert.NoError(t, res.Err)
}

func TestExtractCoordinates_PartialGPSIsAbsent(t *testing.T) {
	buf := imagingtest.JPEGWithExif(t, 8, 8, imagingtest.Exif{Latitude: imagingtest.Float(43.68)})

	res := ExtractCoordinates(buf)

	assert.Equal(t, StatusAbsent, res.Status)
	assert.Nil(t, res.Coordinates)
}

func TestExtractCoordinates_TimestampWithoutLocation(t *testing.T) {
	buf := imagingtest.JPEGWithExif(t, 8, 8, imagingtest.Exif{DateTimeOriginal: "2021:01:02 03:04:05"})

	res := ExtractCoordinates(buf)

	assert.Equal(t, StatusAbsent, res.Status)
	require.NotNil(t, res.OriginalTimestamp)
	assert.Equal(t, 2021, res.OriginalTimestamp.Year())
}

func TestExtractCoordinates_RecoversExifBehindXMP(t *testing.T) {
	f := imagingtest.Exif{Latitude: imagingtest.Float(48.8584), Longitude: imagingtest.Float(2.2945)}
	xmp := []byte("http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta/>")
	// the XMP segment ends up first, which hides the Exif segment from a first-APP1 reader
	buf := spliceExif(imagingtest.JPEGWithExif(t, 16, 16, f), xmp)

	res := ExtractCoordinates(buf)

	require.Equal(t, StatusRecovered, res.Status)
	assert.InDelta(t, 48.8584, res.Coordinates.Latitude, 1e-6)
	assert.InDelta(t, 2.2945, res.Coordinates.Longitude, 1e-6)
}

func TestExtractCoordinates_RecoversFromPNGChunk(t *testing.T) {
	buf := imagingtest.PNGWithExif(t, 16, 16, imagingtest.Exif{Latitude: imagingtest.Float(35.6762), Longitude: imagingtest.Float(139.6503)})

	res := ExtractCoordinates(buf)

	require.Equal(t, StatusRecovered, res.Status)
	assert.InDelta(t, 35.6762, res.Coordinates.Latitude, 1e-6)
	assert.InDelta(t, 139.6503, res.Coordinates.Longitude, 1e-6)
}

func TestExtractCoordinates_CorruptBlockFails(t *testing.T) {
	payload := append([]byte{}, exifHeader...)
	payload = append(payload, "II*\x00"...)
	payload = binary.LittleEndian.AppendUint32(payload, 0x00FFFF00)
	buf := spliceExif(imagingtest.JPEG(t, 8, 8), payload)

	res := ExtractCoordinates(buf)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Coordinates)
	assert.Error(t, res.Err)
}

func TestExtractCoordinates_GarbageNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("not an image"),
		{0xFF, 0xD8, 0xFF, 0xE1, 0x00},
		append([]byte{}, exifHeader...),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			res := ExtractCoordinates(in)
			assert.Nil(t, res.Coordinates)
		})
	}
}

func TestOrientation(t *testing.T) {
	assert.Equal(t, 6, Orientation(imagingtest.JPEGWithExif(t, 8, 4, imagingtest.Exif{Orientation: 6})))
	assert.Equal(t, 1, Orientation(imagingtest.JPEG(t, 8, 4)))
	assert.Equal(t, 1, Orientation(imagingtest.JPEGWithExif(t, 8, 4, imagingtest.Exif{Orientation: 42})))
}

func TestExtractCoordinates_TimestampIgnoresHostZone(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("UTC+9", 9*60*60)
	t.Cleanup(func() { time.Local = prev })

	buf := imagingtest.JPEGWithExif(t, 8, 8, imagingtest.Exif{DateTimeOriginal: "2023:07:14 10:30:00"})

	res := ExtractCoordinates(buf)

	require.NotNil(t, res.OriginalTimestamp)
	assert.Equal(t, time.Date(2023, time.July, 14, 10, 30, 0, 0, time.UTC), *res.OriginalTimestamp)
	assert.Equal(t, time.UTC, res.OriginalTimestamp.Location())
}
