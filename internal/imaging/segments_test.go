package imaging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripRecapAPI/internal/imaging/imagingtest"
)

func TestSpliceExif_InsertsFirstAPP1(t *testing.T) {
	payload := imagingtest.Exif{Orientation: 3}.Payload()
	out := spliceExif(imagingtest.JPEG(t, 4, 4), payload)

	require.True(t, isJPEG(out))
	assert.Equal(t, byte(0xFF), out[2])
	assert.Equal(t, byte(markerAPP1), out[3])
	assert.Equal(t, len(payload)+2, int(out[4])<<8|int(out[5]))
	assert.True(t, bytes.HasPrefix(out[6:], exifHeader))
}

func TestSpliceExif_NonJPEGUntouched(t *testing.T) {
	buf := imagingtest.PNG(t, 2, 2)
	assert.Equal(t, buf, spliceExif(buf, imagingtest.Exif{}.Payload()))
}

func TestFindExifPayload_SecondAPP1(t *testing.T) {
	payload := imagingtest.Exif{Latitude: imagingtest.Float(1), Longitude: imagingtest.Float(2)}.Payload()
	buf := spliceExif(spliceExif(imagingtest.JPEG(t, 4, 4), payload), []byte("http://ns.adobe.com/xap/1.0/\x00"))

	assert.Equal(t, payload, findExifPayload(buf))
}

func TestFindExifPayload_PNGChunk(t *testing.T) {
	f := imagingtest.Exif{Orientation: 6}
	found := findExifPayload(imagingtest.PNGWithExif(t, 4, 4, f))

	require.NotNil(t, found)
	assert.Equal(t, f.Payload(), found)
}

func TestFindExifPayload_None(t *testing.T) {
	assert.Nil(t, findExifPayload(imagingtest.JPEG(t, 4, 4)))
	// an Exif marker not followed by a TIFF header is ignored
	assert.Nil(t, findExifPayload([]byte("xxExif\x00\x00garbage")))
}

func TestExifPayload_OffsetPrefix(t *testing.T) {
	tiff := imagingtest.Exif{Orientation: 1}.TIFF()
	// HEIF stores a 4 byte offset before the TIFF header
	raw := append([]byte{0, 0, 0, 0}, tiff...)

	assert.Equal(t, append(append([]byte{}, exifHeader...), tiff...), exifPayload(raw))
	assert.Nil(t, exifPayload([]byte("no tiff here")))
}

func TestStripExifSegments(t *testing.T) {
	withExif := imagingtest.JPEGWithExif(t, 4, 4, imagingtest.Exif{Orientation: 6})
	stripped := stripExifSegments(withExif)

	assert.Nil(t, findExifPayload(stripped))
	assert.Equal(t, imagingtest.JPEG(t, 4, 4), stripped)
}
