package imaging

import (
	"bytes"
	"encoding/binary"
)

const (
	markerSOI  = 0xD8
	markerAPP1 = 0xE1

	// APP1 length field is 16 bits and counts itself.
	maxAPP1Payload = 0xFFFF - 2
)

var (
	exifHeader  = []byte("Exif\x00\x00")
	tiffHeaders = [][]byte{[]byte("II*\x00"), []byte("MM\x00*")}
	pngEXIfType = []byte("eXIf")
)

func isJPEG(buf []byte) bool {
	return len(buf) > 2 && buf[0] == 0xFF && buf[1] == markerSOI
}

func startsWithTIFF(buf []byte) bool {
	for _, h := range tiffHeaders {
		if bytes.HasPrefix(buf, h) {
			return true
		}
	}
	return false
}

// findExifPayload locates an EXIF block anywhere in buf: a JPEG APP1 segment
// in any position, a bare "Exif\0\0" block inside another container, or a PNG
// eXIf chunk. The result always starts with the "Exif\0\0" header.
func findExifPayload(buf []byte) []byte {
	for offset := 0; offset < len(buf); {
		i := bytes.Index(buf[offset:], exifHeader)
		if i < 0 {
			break
		}
		start := offset + i
		if startsWithTIFF(buf[start+len(exifHeader):]) {
			end := len(buf)
			// inside an APP1 segment the length prefix tells where the block ends
			if start >= 4 && buf[start-4] == 0xFF && buf[start-3] == markerAPP1 {
				segLen := int(binary.BigEndian.Uint16(buf[start-2 : start]))
				if segEnd := start - 2 + segLen; segEnd <= len(buf) && segEnd > start {
					end = segEnd
				}
			}
			return capPayload(buf[start:end])
		}
		offset = start + 1
	}

	if i := bytes.Index(buf, pngEXIfType); i >= 4 {
		size := int(binary.BigEndian.Uint32(buf[i-4 : i]))
		data := buf[i+4:]
		if size <= len(data) && startsWithTIFF(data) {
			return capPayload(exifPayload(data[:size]))
		}
	}

	return nil
}

// exifPayload normalizes raw EXIF bytes from a container into an APP1 payload.
// Containers disagree on whether the "Exif\0\0" header or an offset prefix is present,
// so the TIFF header is searched for near the start.
func exifPayload(raw []byte) []byte {
	if bytes.HasPrefix(raw, exifHeader) {
		return raw
	}
	limit := min(len(raw), 16)
	for i := 0; i < limit; i++ {
		if startsWithTIFF(raw[i:]) {
			return append(append([]byte{}, exifHeader...), raw[i:]...)
		}
	}
	return nil
}

func capPayload(p []byte) []byte {
	if len(p) > maxAPP1Payload {
		return p[:maxAPP1Payload]
	}
	return p
}

// spliceExif inserts payload as the first APP1 segment of a JPEG stream.
func spliceExif(jpegData, payload []byte) []byte {
	if !isJPEG(jpegData) || len(payload) == 0 {
		return jpegData
	}
	payload = capPayload(payload)

	out := make([]byte, 0, len(jpegData)+len(payload)+4)
	out = append(out, 0xFF, markerSOI, 0xFF, markerAPP1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	out = append(out, jpegData[2:]...)
	return out
}
