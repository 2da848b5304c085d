package photomap

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

const (
	tiffASCII    = 2
	tiffLong     = 4
	tiffRational = 5

	tagDateTime = 0x0132
	tagExifIFD  = 0x8769
	tagGPSIFD   = 0x8825
	tagLatRef   = 0x0001
	tagLat      = 0x0002
	tagLonRef   = 0x0003
	tagLon      = 0x0004
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) tiffEntry {
	b := append([]byte(s), 0)
	return tiffEntry{tag: tag, typ: tiffASCII, count: uint32(len(b)), data: b}
}

func dmsEntry(tag uint16, d, m, s uint32) tiffEntry {
	var b []byte
	for _, v := range []uint32{d, m, s} {
		b = binary.LittleEndian.AppendUint32(b, v)
		b = binary.LittleEndian.AppendUint32(b, 1)
	}
	return tiffEntry{tag: tag, typ: tiffRational, count: 3, data: b}
}

func longEntry(tag uint16, v uint32) tiffEntry {
	return tiffEntry{tag: tag, typ: tiffLong, count: 1, data: binary.LittleEndian.AppendUint32(nil, v)}
}

// encodeIFD lays out an IFD at off with its out-of-line values directly after it.
func encodeIFD(entries []tiffEntry, off uint32) []byte {
	le := binary.LittleEndian
	size := uint32(2 + 12*len(entries) + 4)

	var head, tail []byte
	head = le.AppendUint16(head, uint16(len(entries)))
	for _, e := range entries {
		head = le.AppendUint16(head, e.tag)
		head = le.AppendUint16(head, e.typ)
		head = le.AppendUint32(head, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			head = append(head, v...)
			continue
		}
		head = le.AppendUint32(head, off+size+uint32(len(tail)))
		tail = append(tail, e.data...)
		if len(tail)%2 == 1 {
			tail = append(tail, 0)
		}
	}
	head = le.AppendUint32(head, 0)
	return append(head, tail...)
}

// exifTIFF returns a little-endian TIFF block holding ifd0 and, when gps is non-nil, a GPS IFD.
func exifTIFF(ifd0 []tiffEntry, gps []tiffEntry) []byte {
	hdr := []byte{'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00}
	if gps == nil {
		return append(hdr, encodeIFD(ifd0, 8)...)
	}

	withPtr := append(append([]tiffEntry{}, ifd0...), longEntry(tagGPSIFD, 0))
	gpsOff := uint32(8 + len(encodeIFD(withPtr, 8)))
	withPtr[len(withPtr)-1] = longEntry(tagGPSIFD, gpsOff)

	out := append(hdr, encodeIFD(withPtr, 8)...)
	return append(out, encodeIFD(gps, gpsOff)...)
}

// app1 wraps a TIFF block in a JPEG APP1 Exif segment.
func app1(tiff []byte) []byte {
	seg := append([]byte("Exif\x00\x00"), tiff...)
	out := []byte{0xff, 0xe1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(seg)+2))
	return append(out, seg...)
}

// pixels returns a small decodable JPEG.
func pixels(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 5), 128, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// photo describes a fixture image.
type photo struct {
	lat, lon       []uint32
	latRef, lonRef string
	dateTime       string
	noExif         bool
	badExifIFD     bool
}

// utah is 40°45'30"N 111°30'0"W.
var utah = photo{
	lat: []uint32{40, 45, 30}, latRef: "N",
	lon: []uint32{111, 30, 0}, lonRef: "W",
	dateTime: "2025:07:09 06:15:00",
}

func (p photo) jpeg(t *testing.T) []byte {
	t.Helper()
	body := pixels(t)
	if p.noExif {
		return body
	}

	var ifd0 []tiffEntry
	if p.dateTime != "" {
		ifd0 = append(ifd0, asciiEntry(tagDateTime, p.dateTime))
	}
	if p.badExifIFD {
		ifd0 = append(ifd0, longEntry(tagExifIFD, 0xffffff))
	}

	var gps []tiffEntry
	if p.latRef != "" {
		gps = append(gps, asciiEntry(tagLatRef, p.latRef))
	}
	if p.lat != nil {
		gps = append(gps, dmsEntry(tagLat, p.lat[0], p.lat[1], p.lat[2]))
	}
	if p.lonRef != "" {
		gps = append(gps, asciiEntry(tagLonRef, p.lonRef))
	}
	if p.lon != nil {
		gps = append(gps, dmsEntry(tagLon, p.lon[0], p.lon[1], p.lon[2]))
	}

	out := append([]byte{}, body[:2]...)
	out = append(out, app1(exifTIFF(ifd0, gps))...)
	return append(out, body[2:]...)
}

func writePhoto(t *testing.T, path string, p photo) {
	t.Helper()
	writeBytes(t, path, p.jpeg(t))
}

func writeBytes(t *testing.T, path string, bs []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
