package photomap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"
)

// Metadata backends.
const (
	BackendGoexif   = "goexif"
	BackendExiftool = "exiftool"
)

// ErrUnknownBackend is returned for a backend name that is not supported.
var ErrUnknownBackend = errors.New("unknown metadata backend")

// MetaReader extracts location and time metadata from image files.
//
// Read only returns an error when the file itself cannot be read. Missing or
// undecodable metadata yields an empty Meta.
type MetaReader interface {
	Read(path string) (Meta, error)
	Close() error
}

// NewMetaReader returns the reader for the named backend.
func NewMetaReader(backend string) (MetaReader, error) {
	switch backend {
	case BackendGoexif, "":
		return &goexifReader{}, nil
	case BackendExiftool:
		et, err := exiftool.NewExiftool()
		if err != nil {
			return nil, fmt.Errorf("exiftool: %w", err)
		}
		return &exiftoolReader{et: et}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// goexifReader decodes EXIF in-process. It understands JPEG and TIFF containers.
type goexifReader struct{}

func (goexifReader) Close() error { return nil }

func (goexifReader) Read(path string) (Meta, error) {
	m := Meta{}

	f, err := os.Open(path)
	if err != nil {
		return m, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		klog.V(1).Infof("no exif in %s: %v", path, err)
		return m, nil
	}
	if err != nil {
		// a broken Exif or Interop sub-IFD leaves the GPS IFD readable
		klog.V(1).Infof("partial exif in %s: %v", path, err)
	}

	m.Latitude = gpsCoord(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	m.Longitude = gpsCoord(x, exif.GPSLongitude, exif.GPSLongitudeRef)

	if t, err := x.Get(exif.DateTime); err == nil {
		if s, err := t.StringVal(); err == nil {
			if s = strings.TrimRight(s, "\x00 "); s != "" {
				m.DateTime = &s
			}
		}
	}

	return m, nil
}

// gpsCoord reads a three-rational GPS coordinate and its hemisphere reference.
func gpsCoord(x *exif.Exif, field exif.FieldName, refField exif.FieldName) *float64 {
	t, err := x.Get(field)
	if err != nil {
		return nil
	}

	dms, err := rationals(t)
	if err != nil {
		klog.V(1).Infof("bad %s: %v", field, err)
		return nil
	}

	ref := ""
	if rt, err := x.Get(refField); err == nil {
		ref, _ = rt.StringVal()
	}

	v := ToDecimal(dms[0], dms[1], dms[2], ref)
	return &v
}

func rationals(t *tiff.Tag) ([3]float64, error) {
	out := [3]float64{}
	if t.Count < 3 {
		return out, fmt.Errorf("want 3 values, got %d", t.Count)
	}

	for i := range out {
		num, den, err := t.Rat2(i)
		if err != nil {
			return out, err
		}
		if den == 0 {
			return out, fmt.Errorf("zero denominator at %d", i)
		}
		out[i] = float64(num) / float64(den)
	}
	return out, nil
}

// exiftoolReader hands files to a long-running exiftool process. It covers HEIC, WebP and PNG.
type exiftoolReader struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

func (r *exiftoolReader) Close() error {
	return r.et.Close()
}

func (r *exiftoolReader) Read(path string) (Meta, error) {
	m := Meta{}
	if _, err := os.Stat(path); err != nil {
		return m, fmt.Errorf("stat: %w", err)
	}

	r.mu.Lock()
	fis := r.et.ExtractMetadata(path)
	r.mu.Unlock()

	if len(fis) == 0 {
		return m, fmt.Errorf("no metadata returned for %s", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return m, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	m.Latitude = exiftoolCoord(fi, "GPSLatitude", "GPSLatitudeRef")
	m.Longitude = exiftoolCoord(fi, "GPSLongitude", "GPSLongitudeRef")

	// exiftool calls IFD0 DateTime "ModifyDate"
	if ds, err := fi.GetString("ModifyDate"); err == nil && ds != "" {
		m.DateTime = &ds
	}

	return m, nil
}

func exiftoolCoord(fi exiftool.FileMetadata, field string, refField string) *float64 {
	s, err := fi.GetString(field)
	if err != nil {
		return nil
	}

	v, hemi, err := ParseDMS(s)
	if err != nil {
		klog.Warningf("unable to parse %s for %s: %v", field, fi.File, err)
		return nil
	}

	if hemi == "" {
		hemi, _ = fi.GetString(refField)
	}

	v = applyRef(v, hemi)
	return &v
}
