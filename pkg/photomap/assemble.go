package photomap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/copy"
	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

// GeoJSONName is the optional per-album track file that is passed through untouched.
const GeoJSONName = "avenza.geojson"

// Collect gathers an assembly of geotagged photos, one album per subdirectory of c.InDir.
func Collect(c *Config) (*Assembly, error) {
	a := &Assembly{Albums: []*Album{}}

	des, err := os.ReadDir(c.InDir)
	if errors.Is(err, fs.ErrNotExist) {
		klog.Warningf("source directory %s does not exist", c.InDir)
		klog.Infof("Extracted data for 0 albums")
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	r, err := NewMetaReader(c.Backend)
	if err != nil {
		return nil, fmt.Errorf("metadata reader: %w", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			klog.Errorf("close reader: %v", err)
		}
	}()

	for _, de := range des {
		if !de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}

		al, err := collectAlbum(c, r, de.Name())
		if err != nil {
			klog.Errorf("album %s: %v", de.Name(), err)
			continue
		}
		a.Albums = append(a.Albums, al)
	}

	sort.Slice(a.Albums, func(i, j int) bool {
		return a.Albums[i].Name < a.Albums[j].Name
	})

	klog.Infof("Extracted data for %d albums", len(a.Albums))
	for _, al := range a.Albums {
		klog.Infof("  %s: %d photos with GPS data", al.Name, len(al.Records))
	}

	return a, nil
}

func collectAlbum(c *Config, r MetaReader, name string) (*Album, error) {
	src := filepath.Join(c.InDir, name)
	klog.Infof("Processing album: %s", name)

	scan := src
	if c.PhotosOutDir != "" {
		dst := filepath.Join(c.PhotosOutDir, name)
		if sameDir(src, dst) {
			return nil, fmt.Errorf("photos output %s is the source directory", dst)
		}
		if err := replaceDir(src, dst); err != nil {
			return nil, fmt.Errorf("copy: %w", err)
		}
		scan = dst
	}

	rs, err := Find(scan, r, FindOpts{
		PathPrefix: c.albumURL(name),
		Extensions: c.Extensions,
		Workers:    c.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	al := &Album{Name: name, InPath: scan, Records: rs}

	gj := filepath.Join(scan, GeoJSONName)
	if _, err := os.Stat(gj); err == nil {
		checkGeoJSON(gj)
		al.GeoJSON = gj
	}

	if c.ThumbSize > 0 {
		for _, rec := range rs {
			t, err := thumbnail(rec, filepath.Join(c.ThumbDir, name), c.ThumbSize)
			if err != nil {
				klog.Warningf("thumbnail for %s: %v", rec.InPath, err)
				continue
			}
			rec.Thumbnail = filepath.ToSlash(t)
		}
	}

	return al, nil
}

// replaceDir replaces dst with a fresh copy of src, so photos deleted upstream do not linger.
func replaceDir(src string, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("remove %s: %w", dst, err)
	}

	return copy.Copy(src, dst, copy.Options{
		Skip: func(_ os.FileInfo, s string, _ string) (bool, error) {
			return strings.HasPrefix(filepath.Base(s), "."), nil
		},
		PreserveTimes: true,
	})
}

func sameDir(a string, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	ba, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aa == ba
}

// checkGeoJSON logs what it can about a companion file; the file is never rewritten.
func checkGeoJSON(path string) {
	bs, err := os.ReadFile(path)
	if err != nil {
		klog.Warningf("read %s: %v", path, err)
		return
	}

	if !gjson.ValidBytes(bs) {
		klog.Warningf("%s is not valid JSON; copying it anyway", path)
		return
	}

	klog.Infof("Found %s with %d features", path, gjson.GetBytes(bs, "features.#").Int())
}
