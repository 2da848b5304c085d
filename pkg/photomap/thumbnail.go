package photomap

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// ThumbQuality is the JPEG quality of map popup thumbnails.
var ThumbQuality = 80

// thumbRelPath mirrors the record's place in its album so same-named photos in different subdirectories do not collide.
func thumbRelPath(rec *Record, y int) string {
	rel := rec.RelPath
	if rel == "" {
		rel = filepath.Base(rec.InPath)
	}
	base := filepath.Base(rel)
	noExt := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(rel), fmt.Sprintf("%s@y%d.jpg", noExt, y))
}

// thumbnail creates a thumbnail of height y for a record in dir, reusing one that is newer than its source.
func thumbnail(rec *Record, dir string, y int) (string, error) {
	path := filepath.Join(dir, thumbRelPath(rec, y))

	sst, err := os.Stat(rec.InPath)
	if err != nil {
		return "", fmt.Errorf("stat: %w", err)
	}

	if dst, err := os.Stat(path); err == nil && dst.Size() > 128 && !sst.ModTime().After(dst.ModTime()) {
		klog.V(1).Infof("%s exists (%d bytes)", path, dst.Size())
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}

	img, err := imgio.Open(rec.InPath)
	if err != nil {
		return "", fmt.Errorf("imgio.Open: %w", err)
	}

	if err := createThumb(img, path, y); err != nil {
		return "", err
	}
	return path, nil
}

func createThumb(i image.Image, path string, y int) error {
	b := i.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("empty image: %+v", b)
	}

	scale := float64(b.Dy()) / float64(y)
	x := max(int(float64(b.Dx())/scale), 1)

	klog.V(1).Infof("creating %dx%d thumb: %s - %+v", x, y, path, b)
	rimg := transform.Resize(i, x, y, transform.Lanczos)
	if err := imgio.Save(path, rimg, imgio.JPEGEncoder(ThumbQuality)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
