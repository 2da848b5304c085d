package photomap

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// DefaultExtensions are the image types scanned for metadata.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "tiff", "webp", "heic"}

// FindOpts control a scan.
type FindOpts struct {
	// PathPrefix is prepended to each record's slash-separated relative path.
	PathPrefix string
	Extensions []string
	Workers    int
}

func isImage(path string, exts []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range exts {
		if strings.EqualFold(ext, strings.TrimPrefix(e, ".")) {
			return true
		}
	}
	return false
}

// Images returns image paths beneath root in walk order.
func Images(root string, exts []string) ([]string, error) {
	found := []string{}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}

			if de.IsDir() {
				return nil
			}

			if isImage(path, exts) {
				klog.V(1).Infof("found %s", path)
				found = append(found, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Errorf("walk failure at %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})

	return found, err
}

// Find returns a record for every geotagged image beneath root.
//
// Files that cannot be read are logged and skipped, as are files without both
// coordinates. A missing root yields no records.
func Find(root string, r MetaReader, o FindOpts) ([]*Record, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		klog.Warningf("%s does not exist", root)
		return []*Record{}, nil
	}

	paths, err := Images(root, o.Extensions)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		klog.Infof("No photos found in %s", root)
		return []*Record{}, nil
	}

	// indexed by walk position so parallel reads keep the sequential order
	metas := make([]*Meta, len(paths))
	read := func(i int) {
		p := paths[i]
		klog.Infof("Processing %s (%d/%d)", filepath.Base(p), i+1, len(paths))
		m, err := r.Read(p)
		if err != nil {
			klog.Errorf("Error reading GPS data from %s: %v", p, err)
			return
		}
		metas[i] = &m
	}

	if o.Workers > 1 {
		var g errgroup.Group
		g.SetLimit(o.Workers)
		for i := range paths {
			i := i
			g.Go(func() error {
				read(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range paths {
			read(i)
		}
	}

	found := []*Record{}
	for i, m := range metas {
		if m == nil || !m.HasLocation() {
			continue
		}

		rec, err := newRecord(root, paths[i], *m, o.PathPrefix)
		if err != nil {
			klog.Errorf("skipping %s: %v", paths[i], err)
			continue
		}
		found = append(found, rec)
	}

	return found, nil
}

func newRecord(root string, path string, m Meta, prefix string) (*Record, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}

	web := filepath.ToSlash(rel)
	if prefix != "" {
		web = strings.TrimSuffix(prefix, "/") + "/" + web
	}

	return &Record{
		Filename:  filepath.Base(path),
		Path:      web,
		Latitude:  *m.Latitude,
		Longitude: *m.Longitude,
		DateTime:  m.DateTime,
		InPath:    path,
		RelPath:   rel,
	}, nil
}

// Dirs returns root and every non-hidden directory beneath it.
func Dirs(root string) ([]string, error) {
	found := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				found = append(found, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Errorf("walk failure at %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	return found, err
}
