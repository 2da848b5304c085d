// photomap extracts GPS data from photo albums and writes the data files for a static photo map.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"k8s.io/klog/v2"

	"github.com/fsnotify/fsnotify"
	"github.com/tstromberg/photomap/pkg/photomap"
)

var defaults = photomap.DefaultConfig()

var (
	configPath = flag.String("config", "", "Location of an optional TOML config file")
	inDir      = flag.String("in", defaults.InDir, "Location of album directories")
	photosOut  = flag.String("photos-out", defaults.PhotosOutDir, "Directory to copy albums into before scanning (empty to scan in place)")
	outFile    = flag.String("out", defaults.OutFile, "Data file to write in single layout")
	outDir     = flag.String("out-dir", defaults.OutDir, "Script directory to write in split layout")
	layout     = flag.String("layout", defaults.Layout, "Output layout: single or split")
	baseURL    = flag.String("base-url", defaults.BaseURL, "URL prefix for photo paths, for example s3://bucket/photos")
	scriptURL  = flag.String("script-url", defaults.ScriptURL, "URL prefix the split layout loads album scripts from")
	backend    = flag.String("backend", defaults.Backend, "Metadata backend: goexif or exiftool")
	exts       = flag.String("ext", strings.Join(defaults.Extensions, ","), "Comma-separated image extensions to scan")
	workers    = flag.Int("workers", defaults.Workers, "Number of files to read concurrently")
	thumbDir   = flag.String("thumb-dir", defaults.ThumbDir, "Directory for popup thumbnails")
	thumbSize  = flag.Int("thumb-size", defaults.ThumbSize, "Thumbnail height in pixels (0 disables thumbnails)")
	publishURL = flag.String("publish", defaults.PublishURL, "Bucket URL to upload output to, for example s3://bucket")
	publishAll = flag.Bool("publish-photos", defaults.PublishPhotos, "Upload album photos along with data files")
	listen     = flag.Bool("listen", false, "serve content via HTTP")
	addr       = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
	watchFlag  = flag.Bool("watch", false, "watch for changes to the album directory and rebuild")
	serveDir   = flag.String("serve-dir", ".", "directory to serve in listen mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	c, err := photomap.LoadConfig(*configPath)
	if err != nil {
		klog.Exitf("config: %v", err)
	}
	applyFlags(c)

	if err := c.Validate(); err != nil {
		klog.Exitf("invalid config: %v", err)
	}

	ctx := context.Background()
	build(ctx, c)

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(ctx, c); err != nil {
				klog.Errorf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(*serveDir, *addr)
		}()
	}

	wg.Wait()
	klog.Infof("Photo data extraction complete!")
}

// applyFlags overrides config file values with flags that were set on the command line.
func applyFlags(c *photomap.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			c.InDir = *inDir
		case "photos-out":
			c.PhotosOutDir = *photosOut
		case "out":
			c.OutFile = *outFile
		case "out-dir":
			c.OutDir = *outDir
		case "layout":
			c.Layout = *layout
		case "base-url":
			c.BaseURL = *baseURL
		case "script-url":
			c.ScriptURL = *scriptURL
		case "backend":
			c.Backend = *backend
		case "ext":
			c.Extensions = strings.Split(*exts, ",")
		case "workers":
			c.Workers = *workers
		case "thumb-dir":
			c.ThumbDir = *thumbDir
		case "thumb-size":
			c.ThumbSize = *thumbSize
		case "publish":
			c.PublishURL = *publishURL
		case "publish-photos":
			c.PublishPhotos = *publishAll
		}
	})
}

// build collects and renders. Failures are logged rather than fatal, so a run always completes.
func build(ctx context.Context, c *photomap.Config) {
	a, err := photomap.Collect(c)
	if err != nil {
		klog.Errorf("collect failed: %v", err)
		return
	}

	files, err := photomap.Render(c, a)
	if err != nil {
		klog.Errorf("render failed: %v", err)
		return
	}

	if c.PublishURL != "" {
		klog.Infof("publishing %d files to %s ...", len(files), c.PublishURL)
		if err := photomap.Publish(ctx, c, a, files); err != nil {
			klog.Errorf("publish failed: %v", err)
		}
	}
}

// serve serves a static web directory via HTTP
func serve(path string, addr string) {
	fs := http.FileServer(http.Dir(path))
	http.Handle("/", fs)

	klog.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// watch watches the album tree for changes and rebuilds. Directories are
// re-added after each rebuild so new albums and subdirectories are picked up.
func watch(ctx context.Context, c *photomap.Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := map[string]bool{}
	if err := addDirs(w, c.InDir, watched); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %s", event)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				build(ctx, c)
				if err := addDirs(w, c.InDir, watched); err != nil {
					klog.Errorf("rewatch: %v", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// addDirs watches every directory under root that is not already watched.
func addDirs(w *fsnotify.Watcher, root string, watched map[string]bool) error {
	dirs, err := photomap.Dirs(root)
	if err != nil {
		return fmt.Errorf("list dirs: %w", err)
	}

	added := 0
	for _, d := range dirs {
		if watched[d] {
			continue
		}
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
		watched[d] = true
		added++
	}

	// removed directories drop out of the watcher on their own
	for d := range watched {
		if !slices.Contains(dirs, d) {
			delete(watched, d)
		}
	}

	if added > 0 {
		klog.Infof("watching %d dirs (%d new) ...", len(watched), added)
	}
	return nil
}
