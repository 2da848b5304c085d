package photomap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
	"k8s.io/klog/v2"
)

// Publish uploads rendered data files, and optionally album contents, to the bucket at c.PublishURL.
// Data files land under js/ and album files under photos/<album>/, keeping their subdirectories.
func Publish(ctx context.Context, c *Config, a *Assembly, files []string) error {
	bucket, err := blob.OpenBucket(ctx, c.PublishURL)
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	defer bucket.Close()

	for _, f := range files {
		if err := upload(ctx, bucket, f, dataKey(c, f)); err != nil {
			return err
		}
	}

	if !c.PublishPhotos {
		return nil
	}

	for _, al := range a.Albums {
		paths, err := Images(al.InPath, c.Extensions)
		if err != nil {
			return fmt.Errorf("walk album %s: %w", al.Name, err)
		}
		if al.GeoJSON != "" {
			paths = append(paths, al.GeoJSON)
		}

		for _, p := range paths {
			rel, err := filepath.Rel(al.InPath, p)
			if err != nil {
				return fmt.Errorf("rel %s: %w", p, err)
			}
			key := "photos/" + al.Name + "/" + filepath.ToSlash(rel)
			if err := upload(ctx, bucket, p, key); err != nil {
				return err
			}
		}
	}

	return nil
}

func dataKey(c *Config, f string) string {
	root := c.OutDir
	if c.Layout != LayoutSplit {
		root = filepath.Dir(c.OutFile)
	}

	rel, err := filepath.Rel(root, f)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(f)
	}
	return "js/" + filepath.ToSlash(rel)
}

func upload(ctx context.Context, bucket *blob.Bucket, path string, key string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	klog.V(1).Infof("uploading %s -> %s (%d bytes)", path, key, len(bs))
	if err := bucket.WriteAll(ctx, key, bs, nil); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
