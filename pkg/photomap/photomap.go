// Package photomap extracts GPS coordinates from photo albums and emits static data files for a browser map.
package photomap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Layouts of the emitted JavaScript.
const (
	LayoutSingle = "single"
	LayoutSplit  = "split"
)

// Config holds configuration for photomap.
type Config struct {
	InDir        string   `toml:"in_dir"`
	PhotosOutDir string   `toml:"photos_out_dir"`
	OutFile      string   `toml:"out_file"`
	OutDir       string   `toml:"out_dir"`
	Layout       string   `toml:"layout"`
	BaseURL      string   `toml:"base_url"`
	ScriptURL    string   `toml:"script_url"`
	Backend      string   `toml:"backend"`
	Extensions   []string `toml:"extensions"`
	Workers      int      `toml:"workers"`

	ThumbDir  string `toml:"thumb_dir"`
	ThumbSize int    `toml:"thumb_size"`

	PublishURL    string `toml:"publish_url"`
	PublishPhotos bool   `toml:"publish_photos"`
}

// DefaultConfig returns the settings the original batch run used.
func DefaultConfig() *Config {
	return &Config{
		InDir:        "../photos",
		PhotosOutDir: "photos",
		OutFile:      "js/photo-data.js",
		OutDir:       "js",
		Layout:       LayoutSingle,
		BaseURL:      "photos",
		ScriptURL:    "js/albums",
		Backend:      BackendGoexif,
		Extensions:   append([]string{}, DefaultExtensions...),
		Workers:      1,
		ThumbDir:     "thumbs",
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return c, c.Validate()
}

// Validate checks for settings that cannot produce output.
func (c *Config) Validate() error {
	var errs []error
	switch c.Layout {
	case LayoutSingle, LayoutSplit:
	default:
		errs = append(errs, fmt.Errorf("unknown layout %q", c.Layout))
	}

	switch c.Backend {
	case BackendGoexif, BackendExiftool:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}

	if c.InDir == "" {
		errs = append(errs, errors.New("in_dir is required"))
	}

	if c.ThumbSize < 0 {
		errs = append(errs, fmt.Errorf("thumb_size must not be negative, got %d", c.ThumbSize))
	}

	return errors.Join(errs...)
}

// scriptURL is the web prefix per-album scripts are loaded from in the split layout.
// Without one, a relative OutDir doubles as the URL; an absolute one cannot.
func (c *Config) scriptURL() string {
	if c.ScriptURL != "" {
		return strings.TrimSuffix(c.ScriptURL, "/")
	}
	if filepath.IsAbs(c.OutDir) {
		return "albums"
	}
	return filepath.ToSlash(filepath.Join(c.OutDir, "albums"))
}

// albumURL returns the web path prefix for an album, preserving URL schemes such as s3://.
func (c *Config) albumURL(album string) string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if base == "" {
		return album
	}
	return base + "/" + album
}
