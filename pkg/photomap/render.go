package photomap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"k8s.io/klog/v2"
)

//go:embed assets/photo-data.js.tmpl
var photoDataTmpl string

//go:embed assets/albums.js.tmpl
var albumsIndexTmpl string

//go:embed assets/album.js.tmpl
var albumTmpl string

const (
	photoDataVar = "const PHOTO_DATA = "
	albumDataVar = "window.ALBUM_DATA = "
)

// Render writes the JavaScript data files for an assembly and returns the paths written.
func Render(c *Config, a *Assembly) ([]string, error) {
	switch c.Layout {
	case LayoutSplit:
		return writeSplit(c, a)
	case LayoutSingle, "":
		p, err := writeSingle(c, a)
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	}
	return nil, fmt.Errorf("unknown layout %q", c.Layout)
}

func writeSingle(c *Config, a *Assembly) (string, error) {
	bs, err := renderJS(photoDataTmpl, a.Records(), map[string]string{
		"BaseURL": strings.TrimSuffix(c.BaseURL, "/"),
	})
	if err != nil {
		return "", fmt.Errorf("render photo data: %w", err)
	}

	klog.Infof("Writing photo data for %d albums to %s", len(a.Albums), c.OutFile)
	return c.OutFile, writeFile(c.OutFile, bs)
}

func writeSplit(c *Config, a *Assembly) ([]string, error) {
	scriptDir := filepath.Join(c.OutDir, "albums")
	written := []string{}

	for _, al := range a.Albums {
		rs := al.Records
		if rs == nil {
			rs = []*Record{}
		}

		name, err := json.Marshal(al.Name)
		if err != nil {
			return written, fmt.Errorf("marshal name: %w", err)
		}

		bs, err := renderJS(albumTmpl, rs, map[string]string{"Name": string(name)})
		if err != nil {
			return written, fmt.Errorf("render album %s: %w", al.Name, err)
		}

		p := filepath.Join(scriptDir, al.Name+".js")
		klog.V(1).Infof("Writing %d records to %s", len(rs), p)
		if err := writeFile(p, bs); err != nil {
			return written, err
		}
		written = append(written, p)
	}

	bs, err := renderJS(albumsIndexTmpl, a.Names(), map[string]string{
		"BaseURL":   strings.TrimSuffix(c.BaseURL, "/"),
		"ScriptDir": c.scriptURL(),
	})
	if err != nil {
		return written, fmt.Errorf("render album index: %w", err)
	}

	p := filepath.Join(c.OutDir, "albums.js")
	klog.Infof("Writing album index with %d albums to %s", len(a.Albums), p)
	if err := writeFile(p, bs); err != nil {
		return written, err
	}

	return append(written, p), nil
}

// renderJS executes a template with data embedded as an indented JSON literal.
func renderJS(ts string, data any, vars map[string]string) ([]byte, error) {
	tmpl, err := template.New("js").Parse(ts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	js, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	in := map[string]string{"Data": string(js)}
	for k, v := range vars {
		in[k] = v
	}

	var tpl bytes.Buffer
	if err = tmpl.Execute(&tpl, in); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	return tpl.Bytes(), nil
}

func writeFile(path string, bs []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ParseDataFile reads records back out of a file written by Render.
// Per-album scripts are keyed by their base name.
func ParseDataFile(path string) (map[string][]*Record, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	s := string(bs)

	if i := strings.Index(s, photoDataVar); i >= 0 {
		m := map[string][]*Record{}
		if err := json.NewDecoder(strings.NewReader(s[i+len(photoDataVar):])).Decode(&m); err != nil {
			return nil, fmt.Errorf("decode PHOTO_DATA: %w", err)
		}
		return m, nil
	}

	if i := strings.Index(s, albumDataVar); i >= 0 {
		rs := []*Record{}
		if err := json.NewDecoder(strings.NewReader(s[i+len(albumDataVar):])).Decode(&rs); err != nil {
			return nil, fmt.Errorf("decode ALBUM_DATA: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return map[string][]*Record{name: rs}, nil
	}

	return nil, fmt.Errorf("no photo data found in %s", path)
}
