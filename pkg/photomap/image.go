package photomap

// Meta is the location and time metadata read from a single image.
type Meta struct {
	Latitude  *float64
	Longitude *float64
	DateTime  *string
}

// HasLocation reports whether both coordinates were resolved.
func (m Meta) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Record represents a geotagged photo as the map consumes it.
type Record struct {
	Filename  string  `json:"filename"`
	Path      string  `json:"path"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	DateTime  *string `json:"datetime"`
	Thumbnail string  `json:"thumbnail,omitempty"`

	// InPath is the location the record was read from.
	InPath  string `json:"-"`
	// RelPath is InPath relative to the album root.
	RelPath string `json:"-"`
}

// Album represents a directory of photos from one outing.
type Album struct {
	Name    string
	InPath  string
	GeoJSON string

	Records []*Record
}

// Assembly is the collection of albums gathered in one run.
type Assembly struct {
	Albums []*Album
}

// Records returns the album name to record mapping that is emitted.
func (a *Assembly) Records() map[string][]*Record {
	m := make(map[string][]*Record, len(a.Albums))
	for _, al := range a.Albums {
		rs := al.Records
		if rs == nil {
			rs = []*Record{}
		}
		m[al.Name] = rs
	}
	return m
}

// Names returns album names in assembly order.
func (a *Assembly) Names() []string {
	names := make([]string, 0, len(a.Albums))
	for _, al := range a.Albums {
		names = append(names, al.Name)
	}
	return names
}
