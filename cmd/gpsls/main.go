// gpsls lists the geotagged photos beneath each directory given on the command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/tstromberg/photomap/pkg/photomap"
)

var (
	backend = flag.String("backend", photomap.BackendGoexif, "Metadata backend: goexif or exiftool")
	all     = flag.Bool("a", false, "also list files without GPS data")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if len(flag.Args()) == 0 {
		klog.Exitf("usage: %s [-backend goexif|exiftool] <dir> [dir ...]", os.Args[0])
	}

	r, err := photomap.NewMetaReader(*backend)
	if err != nil {
		klog.Exitf("reader: %v", err)
	}
	defer r.Close()

	for _, dir := range flag.Args() {
		if *all {
			listAll(r, dir)
			continue
		}

		rs, err := photomap.Find(dir, r, photomap.FindOpts{})
		if err != nil {
			klog.Errorf("find %s: %v", dir, err)
			continue
		}

		for _, rec := range rs {
			ts := "-"
			if rec.DateTime != nil {
				ts = *rec.DateTime
			}
			fmt.Printf("%s\t%.6f\t%.6f\t%s\n", rec.Path, rec.Latitude, rec.Longitude, ts)
		}
	}
}

// listAll prints the raw metadata for every image, including ones that would be dropped.
func listAll(r photomap.MetaReader, dir string) {
	paths, err := photomap.Images(dir, photomap.DefaultExtensions)
	if err != nil {
		klog.Errorf("walk %s: %v", dir, err)
		return
	}

	for _, p := range paths {
		m, err := r.Read(p)
		if err != nil {
			fmt.Printf("%s\terror: %v\n", p, err)
			continue
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", p, coord(m.Latitude), coord(m.Longitude), str(m.DateTime))
	}
}

func coord(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f", *f)
}

func str(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
