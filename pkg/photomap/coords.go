package photomap

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ToDecimal converts degrees, minutes and seconds to decimal degrees.
// A southern or western reference negates the result.
func ToDecimal(d, m, s float64, ref string) float64 {
	v := d + m/60 + s/3600
	if negativeRef(ref) {
		return -v
	}
	return v
}

// applyRef signs v according to ref, leaving it untouched when ref is empty.
func applyRef(v float64, ref string) float64 {
	if negativeRef(ref) {
		return -math.Abs(v)
	}
	return v
}

func negativeRef(ref string) bool {
	ref = strings.TrimSpace(strings.ToUpper(ref))
	return strings.HasPrefix(ref, "S") || strings.HasPrefix(ref, "W")
}

// exiftool renders coordinates as: 40 deg 45' 30.00" N
var dmsRe = regexp.MustCompile(`^\s*([0-9.]+)\s*deg\s*(?:([0-9.]+)'\s*)?(?:([0-9.]+)"\s*)?([NSEWnsew])?\s*$`)

// ParseDMS parses a coordinate as printed by exiftool, or a plain decimal number.
// Plain decimals are returned as-is; DMS forms return the magnitude and the hemisphere letter if one was present.
func ParseDMS(s string) (float64, string, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f, "", nil
	}

	ms := dmsRe.FindStringSubmatch(s)
	if ms == nil {
		return 0, "", fmt.Errorf("unparseable coordinate %q", s)
	}

	parts := [3]float64{}
	for i, p := range ms[1:4] {
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, "", fmt.Errorf("parse %q: %w", p, err)
		}
		parts[i] = f
	}

	return ToDecimal(parts[0], parts[1], parts[2], ""), strings.ToUpper(ms[4]), nil
}
