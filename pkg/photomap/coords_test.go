package photomap

import "testing"

func TestToDecimal(t *testing.T) {
	tests := []struct {
		d, m, s float64
		ref     string
		want    float64
	}{
		{40, 45, 30, "N", 40.758333333},
		{111, 30, 0, "W", -111.5},
		{111, 30, 0, "E", 111.5},
		{33, 51, 54, "S", -33.865},
		{33, 51, 54, "South", -33.865},
		{0, 0, 36, "s", -0.01},
		{12, 0, 0, "", 12},
		{0, 0, 0, "W", 0},
	}

	for _, tc := range tests {
		got := ToDecimal(tc.d, tc.m, tc.s, tc.ref)
		if !near(got, tc.want) {
			t.Errorf("ToDecimal(%v, %v, %v, %q) = %v, want %v", tc.d, tc.m, tc.s, tc.ref, got, tc.want)
		}
	}
}

func TestToDecimalSignSymmetry(t *testing.T) {
	for _, dms := range [][3]float64{{1, 2, 3}, {89, 59, 59.99}, {179, 0, 0.5}} {
		pos := ToDecimal(dms[0], dms[1], dms[2], "N")
		if want := dms[0] + dms[1]/60 + dms[2]/3600; pos != want {
			t.Errorf("N %v = %v, want %v", dms, pos, want)
		}
		if neg := ToDecimal(dms[0], dms[1], dms[2], "S"); neg != -pos {
			t.Errorf("S %v = %v, want %v", dms, neg, -pos)
		}
		if e, w := ToDecimal(dms[0], dms[1], dms[2], "E"), ToDecimal(dms[0], dms[1], dms[2], "W"); e != -w {
			t.Errorf("E/W %v = %v/%v, want opposites", dms, e, w)
		}
	}
}

func TestParseDMS(t *testing.T) {
	tests := []struct {
		in       string
		want     float64
		wantHemi string
		wantErr  bool
	}{
		{in: `40 deg 45' 30.00" N`, want: 40.758333333, wantHemi: "N"},
		{in: `111 deg 30' 0.00" W`, want: 111.5, wantHemi: "W"},
		{in: `111 deg 30' 0.00"`, want: 111.5},
		{in: `33 deg 51' 54.00" s`, want: 33.865, wantHemi: "S"},
		{in: `12 deg`, want: 12},
		{in: "40.758333", want: 40.758333},
		{in: "-111.5", want: -111.5},
		{in: "north-ish", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, hemi, err := ParseDMS(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDMS(%q) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDMS(%q) error: %v", tc.in, err)
			continue
		}
		if !near(got, tc.want) || hemi != tc.wantHemi {
			t.Errorf("ParseDMS(%q) = %v, %q; want %v, %q", tc.in, got, hemi, tc.want, tc.wantHemi)
		}
	}
}

func TestApplyRef(t *testing.T) {
	if got := applyRef(-111.5, "W"); got != -111.5 {
		t.Errorf("already-negative west = %v", got)
	}
	if got := applyRef(111.5, "West"); got != -111.5 {
		t.Errorf("west = %v", got)
	}
	if got := applyRef(-33.8, ""); got != -33.8 {
		t.Errorf("no ref = %v", got)
	}
}
