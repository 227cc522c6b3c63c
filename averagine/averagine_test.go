package averagine

import (
	"math"
	"testing"
)

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func TestAccurateSumsToOne(t *testing.T) {
	tbl := New(AccurateParams)
	for _, mass := range []float64{500, 2400, 5000, 9000} {
		fr := tbl.Fractions(mass)
		if len(fr) == 0 {
			t.Fatalf("mass %v: empty envelope", mass)
		}
		if got := sum(fr); math.Abs(got-1) > 1e-6 {
			t.Errorf("mass %v: sum = %v, want ~1", mass, got)
		}
	}
}

func TestAccurateMass2400HasSevenIsotopes(t *testing.T) {
	tbl := New(AccurateParams)
	fr := tbl.Fractions(2400)
	if len(fr) != 7 {
		t.Errorf("len(fr) = %d, want 7", len(fr))
	}
	if got := sum(fr); math.Abs(got-1) > 1e-6 {
		t.Errorf("sum = %v, want ~1", got)
	}
}

func TestLegacyNotNormalized(t *testing.T) {
	tbl := New(LegacyParams)
	fr := tbl.Fractions(9000)
	if got := sum(fr); got >= 0.999 {
		t.Errorf("legacy envelope at high mass sums to %v, expected it to knowingly fall short of 1", got)
	}
}

func TestOutOfRangeClamps(t *testing.T) {
	tbl := New(AccurateParams)
	low := tbl.Fractions(-100)
	first := tbl.rows[0].Fractions
	if sum(low) != sum(first) {
		t.Errorf("negative mass did not clamp to first row")
	}
	high := tbl.Fractions(1e9)
	last := tbl.rows[len(tbl.rows)-1].Fractions
	if sum(high) != sum(last) {
		t.Errorf("huge mass did not clamp to last row")
	}
}

func TestInterpolatedBetweenRows(t *testing.T) {
	tbl := New(AccurateParams)
	a := tbl.Interpolated(1000, 0)
	b := tbl.Interpolated(1005, 0)
	c := tbl.Interpolated(1010, 0)
	if !((a >= b && b >= c) || (a <= b && b <= c)) {
		t.Errorf("interpolation not monotone between rows: %v %v %v", a, b, c)
	}
}
