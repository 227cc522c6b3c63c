package segment

import (
	"testing"

	"github.com/kortschak/msfeature/model"
)

func TestHashUnhashRoundTrip(t *testing.T) {
	mz := 751.88
	b := Hash(mz, Granularity)
	got := Unhash(b, Granularity)
	if diff := got - mz; diff > 1/float64(Granularity) || diff < -1/float64(Granularity) {
		t.Errorf("unhash(hash(%v)) = %v, off by more than one bucket", mz, got)
	}
}

func TestExtractFromCentersOnCandidate(t *testing.T) {
	spectrum := model.Spectrum{
		{MZ: 751.88, Intensity: 1.583e8},
		{MZ: 752.38, Intensity: 1.196e8},
		{MZ: 752.88, Intensity: 5.525e7},
	}
	seg := ExtractFrom(spectrum, 751.88, Radius, Granularity)
	if seg.Center() != 1.583e8 {
		t.Errorf("center value = %v, want 1.583e8", seg.Center())
	}
	if seg.Len() != 2*seg.W+1 {
		t.Errorf("len = %d, want %d", seg.Len(), 2*seg.W+1)
	}
}

func TestFullScanLoadAndSubtract(t *testing.T) {
	fs, err := NewFullScan(3100, Granularity)
	if err != nil {
		t.Fatal(err)
	}
	spectrum := model.Spectrum{{MZ: 751.88, Intensity: 1.583e8}}
	if err := fs.Load(spectrum); err != nil {
		t.Fatal(err)
	}
	b := Hash(751.88, Granularity)
	if got := fs.Get(b); got != 1.583e8 {
		t.Errorf("Get(%d) = %v, want 1.583e8", b, got)
	}
	if err := fs.Subtract(b, []float64{1.583e8}); err != nil {
		t.Fatal(err)
	}
	if got := fs.Get(b); got != 0 {
		t.Errorf("after subtract Get(%d) = %v, want 0", b, got)
	}

	// Subtracting more than present clamps to zero, never negative.
	if err := fs.Load(spectrum); err != nil {
		t.Fatal(err)
	}
	if err := fs.Subtract(b, []float64{1.583e8 * 2}); err != nil {
		t.Fatal(err)
	}
	if got := fs.Get(b); got != 0 {
		t.Errorf("over-subtract Get(%d) = %v, want clamped 0", b, got)
	}
}

func TestFullScanExtractSegment(t *testing.T) {
	fs, err := NewFullScan(3100, Granularity)
	if err != nil {
		t.Fatal(err)
	}
	spectrum := model.Spectrum{
		{MZ: 751.88, Intensity: 1.583e8},
		{MZ: 752.38, Intensity: 1.196e8},
	}
	if err := fs.Load(spectrum); err != nil {
		t.Fatal(err)
	}
	seg := fs.Extract(751.88, Radius)
	if seg.Center() != 1.583e8 {
		t.Errorf("center = %v, want 1.583e8", seg.Center())
	}
}

func TestExtractOutOfRangeBucketsAreZero(t *testing.T) {
	spectrum := model.Spectrum{{MZ: 1, Intensity: 10}}
	seg := ExtractFrom(spectrum, 1, Radius, Granularity)
	if !seg.IsZero() {
		// Candidate near the low edge should still place the one real
		// point at the center; everything else stays zero.
		for i, v := range seg.Values {
			if i != seg.W && v != 0 {
				t.Errorf("index %d = %v, want 0", i, v)
			}
		}
	}
}
