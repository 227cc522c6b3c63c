package disambig

import (
	"testing"

	"github.com/kortschak/msfeature/segment"
)

func newSegment(w, granularity int) *segment.Segment {
	return &segment.Segment{
		Values:      make([]float64, 2*w+1),
		CenterMZ:    500,
		Granularity: granularity,
		W:           w,
	}
}

func TestRemoveOverlappingIonsKeepsSingleUncontestedPeak(t *testing.T) {
	seg := newSegment(10, 10)
	seg.Values[seg.W] = 100
	toothCenter := toothOffset(1, 2, seg.Granularity)
	seg.Values[seg.W+toothCenter] = 50

	out := RemoveOverlappingIons(seg, 2, 3, 0.02)
	if out.Values[out.W+toothCenter] != 50 {
		t.Fatalf("expected uncontested tooth peak kept, got %v", out.Values[out.W+toothCenter])
	}
}

func TestRemoveOverlappingIonsPicksNearestAndDropsWeakFarPeak(t *testing.T) {
	seg := newSegment(100, 100)
	seg.Values[seg.W] = 100
	toothCenter := toothOffset(1, 2, seg.Granularity)
	e := ErrorRangeBucketRadius(0.02, seg.Granularity)
	if e < 1 {
		e = 1
	}
	// Two candidates within the window: one exactly at center, one off by
	// e buckets and below the previous-tooth intensity floor.
	seg.Values[seg.W+toothCenter] = 50
	far := toothCenter + e
	if far != toothCenter {
		seg.Values[seg.W+far] = 1 // below 5% of prevKept=100
	}

	out := RemoveOverlappingIons(seg, 2, 3, 0.02)
	if out.Values[out.W+toothCenter] != 50 {
		t.Fatalf("expected nearest-to-center peak kept, got %v", out.Values[out.W+toothCenter])
	}
	if far != toothCenter && out.Values[out.W+far] != 0 {
		t.Fatalf("expected far weak peak dropped, got %v", out.Values[out.W+far])
	}
}
