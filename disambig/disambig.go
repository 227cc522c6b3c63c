// Package disambig implements the Spectra Disambigutron (component E):
// for overlapping charge clusters, narrow each isotope "tooth" of a
// segment to the single nearest observed peak, avoiding decimator
// mismatch when two overlapping clusters share an m/z bin.
package disambig

import (
	"math"

	"github.com/kortschak/msfeature/segment"
)

// ErrorRangeBucketRadius is E, the small bucket radius (hash of 0.02 Da)
// used to window each isotope tooth, per spec.md §4.E.
func ErrorRangeBucketRadius(errorRangeDa float64, granularity int) int {
	return int(math.Round(errorRangeDa * float64(granularity)))
}

// PrevToothFraction is the minimum fraction of the previous tooth's kept
// intensity a bucket must reach to be kept, per spec.md §4.E ("at least
// 5% of the previous tooth's kept intensity").
const PrevToothFraction = 0.05

// RemoveOverlappingIons returns a copy of seg with at most one peak per
// isotope tooth for the given charge: where a tooth window contains more
// than one nonzero bucket, all but the single bucket closest to the
// theoretical tooth center (and meeting the previous-tooth intensity
// floor) are zeroed.
func RemoveOverlappingIons(seg *segment.Segment, charge, teeth int, errorRangeDa float64) *segment.Segment {
	e := ErrorRangeBucketRadius(errorRangeDa, seg.Granularity)
	out := &segment.Segment{
		Values:      make([]float64, seg.Len()),
		CenterMZ:    seg.CenterMZ,
		Granularity: seg.Granularity,
		W:           seg.W,
	}

	prevKept := seg.Center()
	for k := 0; k < teeth; k++ {
		center := toothOffset(k, charge, seg.Granularity)
		lo, hi := center-e, center+e
		nonzero := 0
		for off := lo; off <= hi; off++ {
			idx := seg.W + off
			if idx < 0 || idx >= seg.Len() {
				continue
			}
			if seg.Values[idx] != 0 {
				nonzero++
			}
		}
		if nonzero <= 1 {
			for off := lo; off <= hi; off++ {
				idx := seg.W + off
				if idx < 0 || idx >= seg.Len() {
					continue
				}
				if seg.Values[idx] != 0 {
					out.Values[idx] = seg.Values[idx]
					prevKept = seg.Values[idx]
				}
			}
			continue
		}

		// More than one candidate bucket: keep only the one closest to
		// the theoretical center, subject to the previous-tooth
		// intensity floor.
		bestIdx := -1
		bestDist := e + 1
		for off := lo; off <= hi; off++ {
			idx := seg.W + off
			if idx < 0 || idx >= seg.Len() || seg.Values[idx] == 0 {
				continue
			}
			if seg.Values[idx] < PrevToothFraction*prevKept {
				continue
			}
			d := off - center
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				bestDist = d
				bestIdx = idx
			}
		}
		if bestIdx >= 0 {
			out.Values[bestIdx] = seg.Values[bestIdx]
			prevKept = seg.Values[bestIdx]
		}
	}
	return out
}

func toothOffset(k, charge, granularity int) int {
	return int(math.Round(float64(k) / float64(charge) * float64(granularity)))
}
