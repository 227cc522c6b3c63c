// Package monoiso implements the Monoisotope Determinator (component D):
// assigning the offset of the monoisotopic peak within an isotope envelope
// given a candidate m/z and charge.
package monoiso

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kortschak/msfeature/averagine"
	"github.com/kortschak/msfeature/comb"
	"github.com/kortschak/msfeature/nn"
	"github.com/kortschak/msfeature/segment"
)

// MaxTrialOffset returns the highest trial offset considered for the
// given charge, charge+1 per spec.md §4.D.
func MaxTrialOffset(charge int) int { return charge + 1 }

// DetermineNeural returns the predicted monoisotope offset (>=0) using the
// per-charge network net. It builds one comb matrix per trial offset
// r in [0,charge+1], normalizes the segment by its center coefficient,
// and returns the argmax over the net's output.
func DetermineNeural(seg *segment.Segment, net *nn.Net, charge int) int {
	center := seg.Center()
	if center == 0 {
		return 0
	}
	maxOffset := MaxTrialOffset(charge)
	responses := make([]float64, maxOffset+1)
	for r := 0; r <= maxOffset; r++ {
		f := comb.MonoisotopeFilter(charge, r, maxOffset, seg.Granularity)
		responses[r] = f.Apply(seg) / center
	}
	out := net.Forward(responses)
	return nn.ArgMax(out)
}

// DetermineClassical is the classical, correlation-based variant
// (spec.md §4.D): a bent comb (leftmost tooth -4, remaining +1) is rolled
// across candidate offsets; for each offset the Pearson correlation
// between the matched segment intensities and the averagine row for
// m = round(centerMZ*charge) is computed, and the offset with maximum
// correlation is returned along with its score.
func DetermineClassical(seg *segment.Segment, table *averagine.Table, charge int) (offset int, score float64) {
	maxOffset := MaxTrialOffset(charge)
	row := table.Fractions(seg.CenterMZ * float64(charge))
	teeth := len(row)
	if teeth == 0 {
		return 0, 0
	}

	bestOffset := 0
	var bestCorr float64 = -2 // below any valid correlation
	for r := 0; r <= maxOffset; r++ {
		bent := comb.BentComb(charge, teeth, seg.Granularity).Roll(toothOffset(r, charge, seg.Granularity))
		observed := make([]float64, teeth)
		for i, t := range bent {
			idx := seg.W + t.Offset
			if idx >= 0 && idx < seg.Len() {
				observed[i] = seg.Values[idx]
			}
		}
		c := pearson(observed, row)
		if c > bestCorr {
			bestCorr = c
			bestOffset = r
		}
	}
	if bestCorr < -1 {
		bestCorr = 0
	}
	return bestOffset, bestCorr
}

func toothOffset(r, charge, granularity int) int {
	f := comb.MonoisotopeFilter(charge, r, 0, granularity)
	return f[len(f)-1].Offset
}

// pearson computes the Pearson correlation coefficient of a and b,
// returning 0 for degenerate (zero-variance) input rather than NaN, per
// spec.md §7 ("NaN from a degenerate correlation (treated as 0)").
func pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	c := stat.Correlation(a, b, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}
