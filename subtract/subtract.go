// Package subtract implements the Spectra Subtractor (component F):
// building a theoretical averagine-shaped decimator for a validated
// charge cluster, scoring its correlation against the observed segment,
// and exposing the decimator for subtraction from the scan residual.
package subtract

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kortschak/msfeature/averagine"
	"github.com/kortschak/msfeature/segment"
)

// PreciseRadiusBuckets is the broadening radius (in buckets) used when the
// input segment has been cleaned by the Disambigutron (component E).
const PreciseRadiusBuckets = 2

// Decimator is the result of building a theoretical cluster to subtract
// from the scan: a sparse full-scan-space vector, its Pearson correlation
// against the observed segment, and the number of isotopes the
// correlation was scored over.
type Decimator struct {
	// Full maps absolute full-scan bucket index to the decimator value at
	// that bucket, ready to pass to segment.FullScan.SubtractSparse.
	Full         map[int]float64
	Correlation  float64
	IsotopeCount int
}

// Build constructs the decimator for a validated detection at centerMZ,
// charge and monoOffset against table, using seg to estimate scale and
// correlation. errorRangeDa is the default (non-precise) broadening
// radius (spec.md's "error_range" immutable parameter); precise selects
// the 2-bucket radius used after Disambigutron cleaning. augmentFactor
// slightly overshoots the observed intensity so no positive residue
// remains after subtraction. minIsotopeCount zeroes the correlation for
// charges above 1 that don't meet the minimum observed isotope count.
func Build(seg *segment.Segment, table *averagine.Table, centerMZ float64, charge, monoOffset int, errorRangeDa float64, precise bool, augmentFactor float64, minIsotopeCount int) Decimator {
	row := table.Fractions(centerMZ * float64(charge))
	n := len(row)
	if n == 0 {
		return Decimator{Full: map[int]float64{}}
	}

	radius := ErrorRangeBuckets(errorRangeDa, seg.Granularity)
	if precise {
		radius = PreciseRadiusBuckets
	}

	centerBucket := segment.Hash(centerMZ, seg.Granularity)
	full := make(map[int]float64, n*(2*radius+1))
	observed := make([]float64, n)
	var centerPlateau float64
	for k := 0; k < n; k++ {
		mz := centerMZ + (float64(k)-float64(monoOffset))/float64(charge)
		toothBucket := segment.Hash(mz, seg.Granularity)
		for off := -radius; off <= radius; off++ {
			b := toothBucket + off
			full[b] = row[k]
		}
		if toothBucket == centerBucket {
			centerPlateau = row[k]
		}
		idx := seg.W + (toothBucket - centerBucket)
		if idx >= 0 && idx < seg.Len() {
			observed[k] = seg.Values[idx]
		}
	}

	if centerPlateau > 0 {
		scale := augmentFactor * seg.Center() / centerPlateau
		for b := range full {
			full[b] *= scale
		}
	}

	truncate := n
	if charge < 4 {
		if t := charge + 2; t < truncate {
			truncate = t
		}
	}
	obsT := observed
	rowT := row
	if truncate < n {
		obsT = observed[:truncate]
		rowT = row[:truncate]
	}

	corr := pearson(obsT, rowT)
	isotopeCount := countIsotopes(observed)
	if charge > 1 && isotopeCount < minIsotopeCount {
		corr = 0
	}

	return Decimator{Full: full, Correlation: corr, IsotopeCount: isotopeCount}
}

// ErrorRangeBuckets converts the default error-range (in Da) to a bucket
// radius at the given granularity.
func ErrorRangeBuckets(errorRangeDa float64, granularity int) int {
	return int(math.Round(errorRangeDa * float64(granularity)))
}

// countIsotopes counts observed isotopes above isotope_cut_off_cluster_percent
// of the maximum observed intensity (spec.md §4.F).
func countIsotopes(observed []float64) int {
	const cutoff = 0.05
	var max float64
	for _, v := range observed {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return 0
	}
	n := 0
	for _, v := range observed {
		if v >= cutoff*max {
			n++
		}
	}
	return n
}

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
