// Package candidate implements the Candidate Selector (component G):
// picking which peaks in a scan are worth attempting, in priority order.
package candidate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kortschak/msfeature/charge"
	"github.com/kortschak/msfeature/cluster"
	"github.com/kortschak/msfeature/model"
)

// EpsDa is the m/z clustering radius for the initial DBSCAN sweep
// (spec.md §4.G, eps = 1.05 Da).
const EpsDa = 1.05

// MinPoints is the minimum cluster size for the initial DBSCAN sweep.
const MinPoints = 2

// NoiseFloor returns median(I) + k*stdev(I) computed over the lowest 80%
// of intensities in the spectrum, per spec.md §4.G.
func NoiseFloor(spectrum model.Spectrum, k float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}
	intensities := make([]float64, len(spectrum))
	for i, p := range spectrum {
		intensities[i] = p.Intensity
	}
	sort.Float64s(intensities)
	n := int(math.Floor(0.8 * float64(len(intensities))))
	if n < 1 {
		n = len(intensities)
	}
	lowest := intensities[:n]
	median := stat.Quantile(0.5, stat.Empirical, append([]float64(nil), lowest...), nil)
	std := stat.StdDev(lowest, nil)
	return median + k*std
}

// Candidate is one emitted m/z to attempt, with the intensity it was
// selected at for the final descending-intensity sort.
type Candidate struct {
	MZ        float64
	Intensity float64
}

// Select returns the ordered list of candidate m/z to attempt in this
// scan: points in density clusters above the noise floor, walked by
// repeatedly picking the remaining max-intensity point, estimating its
// charge, and harvesting the local-maximum isotope positions implied by
// that charge — then sorted overall by descending intensity.
func Select(spectrum model.Spectrum, noiseFloor float64, maxCharge int, errorRangeDa float64) []Candidate {
	above := make([]model.Point, 0, len(spectrum))
	for _, p := range spectrum {
		if p.Intensity >= noiseFloor {
			above = append(above, p)
		}
	}
	if len(above) == 0 {
		return nil
	}

	points := make([]cluster.Point2, len(above))
	for i, p := range above {
		points[i] = cluster.Point2{X: p.MZ, Y: 0}
	}
	labels := cluster.DBSCAN(points, EpsDa, MinPoints)

	byCluster := map[int][]model.Point{}
	for i, l := range labels {
		if l == cluster.Noise {
			continue
		}
		byCluster[l] = append(byCluster[l], above[i])
	}

	var out []Candidate
	for _, members := range byCluster {
		out = append(out, harvestCluster(members, maxCharge, errorRangeDa)...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Intensity > out[j].Intensity })
	return out
}

// harvestCluster implements the iterative per-cluster extraction loop
// from spec.md §4.G.
func harvestCluster(members []model.Point, maxCharge int, errorRangeDa float64) []Candidate {
	remaining := append([]model.Point(nil), members...)
	var out []Candidate
	for len(remaining) >= 2 {
		maxIdx := maxIntensityIndex(remaining)
		apex := remaining[maxIdx]

		lo, hi := bounds(remaining)
		z := charge.DetermineClassical(toSpectrum(remaining), apex.MZ, maxCharge, errorRangeDa)
		if z == 0 {
			z = 1
		}

		positions := isotopePositions(apex.MZ, lo, hi, z)
		maxima := localMaxima(remaining, positions, errorRangeDa)
		if len(maxima) == 0 {
			break
		}
		peaks := peakIndices(maxima)
		if len(peaks) == 0 {
			break
		}
		for _, pk := range peaks {
			out = append(out, Candidate{MZ: maxima[pk].MZ, Intensity: maxima[pk].Intensity})
		}
		next := removeSupport(remaining, positions, errorRangeDa)
		if len(next) == len(remaining) { // no progress, avoid infinite loop
			break
		}
		remaining = next
	}
	return out
}

func maxIntensityIndex(pts []model.Point) int {
	best := 0
	for i, p := range pts {
		if p.Intensity > pts[best].Intensity {
			best = i
		}
	}
	return best
}

func bounds(pts []model.Point) (lo, hi float64) {
	lo, hi = pts[0].MZ, pts[0].MZ
	for _, p := range pts {
		if p.MZ < lo {
			lo = p.MZ
		}
		if p.MZ > hi {
			hi = p.MZ
		}
	}
	return lo, hi
}

func isotopePositions(apex, lo, hi float64, z int) []float64 {
	var positions []float64
	spacing := 1 / float64(z)
	for mz := apex; mz >= lo; mz -= spacing {
		positions = append(positions, mz)
	}
	for mz := apex + spacing; mz <= hi; mz += spacing {
		positions = append(positions, mz)
	}
	sort.Float64s(positions)
	return positions
}

// localMaxima extracts, for each expected isotope position, the local
// intensity maximum within ±errorRangeDa.
func localMaxima(pts []model.Point, positions []float64, errorRangeDa float64) []model.Point {
	out := make([]model.Point, 0, len(positions))
	for _, pos := range positions {
		var best model.Point
		found := false
		for _, p := range pts {
			if math.Abs(p.MZ-pos) <= errorRangeDa && (!found || p.Intensity > best.Intensity) {
				best = p
				found = true
			}
		}
		if found {
			out = append(out, best)
		}
	}
	return out
}

// peakIndices returns the indices of local-maximum entries in the
// intensity sequence seq: positions whose intensity is >= both neighbors.
func peakIndices(seq []model.Point) []int {
	var idx []int
	for i, p := range seq {
		leftOK := i == 0 || p.Intensity >= seq[i-1].Intensity
		rightOK := i == len(seq)-1 || p.Intensity >= seq[i+1].Intensity
		if leftOK && rightOK {
			idx = append(idx, i)
		}
	}
	return idx
}

func removeSupport(pts []model.Point, positions []float64, errorRangeDa float64) []model.Point {
	var out []model.Point
	for _, p := range pts {
		remove := false
		for _, pos := range positions {
			if math.Abs(p.MZ-pos) <= errorRangeDa {
				remove = true
				break
			}
		}
		if !remove {
			out = append(out, p)
		}
	}
	return out
}

func toSpectrum(pts []model.Point) model.Spectrum {
	return model.Spectrum(pts)
}
