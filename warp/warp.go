// Package warp implements the Time-Warp Builder (component J): choosing a
// pivot sample and solving, per non-pivot sample, a windowed dynamic-time-
// warping alignment that produces a monotone piecewise-linear map from
// sample retention time to pivot retention time.
package warp

import (
	"math"
	"sort"

	"github.com/kortschak/msfeature/model"
)

// SamplesPerMinute is the uniform-grid resampling rate used for pivot
// selection, per spec.md §4.J.
const SamplesPerMinute = 2

// Landmark is one scan's warp-alignment input: a retention time, a 1-D
// intensity proxy (e.g. total ion current or apex intensity), and
// optionally a small set of dominant (m/z, intensity) peaks used to gate
// the alignment cost by mass accuracy.
type Landmark struct {
	T         float64
	Intensity float64
	Peaks     []model.Point
}

// Coord is one step of the optimal alignment path, indexing into the
// resampled pivot (I) and sample (J) grids.
type Coord struct {
	I, J int
}

// Warp is a monotone non-decreasing piecewise-linear map from sample RT to
// pivot RT, satisfying Map(0) == 0 and Map(TEnd) == TEnd.
type Warp struct {
	t, tPrime []float64 // control points, t strictly increasing
}

// Map evaluates the warp at t by linear interpolation between the nearest
// bracketing control points, clamping to the first/last segment outside
// the built range.
func (w *Warp) Map(t float64) float64 {
	n := len(w.t)
	if n == 0 {
		return t
	}
	if t <= w.t[0] {
		return w.tPrime[0]
	}
	if t >= w.t[n-1] {
		return w.tPrime[n-1]
	}
	i := sort.SearchFloat64s(w.t, t)
	if w.t[i] == t {
		return w.tPrime[i]
	}
	lo, hi := i-1, i
	frac := (t - w.t[lo]) / (w.t[hi] - w.t[lo])
	return w.tPrime[lo] + frac*(w.tPrime[hi]-w.tPrime[lo])
}

// resample builds a uniform grid of intensities from 0 to end at the given
// rate (samples per minute), by nearest-preceding-landmark lookup, then
// max-normalizes.
func resample(landmarks []Landmark, end float64, rate float64) []float64 {
	n := int(math.Floor(end*rate)) + 1
	grid := make([]float64, n)
	if len(landmarks) == 0 {
		return grid
	}
	sorted := append([]Landmark(nil), landmarks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	li := 0
	for i := 0; i < n; i++ {
		t := float64(i) / rate
		for li+1 < len(sorted) && sorted[li+1].T <= t {
			li++
		}
		grid[i] = sorted[li].Intensity
	}
	maxV := 0.0
	for _, v := range grid {
		if v > maxV {
			maxV = v
		}
	}
	if maxV > 0 {
		for i := range grid {
			grid[i] /= maxV
		}
	}
	return grid
}

// commonEnd returns the minimum last-landmark time across samples.
func commonEnd(samples [][]Landmark) float64 {
	end := math.Inf(1)
	for _, s := range samples {
		if len(s) == 0 {
			continue
		}
		last := s[0].T
		for _, l := range s {
			if l.T > last {
				last = l.T
			}
		}
		if last < end {
			end = last
		}
	}
	if math.IsInf(end, 1) {
		return 0
	}
	return end
}

// SelectPivot resamples every sample's landmark sequence onto a uniform
// grid over the minimum common duration, max-normalizes, and returns the
// index of the sample whose resampled proxy has maximum summed dot-product
// with all others, per spec.md §4.J.
func SelectPivot(samples [][]Landmark) int {
	end := commonEnd(samples)
	grids := make([][]float64, len(samples))
	for i, s := range samples {
		grids[i] = resample(s, end, SamplesPerMinute)
	}

	best, bestScore := 0, math.Inf(-1)
	for i := range grids {
		sum := 0.0
		for j := range grids {
			if i == j {
				continue
			}
			sum += dot(grids[i], grids[j])
		}
		if sum > bestScore {
			bestScore = sum
			best = i
		}
	}
	return best
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

// Window bounds the Sakoe-Chiba band radius (in grid steps) of the DP
// search, trading alignment flexibility for O(n*window) time.
const Window = 50

// Build solves the windowed DP alignment between pivot and sample,
// cropped to their common duration, and returns the resulting warp.
// ppm gates the m/z-matching penalty term: a sample landmark penalizes
// the alignment against a pivot landmark unless at least one pair of their
// peaks has m/z within ppm parts-per-million of each other.
func Build(pivot, sample []Landmark, ppm float64) *Warp {
	end := commonEnd([][]Landmark{pivot, sample})
	pivotLm := cropSorted(pivot, end)
	sampleLm := cropSorted(sample, end)
	if len(pivotLm) == 0 || len(sampleLm) == 0 {
		return &Warp{t: []float64{0, end}, tPrime: []float64{0, end}}
	}

	pv := normalizeIntensities(pivotLm)
	sv := normalizeIntensities(sampleLm)

	n, m := len(pv), len(sv)
	inf := math.Inf(1)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = inf
	}
	dp := make([][]float64, n+1)
	dp[0] = append([]float64(nil), prev...)

	for i := 1; i <= n; i++ {
		curr[0] = inf
		for j := 1; j <= m; j++ {
			if abs(i-j) > Window {
				curr[j] = inf
				continue
			}
			local := math.Abs(pv[i-1]-sv[j-1]) + mzPenalty(pivotLm[i-1], sampleLm[j-1], ppm)
			best := prev[j-1]
			if prev[j] < best {
				best = prev[j]
			}
			if curr[j-1] < best {
				best = curr[j-1]
			}
			curr[j] = local + best
		}
		row := append([]float64(nil), curr...)
		dp[i] = row
		prev, curr = curr, prev
	}

	path := backtrack(dp, n, m)

	t := make([]float64, 0, len(path)+2)
	tPrime := make([]float64, 0, len(path)+2)
	t = append(t, 0)
	tPrime = append(tPrime, 0)
	for _, c := range path {
		t = append(t, sampleLm[c.J].T)
		tPrime = append(tPrime, pivotLm[c.I].T)
	}
	t = append(t, end)
	tPrime = append(tPrime, end)
	t, tPrime = dedupMonotone(t, tPrime)

	return &Warp{t: t, tPrime: tPrime}
}

func cropSorted(landmarks []Landmark, end float64) []Landmark {
	sorted := append([]Landmark(nil), landmarks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	out := sorted[:0:0]
	for _, l := range sorted {
		if l.T <= end {
			out = append(out, l)
		}
	}
	return out
}

func normalizeIntensities(landmarks []Landmark) []float64 {
	out := make([]float64, len(landmarks))
	maxV := 0.0
	for i, l := range landmarks {
		out[i] = l.Intensity
		if l.Intensity > maxV {
			maxV = l.Intensity
		}
	}
	if maxV > 0 {
		for i := range out {
			out[i] /= maxV
		}
	}
	return out
}

// mzPenalty returns a cost contribution when both landmarks carry
// dominant peaks but none of them agree within ppm; 0 when either side
// lacks peaks (nothing to gate on) or a close match exists.
func mzPenalty(a, b Landmark, ppm float64) float64 {
	if len(a.Peaks) == 0 || len(b.Peaks) == 0 {
		return 0
	}
	for _, pa := range a.Peaks {
		for _, pb := range b.Peaks {
			if ppmDelta(pa.MZ, pb.MZ) <= ppm {
				return 0
			}
		}
	}
	return 1
}

func ppmDelta(a, b float64) float64 {
	if a == 0 {
		return math.Inf(1)
	}
	return math.Abs(a-b) / a * 1e6
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func backtrack(dp [][]float64, n, m int) []Coord {
	i, j := n, m
	var path []Coord
	for i > 0 || j > 0 {
		var x, y int
		switch {
		case i > 0 && j > 0:
			x, y = i-1, j-1
		case i > 0:
			x, y = i-1, 0
		default:
			x, y = 0, j-1
		}
		path = append(path, Coord{I: x, J: y})

		switch {
		case i > 0 && j > 0 && dp[i-1][j-1] <= dp[i-1][j] && dp[i-1][j-1] <= dp[i][j-1]:
			i, j = i-1, j-1
		case i > 0 && (j == 0 || dp[i-1][j] <= dp[i][j-1]):
			i--
		default:
			j--
		}
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// dedupMonotone removes entries that would make t non-increasing,
// keeping the first occurrence, so the resulting Warp.Map stays a
// well-defined monotone piecewise-linear function.
func dedupMonotone(t, tPrime []float64) ([]float64, []float64) {
	outT := make([]float64, 0, len(t))
	outTP := make([]float64, 0, len(tPrime))
	for i := range t {
		if len(outT) > 0 && t[i] <= outT[len(outT)-1] {
			continue
		}
		outT = append(outT, t[i])
		outTP = append(outTP, tPrime[i])
	}
	for i := 1; i < len(outTP); i++ {
		if outTP[i] < outTP[i-1] {
			outTP[i] = outTP[i-1]
		}
	}
	return outT, outTP
}
