// Package charge implements the Charge Determinator (component C):
// assigning a charge state to a candidate m/z from its surrounding scan
// segment.
package charge

import (
	"math"

	"github.com/kortschak/msfeature/comb"
	"github.com/kortschak/msfeature/model"
	"github.com/kortschak/msfeature/nn"
	"github.com/kortschak/msfeature/segment"
)

// DefaultTeeth is the number of isotope teeth used by the comb filters,
// comb_filter_teeth_charge_max from spec.md §6.
const DefaultTeeth = 4

// DetermineNeural returns the predicted charge state in [0,maxCharge] for
// the given segment, 0 meaning "no charge preferred". It builds one comb
// filter per trial charge 1..maxCharge, normalizes each response by the
// max response across charges, and feeds the concatenated feature vector
// through net.
func DetermineNeural(seg *segment.Segment, net *nn.Net, maxCharge int) int {
	if seg.IsZero() {
		return 0
	}
	responses := make([]float64, maxCharge)
	var max float64
	for c := 1; c <= maxCharge; c++ {
		f := comb.ChargeFilter(c, DefaultTeeth, seg.Granularity)
		r := f.Apply(seg)
		responses[c-1] = r
		if r > max {
			max = r
		}
	}
	if max == 0 {
		return 0
	}
	for i := range responses {
		responses[i] /= max
	}
	out := net.Forward(responses)
	charge := nn.ArgMax(out) + 1
	if charge < 1 || charge > maxCharge {
		return 0
	}
	return charge
}

// DetermineClassical is the classical, non-NN variant used for
// averagine-generator round-trip tests (spec.md §4.C). For each candidate
// charge it sums intensities near centerMZ+k/charge for a small range of
// k, weighted by the number of matched teeth, and picks the charge with
// the highest weighted sum. Ties are broken toward the smaller charge.
func DetermineClassical(spectrum model.Spectrum, centerMZ float64, maxCharge int, tolerance float64) int {
	const teeth = DefaultTeeth
	best := 0
	var bestScore float64
	for c := 1; c <= maxCharge; c++ {
		var score float64
		matched := 0
		for k := 0; k < teeth; k++ {
			target := centerMZ + float64(k)/float64(c)
			if in, intensity := nearestWithin(spectrum, target, tolerance); in {
				score += intensity
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		weighted := score * float64(matched)
		if weighted > bestScore {
			bestScore = weighted
			best = c
		}
	}
	return best
}

func nearestWithin(spectrum model.Spectrum, target, tolerance float64) (bool, float64) {
	var found bool
	var bestDiff, bestIntensity float64
	for _, p := range spectrum {
		diff := math.Abs(p.MZ - target)
		if diff <= tolerance && (!found || diff < bestDiff) {
			found = true
			bestDiff = diff
			bestIntensity = p.Intensity
		}
	}
	return found, bestIntensity
}
