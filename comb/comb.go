// Package comb builds the sparse comb filters shared by the charge
// determinator (component C) and the monoisotope determinator (component
// D): sparse indicator patterns that integrate segment intensity at the
// expected isotope tooth positions for a trial charge state and offset.
package comb

import (
	"math"

	"github.com/kortschak/msfeature/segment"
)

// Tooth is one non-zero entry of a comb filter: a bucket offset from the
// segment center and its coefficient.
type Tooth struct {
	Offset int
	Coeff  float64
}

// Filter is a sparse comb filter: a list of (offset, coefficient) teeth to
// apply against a Segment centered at bucket 0.
type Filter []Tooth

// Apply computes the comb·segment dot product: sum of coeff*value at each
// tooth's bucket offset from the segment center, 0 for offsets that fall
// outside the segment.
func (f Filter) Apply(seg *segment.Segment) float64 {
	var sum float64
	for _, t := range f {
		i := seg.W + t.Offset
		if i < 0 || i >= seg.Len() {
			continue
		}
		sum += t.Coeff * seg.Values[i]
	}
	return sum
}

// MaxTeethChargeForDimer is the highest charge state for which a
// dimer-offset negative-comb row is added (spec.md §4.C: "for charges 1–3
// a dimer-offset negative-comb row").
const MaxTeethChargeForDimer = 3

// ChargeFilter builds the positive-comb-plus-optional-negative-dimer-row
// filter for a trial charge: teeth at -teeth..+teeth (symmetric around the
// candidate center) at spacing 1/charge m/z, expressed as bucket offsets at
// the given granularity. teeth is the isotopeCount parameter.
func ChargeFilter(charge, teeth, granularity int) Filter {
	chargeDistance := int(math.Round(float64(granularity) / float64(charge)))
	dimer := charge <= MaxTeethChargeForDimer
	dimerDistance := int(math.Round(float64(granularity) / (2 * float64(charge))))

	var f Filter
	for tooth := -teeth; tooth <= teeth; tooth++ {
		off := tooth * chargeDistance
		f = append(f, Tooth{Offset: off, Coeff: 1})
		if dimer && tooth < teeth {
			// Dimer-offset negative row: a half-integer-charge overlap
			// would place extra mass chargeDistance/2 to the right of
			// this tooth; a positive peak there is evidence against this
			// charge.
			f = append(f, Tooth{Offset: off + dimerDistance, Coeff: -1})
		}
	}
	return f
}

// toothOffset returns the bucket offset of isotope tooth k at the given
// charge and granularity, i.e. hash(k/charge) in offset-from-center terms.
func toothOffset(k, charge, granularity int) int {
	return int(math.Round(float64(k) / float64(charge) * float64(granularity)))
}

// MonoisotopeFilter builds the trial-offset comb for the monoisotope
// determinator: teeth at center - (tooth+r)/charge for tooth in
// [0,maxTooth] (leftward of center, per spec.md §4.D), plus one
// negative-coefficient tooth one chargeDistance further left of the
// leftmost positive tooth.
func MonoisotopeFilter(charge, r, maxTooth, granularity int) Filter {
	chargeDistance := int(math.Round(float64(granularity) / float64(charge)))

	var f Filter
	for tooth := 0; tooth <= maxTooth; tooth++ {
		off := -(tooth + r) * chargeDistance
		f = append(f, Tooth{Offset: off, Coeff: 1})
	}
	leftMost := f[len(f)-1].Offset // tooth=maxTooth: the most negative, leftmost tooth
	negOff := leftMost - chargeDistance
	f = append(Filter{{Offset: negOff, Coeff: -1}}, f...)
	return f
}

// BentComb builds the classical-variant comb used by the correlation-based
// monoisotope determinator: leftmost tooth coefficient -4, remaining +1,
// at spacing 1/charge.
func BentComb(charge, teeth, granularity int) Filter {
	f := make(Filter, teeth)
	for k := 0; k < teeth; k++ {
		coeff := 1.0
		if k == 0 {
			coeff = -4
		}
		f[k] = Tooth{Offset: toothOffset(k, charge, granularity), Coeff: coeff}
	}
	return f
}

// Roll returns a copy of f with every tooth offset shifted by delta
// buckets, used to roll a comb across candidate offsets.
func (f Filter) Roll(delta int) Filter {
	out := make(Filter, len(f))
	for i, t := range f {
		out[i] = Tooth{Offset: t.Offset + delta, Coeff: t.Coeff}
	}
	return out
}
