package comb

import (
	"testing"

	"github.com/kortschak/msfeature/segment"
)

func TestFilterApplySumsCoeffTimesValue(t *testing.T) {
	seg := &segment.Segment{Values: make([]float64, 21), Granularity: 10, W: 10}
	seg.Values[10] = 2
	seg.Values[15] = 3

	f := Filter{{Offset: 0, Coeff: 1}, {Offset: 5, Coeff: 2}, {Offset: 100, Coeff: 1}}
	got := f.Apply(seg)
	want := 1*2.0 + 2*3.0 // out-of-range tooth at offset 100 contributes 0
	if got != want {
		t.Fatalf("Apply() = %v, want %v", got, want)
	}
}

func TestChargeFilterIsSymmetricWithDimerRowUpToChargeThree(t *testing.T) {
	f := ChargeFilter(2, 3, 100)
	// 7 symmetric positive teeth (-3..3) plus a dimer-offset negative row
	// after every tooth but the last (tooth < teeth): 6 dimer rows.
	if len(f) != 13 {
		t.Fatalf("len(ChargeFilter(2,3,...)) = %d, want 13", len(f))
	}
	var positive, negative int
	for _, tooth := range f {
		switch tooth.Coeff {
		case 1:
			positive++
		case -1:
			negative++
		default:
			t.Fatalf("unexpected tooth coeff %v", tooth.Coeff)
		}
	}
	if positive != 7 || negative != 6 {
		t.Fatalf("got %d positive, %d negative teeth, want 7 and 6", positive, negative)
	}
	// Teeth are symmetric around the candidate center: offsets ±150 (tooth
	// ±3, the most extreme) must both be present as positive teeth.
	var sawLeft, sawRight bool
	for _, tooth := range f {
		switch tooth.Offset {
		case -150:
			sawLeft = tooth.Coeff == 1
		case 150:
			sawRight = tooth.Coeff == 1
		}
	}
	if !sawLeft || !sawRight {
		t.Fatalf("expected symmetric positive teeth at ±150, got %+v", f)
	}
}

func TestChargeFilterNoDimerRowAboveThree(t *testing.T) {
	f := ChargeFilter(4, 3, 100)
	// Symmetric -3..3 positive teeth only, no dimer rows above charge 3.
	if len(f) != 7 {
		t.Fatalf("len(ChargeFilter(4,3,...)) = %d, want 7 (no dimer row for charge>3)", len(f))
	}
	for _, tooth := range f {
		if tooth.Coeff != 1 {
			t.Fatalf("expected only positive teeth, got coeff %v", tooth.Coeff)
		}
	}
}

func TestMonoisotopeFilterTeethExtendLeftwardOfCenter(t *testing.T) {
	f := MonoisotopeFilter(2, 1, 2, 100)
	// Leading tooth is the negative guard row, one chargeDistance further
	// left (more negative) than the leftmost positive tooth.
	if f[0].Coeff != -1 {
		t.Fatalf("expected leading tooth coeff -1, got %v", f[0].Coeff)
	}
	for _, tooth := range f[1:] {
		if tooth.Coeff != 1 {
			t.Fatalf("expected remaining teeth coeff 1, got %v", tooth.Coeff)
		}
		if tooth.Offset > 0 {
			t.Fatalf("expected all positive teeth at non-positive offsets (leftward of center), got %v", tooth.Offset)
		}
	}
	if f[0].Offset >= f[1].Offset {
		t.Fatalf("expected leading (negative) tooth strictly left of first positive tooth")
	}
	var mostNegative int
	for _, tooth := range f[1:] {
		if tooth.Offset < mostNegative {
			mostNegative = tooth.Offset
		}
	}
	if f[0].Offset != mostNegative-50 {
		t.Fatalf("expected negative guard tooth exactly one chargeDistance left of the leftmost positive tooth: got %v, want %v", f[0].Offset, mostNegative-50)
	}
}

func TestBentCombFirstToothIsMinusFour(t *testing.T) {
	f := BentComb(2, 4, 100)
	if f[0].Coeff != -4 {
		t.Fatalf("BentComb()[0].Coeff = %v, want -4", f[0].Coeff)
	}
	for _, tooth := range f[1:] {
		if tooth.Coeff != 1 {
			t.Fatalf("expected remaining teeth coeff 1, got %v", tooth.Coeff)
		}
	}
}

func TestRollShiftsEveryOffset(t *testing.T) {
	f := Filter{{Offset: 1, Coeff: 1}, {Offset: -2, Coeff: 2}}
	rolled := f.Roll(5)
	if rolled[0].Offset != 6 || rolled[1].Offset != 3 {
		t.Fatalf("Roll(5) offsets = %v, want [6 3]", []int{rolled[0].Offset, rolled[1].Offset})
	}
}
