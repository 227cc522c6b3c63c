// Package segment implements the dense scan-segment representation and the
// full-scan residual vector used by the per-scan deconvolution loop
// (spec.md §4.B).
package segment

import (
	"math"

	"github.com/biogo/store/step"

	"github.com/kortschak/msfeature/model"
)

// Granularity is the default number of hashed buckets per m/z unit
// (vector_granularity from spec.md §6, G = 1/0.002 = 500).
const Granularity = 500

// Radius is the default segment search radius in m/z (R ≈ 4 Th).
const Radius = 4.0

// Hash maps an m/z value to its bucket index at the given granularity. It
// is a pure, branch-free, deterministic function: hash(mz) = round(mz*G).
func Hash(mz float64, granularity int) int {
	return int(math.Round(mz * float64(granularity)))
}

// Unhash maps a bucket index back to its representative m/z:
// unhash(i) = i/G.
func Unhash(bucket int, granularity int) float64 {
	return float64(bucket) / float64(granularity)
}

// Segment is a dense vector of length L = 2*W+1 centered on a candidate
// m/z, indexed by hashed m/z bucket offset from the center.
type Segment struct {
	Values      []float64
	CenterMZ    float64
	Granularity int
	W           int // search half-width in buckets; center index is W
}

// Center returns the value at the segment's center bucket.
func (s *Segment) Center() float64 {
	return s.Values[s.W]
}

// Len returns the segment length, 2*W+1.
func (s *Segment) Len() int { return len(s.Values) }

// MZAt returns the m/z represented by segment index i.
func (s *Segment) MZAt(i int) float64 {
	base := Hash(s.CenterMZ, s.Granularity) - s.W
	return Unhash(base+i, s.Granularity)
}

// IsZero reports whether every value in the segment is zero, the
// degenerate input case from spec.md §4.C/§4.D failure semantics.
func (s *Segment) IsZero() bool {
	for _, v := range s.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// zeroVal is the step.Vector payload type for FullScan: a single float64
// intensity value, compared for equality so step.Vector can merge
// adjacent equal ranges (almost always adjacent zero runs).
type zeroVal float64

func (a zeroVal) Equal(b step.Equaler) bool {
	return a == b.(zeroVal)
}

// FullScan is the per-scan residual sparse vector on the full bucketed m/z
// space, backed by a step.Vector so that long runs of zero (the overwhelming
// majority of the space) are stored as a single range rather than one entry
// per bucket. It is exclusively owned by one scan iteration; subtraction by
// the Spectra Subtractor (component F) mutates it in place and never
// disturbs any other scan's FullScan.
type FullScan struct {
	v           *step.Vector
	granularity int
	length      int
}

// NewFullScan builds an empty (all-zero) full-scan vector spanning
// [0, mzMax*granularity) buckets.
func NewFullScan(mzMax float64, granularity int) (*FullScan, error) {
	length := Hash(mzMax, granularity)
	v, err := step.New(0, 1, zeroVal(0))
	if err != nil {
		return nil, err
	}
	v.Relaxed = true
	return &FullScan{v: v, granularity: granularity, length: length}, nil
}

// Load replaces the contents of the full scan with a spectrum, one point per
// bucket; any residual left by an earlier Load is discarded. If two points
// hash to the same bucket the greater intensity wins, since the input is
// expected to already be centroided and distinct.
func (f *FullScan) Load(spectrum model.Spectrum) error {
	v, err := step.New(0, 1, zeroVal(0))
	if err != nil {
		return err
	}
	v.Relaxed = true
	f.v = v
	for _, p := range spectrum {
		b := Hash(p.MZ, f.granularity)
		if b < 0 || b >= f.length {
			continue
		}
		cur := f.Get(b)
		if p.Intensity <= cur {
			continue
		}
		err := f.v.ApplyRange(b, b+1, func(step.Equaler) step.Equaler {
			return zeroVal(p.Intensity)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Get returns the residual intensity at bucket b.
func (f *FullScan) Get(b int) float64 {
	var val float64
	found := false
	f.v.Do(func(start, end int, e step.Equaler) {
		if found || end <= b || start > b {
			return
		}
		val = float64(e.(zeroVal))
		found = true
	})
	return val
}

// Subtract subtracts delta[i] from bucket start+i for i in [0,len(delta)),
// clamping negative results to zero, per spec.md §4.H step (d).
func (f *FullScan) Subtract(start int, delta []float64) error {
	for i, d := range delta {
		if d == 0 {
			continue
		}
		b := start + i
		cur := f.Get(b)
		next := cur - d
		if next < 0 {
			next = 0
		}
		err := f.v.ApplyRange(b, b+1, func(step.Equaler) step.Equaler {
			return zeroVal(next)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SubtractSparse subtracts delta[bucket] from each named absolute bucket,
// clamping negative results to zero. Unlike Subtract, the buckets need not
// be contiguous, matching a decimator built as a set of isolated broadened
// isotope-tooth plateaus (spec.md §4.F).
func (f *FullScan) SubtractSparse(delta map[int]float64) error {
	for b, d := range delta {
		if d == 0 {
			continue
		}
		cur := f.Get(b)
		next := cur - d
		if next < 0 {
			next = 0
		}
		err := f.v.ApplyRange(b, b+1, func(step.Equaler) step.Equaler {
			return zeroVal(next)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Granularity returns the bucket granularity of the full scan.
func (f *FullScan) Granularity() int { return f.granularity }

// Extract returns a Segment of length 2*W+1 centered on centerMZ, where
// W = round(radius*granularity). Out-of-range positions (before bucket 0
// or past the full-scan length) read as zero.
func (f *FullScan) Extract(centerMZ, radius float64) *Segment {
	w := int(math.Round(radius * float64(f.granularity)))
	center := Hash(centerMZ, f.granularity)
	values := make([]float64, 2*w+1)
	for i := range values {
		b := center - w + i
		if b < 0 || b >= f.length {
			continue
		}
		values[i] = f.Get(b)
	}
	return &Segment{Values: values, CenterMZ: centerMZ, Granularity: f.granularity, W: w}
}

// ExtractFrom extracts a fixed-shape segment directly from a raw spectrum
// without going through a FullScan. Its callers are the tests that
// synthesize a spectrum directly.
func ExtractFrom(spectrum model.Spectrum, centerMZ, radius float64, granularity int) *Segment {
	w := int(math.Round(radius * float64(granularity)))
	center := Hash(centerMZ, granularity)
	values := make([]float64, 2*w+1)
	for _, p := range spectrum {
		b := Hash(p.MZ, granularity)
		i := b - center + w
		if i < 0 || i >= len(values) {
			continue
		}
		if p.Intensity > values[i] {
			values[i] = p.Intensity
		}
	}
	return &Segment{Values: values, CenterMZ: centerMZ, Granularity: granularity, W: w}
}
