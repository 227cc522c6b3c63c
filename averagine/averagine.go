// Package averagine builds and queries the averagine isotope table: for a
// given neutral mass, the normalized intensity fractions of isotopologues
// 0..N of the hypothetical "average amino acid residue" composition scaled
// to that mass.
package averagine

import "math"

// element is one of the elements making up the averagine composition,
// carrying the per-atom isotope mass defect distribution used during
// convolution. Masses and abundances are monoisotopic-referenced natural
// abundances, the same constants used to build
// original_source's AveragineIsotopeTable.
type element struct {
	// residuesPerDalton is the average number of atoms of this element
	// per dalton of averagine mass (C4.9384 H7.7583 N1.3577 O1.4773 S0.0417
	// averaged over the 20 proteinogenic amino acids, divided by the
	// averagine residue mass of 111.1254 Da).
	residuesPerDalton float64
	// isotopes are the per-isotopologue mass offset (in integer nucleon
	// units) and natural abundance fraction, sorted by offset.
	isotopes []isotope
}

type isotope struct {
	offset    int
	abundance float64
}

// averagineElements is the standard Senko averagine composition.
var averagineElements = []element{
	{residuesPerDalton: 4.9384 / 111.1254, isotopes: []isotope{{0, 0.9893}, {1, 0.0107}}},             // C
	{residuesPerDalton: 7.7583 / 111.1254, isotopes: []isotope{{0, 0.999885}, {1, 0.000115}}},         // H
	{residuesPerDalton: 1.3577 / 111.1254, isotopes: []isotope{{0, 0.99632}, {1, 0.00368}}},           // N
	{residuesPerDalton: 1.4773 / 111.1254, isotopes: []isotope{{0, 0.99757}, {1, 0.00038}, {2, 0.00205}}}, // O
	{residuesPerDalton: 0.0417 / 111.1254, isotopes: []isotope{{0, 0.9493}, {1, 0.0076}, {2, 0.0429}}}, // S
}

// Params parameterizes table construction: the per-row mass step, the row
// count, and the two pruning thresholds from spec.md §4.A.
type Params struct {
	Step              float64
	RowCount          int
	InterIsotopeTrim  float64
	FinalTrim         float64
	// Normalize requests renormalization of the stored vector to sum to
	// 1 after FinalTrim. The legacy parameter set leaves this false and
	// is knowingly left summing to less than 1 at large masses (spec.md
	// §9 Open Questions) — preserved verbatim for backward compatibility.
	Normalize bool
}

// AccurateParams is the modern, renormalized parameter set.
var AccurateParams = Params{
	Step:             10,
	RowCount:         1000,
	InterIsotopeTrim: 1e-4,
	FinalTrim:        2e-3,
	Normalize:        true,
}

// LegacyParams is the historical "by-feature-finder" parameter set. It is
// intentionally not renormalized: at large masses its stored vector sums
// to roughly 0.8, not 1.0. Do not silently fix this; callers that need a
// normalized envelope must use AccurateParams.
var LegacyParams = Params{
	Step:             10,
	RowCount:         1000,
	InterIsotopeTrim: 5e-3,
	FinalTrim:        1e-2,
	Normalize:        false,
}

// Entry is one row of the table: the normalized isotope intensity
// fractions for isotopologues 0..len(Fractions)-1 of a representative mass.
type Entry struct {
	Mass      float64
	Fractions []float64
}

// Table is a precomputed, read-only-after-construction averagine isotope
// table. It is safe to share across all scan iterations.
type Table struct {
	params Params
	rows   []Entry
}

// New constructs a Table under the given parameters.
func New(p Params) *Table {
	t := &Table{params: p, rows: make([]Entry, p.RowCount)}
	for k := 0; k < p.RowCount; k++ {
		mass := p.Step * float64(k)
		t.rows[k] = Entry{Mass: mass, Fractions: buildRow(mass, p)}
	}
	return t
}

// buildRow computes the isotope envelope for representative mass m by
// iterative convolution of each element's isotope distribution, scaled to
// the expected atom count at that mass.
func buildRow(m float64, p Params) []float64 {
	dist := []float64{1}
	for _, el := range averagineElements {
		n := el.residuesPerDalton * m
		dist = convolveElement(dist, el, n, p.InterIsotopeTrim)
	}
	dist = trim(dist, p.FinalTrim)
	if p.Normalize {
		normalize(dist)
	}
	return dist
}

// convolveElement convolves dist with the isotope distribution of n atoms
// of el, pruning isotopologues below frac*sum after each convolution step.
func convolveElement(dist []float64, el element, n float64, frac float64) []float64 {
	// Single-atom isotope polynomial, e.g. for carbon: 0.9893 + 0.0107*x.
	maxOffset := 0
	for _, iso := range el.isotopes {
		if iso.offset > maxOffset {
			maxOffset = iso.offset
		}
	}
	single := make([]float64, maxOffset+1)
	for _, iso := range el.isotopes {
		single[iso.offset] = iso.abundance
	}

	// Raise the single-atom polynomial to the n-th power by repeated
	// squaring-style doubling, since n is a (possibly fractional, rounded
	// here) atom count rather than a small integer in general.
	count := int(math.Round(n))
	if count < 0 {
		count = 0
	}
	result := []float64{1}
	base := single
	for count > 0 {
		if count&1 == 1 {
			result = convolve(result, base)
			result = trim(result, frac)
		}
		count >>= 1
		if count > 0 {
			base = convolve(base, base)
			base = trim(base, frac)
		}
	}
	return convolve(dist, result)
}

// convolve returns the discrete convolution of a and b.
func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// trim drops trailing/leading near-zero entries below frac of the vector
// sum, keeping the vector's leading run starting at its first
// above-threshold entry through its last.
func trim(v []float64, frac float64) []float64 {
	if len(v) == 0 {
		return v
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return v
	}
	thresh := frac * sum
	first, last := 0, len(v)-1
	for first < len(v) && v[first] < thresh {
		first++
	}
	for last >= first && v[last] < thresh {
		last--
	}
	if first > last {
		return nil
	}
	return append([]float64(nil), v[first:last+1]...)
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}

// rowIndex returns the clamped row index for mass, per spec.md §4.A
// ("out-of-range masses clamp to first/last row").
func (t *Table) rowIndex(mass float64) int {
	k := int(math.Round(mass / t.params.Step))
	if k < 0 {
		return 0
	}
	if k >= len(t.rows) {
		return len(t.rows) - 1
	}
	return k
}

// Fractions returns the isotope envelope for the closest tabulated mass.
func (t *Table) Fractions(mass float64) []float64 {
	return t.rows[t.rowIndex(mass)].Fractions
}

// Interpolated returns the linearly interpolated intensity of the given
// isotope index between the two tabulated rows bracketing mass.
func (t *Table) Interpolated(mass float64, isotope int) float64 {
	k := mass / t.params.Step
	lo := int(math.Floor(k))
	hi := lo + 1
	if lo < 0 {
		lo, hi = 0, 0
	}
	if hi >= len(t.rows) {
		hi = len(t.rows) - 1
		lo = hi
	}
	frac := k - float64(lo)
	a := valueAt(t.rows[lo].Fractions, isotope)
	b := valueAt(t.rows[hi].Fractions, isotope)
	return a + (b-a)*frac
}

func valueAt(fr []float64, i int) float64 {
	if i < 0 || i >= len(fr) {
		return 0
	}
	return fr[i]
}

// Step returns the per-row mass spacing of the table.
func (t *Table) Step() float64 { return t.params.Step }

// Params returns the parameter set used to construct the table.
func (t *Table) Params() Params { return t.params }

// CSVSource is the optional pre-built averagine resource from spec.md §6
// Inbound: a mapping from mass row to isotopologue intensity fractions.
type CSVSource interface {
	// Rows returns rows in increasing mass order, (row mass, fractions).
	Rows() ([]Entry, error)
}

// FromCSV constructs a Table directly from a CSVSource without solving the
// element convolution in-process.
func FromCSV(src CSVSource, step float64) (*Table, error) {
	rows, err := src.Rows()
	if err != nil {
		return nil, err
	}
	return &Table{
		params: Params{Step: step, RowCount: len(rows)},
		rows:   rows,
	}, nil
}
