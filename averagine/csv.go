package averagine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVFile adapts an io.Reader of comma-separated rows (mass, fraction_0,
// fraction_1, …) into a CSVSource, the optional pre-built averagine
// resource from spec.md §6 Inbound.
type CSVFile struct {
	r io.Reader
}

// NewCSVFile wraps r as a CSVSource.
func NewCSVFile(r io.Reader) *CSVFile { return &CSVFile{r: r} }

// Rows parses every record of the underlying reader into an Entry, in
// file order (expected to already be increasing-mass order).
func (f *CSVFile) Rows() ([]Entry, error) {
	cr := csv.NewReader(f.r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("averagine: reading csv: %w", err)
	}
	rows := make([]Entry, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("averagine: csv row %d: want mass + at least one fraction, got %d fields", i, len(rec))
		}
		mass, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("averagine: csv row %d: mass: %w", i, err)
		}
		fractions := make([]float64, len(rec)-1)
		for j, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("averagine: csv row %d: fraction %d: %w", i, j, err)
			}
			fractions[j] = v
		}
		rows = append(rows, Entry{Mass: mass, Fractions: fractions})
	}
	return rows, nil
}
