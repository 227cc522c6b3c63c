// Package reader defines the vendor MS reader contract (spec.md §6
// Inbound): an external collaborator supplying ordered MS1 scans. This
// package holds only the interface and a small in-memory implementation
// used by tests; a real vendor format reader is outside the scope of this
// module.
package reader

import "github.com/kortschak/msfeature/model"

// ScanInfo is the per-scan metadata returned by ScanInfoList.
type ScanInfo struct {
	VendorScanNumber int
	RetentionTime    float64 // minutes
	ScanLevel        int
}

// Reader is the vendor reader contract. Open is expected to have already
// been called by whatever constructs a Reader; Close releases any
// underlying file handle or device lock.
type Reader interface {
	ScanInfoList(level int) ([]ScanInfo, error)
	ScanData(vendorScanNumber int, centroided bool) (model.Spectrum, error)
	Close() error
}

// Memory is an in-memory Reader over a fixed set of scans, used by tests
// rather than any real vendor format.
type Memory struct {
	scans map[int]model.Spectrum
	infos []ScanInfo
}

// NewMemory builds a Memory reader from a list of (ScanInfo, Spectrum)
// pairs, all implicitly MS level 1.
func NewMemory(scans []model.Scan) *Memory {
	m := &Memory{scans: make(map[int]model.Spectrum, len(scans))}
	for _, s := range scans {
		m.scans[s.VendorScanNumber] = s.Spectrum
		m.infos = append(m.infos, ScanInfo{
			VendorScanNumber: s.VendorScanNumber,
			RetentionTime:    s.RetentionTime,
			ScanLevel:        s.MSLevel,
		})
	}
	return m
}

// ScanInfoList returns the scans at the given MS level, in the order
// they were supplied to NewMemory.
func (m *Memory) ScanInfoList(level int) ([]ScanInfo, error) {
	var out []ScanInfo
	for _, info := range m.infos {
		if info.ScanLevel == level {
			out = append(out, info)
		}
	}
	return out, nil
}

// ScanData returns the stored spectrum for vendorScanNumber. centroided is
// accepted for contract parity but ignored: Memory always holds
// already-centroided spectra.
func (m *Memory) ScanData(vendorScanNumber int, centroided bool) (model.Spectrum, error) {
	return m.scans[vendorScanNumber], nil
}

// Close is a no-op for Memory.
func (m *Memory) Close() error { return nil }
