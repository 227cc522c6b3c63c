package run

import (
	"sort"

	"github.com/kortschak/msfeature/model"
	"github.com/kortschak/msfeature/reader"
	"github.com/kortschak/msfeature/warp"
)

// DominantPeakCount bounds how many of a scan's most intense points are
// kept as a warp.Landmark's Peaks, gating the Time-Warp Builder's
// m/z-matching penalty term (spec.md §4.J).
const DominantPeakCount = 3

// BuildLandmarks reduces every MS-level scan from rdr to a warp.Landmark:
// its retention time, a summed-intensity proxy, and the DominantPeakCount
// most intense points. Scans that fail to read are skipped, consistent
// with runSample's per-scan failure handling.
func BuildLandmarks(rdr reader.Reader, level int) ([]warp.Landmark, error) {
	infos, err := rdr.ScanInfoList(level)
	if err != nil {
		return nil, err
	}
	landmarks := make([]warp.Landmark, 0, len(infos))
	for _, info := range infos {
		spectrum, err := rdr.ScanData(info.VendorScanNumber, true)
		if err != nil {
			continue
		}
		var total float64
		for _, p := range spectrum {
			total += p.Intensity
		}
		landmarks = append(landmarks, warp.Landmark{
			T:         info.RetentionTime,
			Intensity: total,
			Peaks:     dominantPeaks(spectrum, DominantPeakCount),
		})
	}
	return landmarks, nil
}

func dominantPeaks(spectrum model.Spectrum, n int) []model.Point {
	sorted := append(model.Spectrum(nil), spectrum...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Intensity > sorted[j].Intensity })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]model.Point, len(sorted))
	copy(out, sorted)
	return out
}
