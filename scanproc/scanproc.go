// Package scanproc implements the per-scan state machine (component H):
// Load → HashToSparse → SelectCandidates → PerCandidate → Done.
package scanproc

import (
	"log"
	"sort"

	"github.com/kortschak/msfeature/averagine"
	"github.com/kortschak/msfeature/candidate"
	"github.com/kortschak/msfeature/charge"
	"github.com/kortschak/msfeature/config"
	"github.com/kortschak/msfeature/disambig"
	"github.com/kortschak/msfeature/model"
	"github.com/kortschak/msfeature/monoiso"
	"github.com/kortschak/msfeature/nn"
	"github.com/kortschak/msfeature/segment"
	"github.com/kortschak/msfeature/subtract"
)

// Models bundles the neural charge/monoisotope nets used by Process. Either
// may be nil, in which case the classical variant is used for that
// determination.
type Models struct {
	Charge     *nn.Net
	Monoiso    map[int]*nn.Net // keyed by charge
	Table      *averagine.Table
	NoiseK     float64 // stdev multiplier for candidate.NoiseFloor, used as given (zero means the median alone)
	MaxCharge  int
	Teeth      int
	Disambig   bool
}

// Process runs the per-scan state machine on one scan and returns the
// Charge-Cluster Records it emits. full is reloaded from this scan's
// spectrum at the start of the call, replacing whatever an earlier scan
// left in it, and is then mutated in place by successful subtractions; it
// is owned by the caller, which may reuse it for every scan of a sample.
func Process(scan model.Scan, full *segment.FullScan, p config.Params, imm config.Immutable, m Models) []model.ChargeClusterRecord {
	spectrum := truncateByIonCount(scan.Spectrum, imm.MaxIonCount)

	if err := full.Load(spectrum); err != nil {
		log.Printf("scan %d: load: %v", scan.ScanIndex, err)
		return nil
	}

	noiseFloor := candidate.NoiseFloor(spectrum, m.NoiseK)
	candidates := candidate.Select(spectrum, noiseFloor, m.MaxCharge, imm.ErrorRangeDa)

	var out []model.ChargeClusterRecord
	for _, c := range candidates {
		rec, ok := processCandidate(scan, full, c.MZ, noiseFloor, p, imm, m)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// truncateByIonCount implements spec.md §4.H step 1: if the spectrum
// exceeds max_ion_count, keep the top-max_ion_count points by intensity,
// then re-sort by m/z. This surprising order (truncate by intensity, then
// reorder by m/z) is kept verbatim because the neural charge model was
// trained on segments produced under this rule (spec.md §9).
func truncateByIonCount(spectrum model.Spectrum, maxIonCount int) model.Spectrum {
	if len(spectrum) <= maxIonCount {
		return spectrum
	}
	kept := append(model.Spectrum(nil), spectrum...)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Intensity > kept[j].Intensity })
	kept = kept[:maxIonCount]
	sort.Slice(kept, func(i, j int) bool { return kept[i].MZ < kept[j].MZ })
	return kept
}

func processCandidate(scan model.Scan, full *segment.FullScan, centerMZ, noiseFloor float64, p config.Params, imm config.Immutable, m Models) (model.ChargeClusterRecord, bool) {
	seg := full.Extract(centerMZ, segment.Radius)
	if seg.IsZero() || seg.Center() < noiseFloor {
		return model.ChargeClusterRecord{}, false
	}

	z := determineCharge(seg, imm, m)
	if z == 0 {
		return model.ChargeClusterRecord{}, false
	}

	var (
		workSeg  = seg
		offset   int
		precise  bool
	)
	if p.EnableDisambiguation {
		workSeg = disambig.RemoveOverlappingIons(seg, z, m.Teeth, imm.ErrorRangeDa)
		offset = determineMonoiso(workSeg, z, m)
		precise = true
	} else {
		offset = determineMonoiso(workSeg, z, m)
		precise = false
	}

	dec := subtract.Build(workSeg, m.Table, centerMZ, z, offset, imm.ErrorRangeDa, precise, imm.AugmentFactor, p.MinIsotopeCount)

	if err := full.SubtractSparse(dec.Full); err != nil {
		log.Printf("scan %d: subtract at %.4f: %v", scan.ScanIndex, centerMZ, err)
		return model.ChargeClusterRecord{}, false
	}

	mw := model.MWFromMZ(centerMZ, z, offset)
	if dec.Correlation <= p.CorrelationCutoff || mw < p.MinFeatureMass || mw > p.MaxFeatureMass {
		return model.ChargeClusterRecord{}, false
	}

	return model.ChargeClusterRecord{
		ScanIndex:          scan.ScanIndex,
		VendorScanNumber:   scan.VendorScanNumber,
		RT:                 scan.RetentionTime,
		MZFound:            centerMZ,
		MaxIntensity:       seg.Center(),
		MWMonoisotopic:     mw,
		MonoOffset:         offset,
		Correlation:        dec.Correlation,
		Charge:             z,
		IsotopeCount:       dec.IsotopeCount,
		ScanNoiseFloor:     noiseFloor,
	}, true
}

func determineCharge(seg *segment.Segment, imm config.Immutable, m Models) int {
	if m.Charge != nil {
		return charge.DetermineNeural(seg, m.Charge, m.MaxCharge)
	}
	return charge.DetermineClassical(expandSegment(seg), seg.CenterMZ, m.MaxCharge, imm.ErrorRangeDa)
}

func determineMonoiso(seg *segment.Segment, z int, m Models) int {
	if net, ok := m.Monoiso[z]; ok && net != nil {
		return monoiso.DetermineNeural(seg, net, z)
	}
	offset, _ := monoiso.DetermineClassical(seg, m.Table, z)
	return offset
}

// expandSegment flattens a Segment back into a Spectrum of nonzero points,
// for the classical charge determinator which works on raw peak lists.
func expandSegment(seg *segment.Segment) model.Spectrum {
	out := make(model.Spectrum, 0, seg.Len())
	for i, v := range seg.Values {
		if v == 0 {
			continue
		}
		out = append(out, model.Point{MZ: seg.MZAt(i), Intensity: v})
	}
	return out
}
