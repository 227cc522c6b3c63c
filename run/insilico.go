package run

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kortschak/msfeature/model"
)

// PeptideLookup resolves a master feature's sequence via an injected
// MS2-match-lookup collaborator (the Byonic interface named out-of-scope
// in spec.md §1); the core never depends on a concrete Byonic client.
type PeptideLookup func(massDa, rtMin float64) (peptide string, ok bool)

// insilicoHeader is the exact row schema from spec.md §6 Outbound.
var insilicoHeader = []string{
	"Sequence", "UnchargedMass", "ModificationsPositionList", "ModificationsNameList",
	"StartTime", "EndTime", "ChargeList", "Comment", "GlycanList", "ApexTime",
	"CoarseIntensity", "DominantMz", "IsotopeCount", "AveragineCorr",
}

// WriteInsilicoCSV writes one row per master feature group (masters
// sharing a MasterID), implementing original_source's InsilicoGenerator
// export named by spec.md §6 Outbound but not assigned to a spec.md
// component. lookup may be nil, in which case every Sequence is
// UNKNOWN_<master_feature>.
func WriteInsilicoCSV(w io.Writer, masters []model.MasterFeature, lookup PeptideLookup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(insilicoHeader); err != nil {
		return fmt.Errorf("run: insilico header: %w", err)
	}

	byMaster := map[int][]model.MasterFeature{}
	for _, m := range masters {
		byMaster[m.MasterID] = append(byMaster[m.MasterID], m)
	}
	ids := make([]int, 0, len(byMaster))
	for id := range byMaster {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		group := byMaster[id]
		if err := writeRow(cw, id, group, lookup); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeRow(cw *csv.Writer, masterID int, group []model.MasterFeature, lookup PeptideLookup) error {
	apex := group[0]
	for _, m := range group {
		if m.MaxIntensity > apex.MaxIntensity {
			apex = m
		}
	}

	dominantCharge := 0
	if len(apex.ChargeOrder) > 0 {
		dominantCharge = apex.ChargeOrder[0]
	}
	dominantMZ := 0.0
	if dominantCharge > 0 {
		dominantMZ = model.DominantMZ(apex.MWMonoisotopic, dominantCharge)
	}

	sequence := fmt.Sprintf("UNKNOWN_%d", masterID)
	if lookup != nil {
		if pep, ok := lookup(apex.MWMonoisotopic, apex.ApexRT); ok {
			sequence = pep
		}
	}

	charges := make([]string, len(apex.ChargeOrder))
	for i, c := range apex.ChargeOrder {
		charges[i] = strconv.Itoa(c)
	}

	start, end := group[0].XICStartRT, group[0].XICEndRT
	for _, m := range group {
		if m.XICStartRT < start {
			start = m.XICStartRT
		}
		if m.XICEndRT > end {
			end = m.XICEndRT
		}
	}

	row := []string{
		sequence,
		strconv.FormatFloat(apex.MWMonoisotopic, 'f', -1, 64),
		"", "",
		strconv.FormatFloat(start, 'f', -1, 64),
		strconv.FormatFloat(end, 'f', -1, 64),
		strings.Join(charges, ","),
		"",
		"",
		strconv.FormatFloat(apex.ApexRT, 'f', -1, 64),
		strconv.FormatFloat(apex.MaxIntensity, 'f', -1, 64),
		strconv.FormatFloat(dominantMZ, 'f', -1, 64),
		strconv.Itoa(apex.MaxIsotopeCount),
		strconv.FormatFloat(apex.MaxCorr, 'f', -1, 64),
	}
	return cw.Write(row)
}
