// Package feature implements the Feature Collator (component I): grouping
// Charge-Cluster Records into Features by density clustering over
// (scan_index, mass) points.
package feature

import (
	"sort"

	"github.com/kortschak/msfeature/cluster"
	"github.com/kortschak/msfeature/model"
)

// MassScale is S, the scale factor applied to mass so it is commensurate
// with scan_index in the clustering distance metric (spec.md §4.I, S ≈ 50).
const MassScale = 50

// Collate groups records into Features, per spec.md §4.I: points
// (scan_index, mw_monoisotopic*S) are density-clustered with the given
// eps and minPoints; noise-labeled members are dropped.
func Collate(records []model.ChargeClusterRecord, eps float64, minPoints int) []model.Feature {
	if len(records) == 0 {
		return nil
	}

	points := make([]cluster.Point2, len(records))
	for i, r := range records {
		points[i] = cluster.Point2{X: float64(r.ScanIndex), Y: r.MWMonoisotopic * MassScale}
	}
	labels := cluster.DBSCAN(points, eps, minPoints)

	byCluster := map[int][]model.ChargeClusterRecord{}
	for i, l := range labels {
		if l == cluster.Noise {
			continue
		}
		byCluster[l] = append(byCluster[l], records[i])
	}

	ids := make([]int, 0, len(byCluster))
	for id := range byCluster {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	features := make([]model.Feature, 0, len(ids))
	for _, id := range ids {
		features = append(features, buildFeature(byCluster[id]))
	}
	return features
}

func buildFeature(members []model.ChargeClusterRecord) model.Feature {
	byIntensityDesc := append([]model.ChargeClusterRecord(nil), members...)
	sort.Slice(byIntensityDesc, func(i, j int) bool {
		return byIntensityDesc[i].MaxIntensity > byIntensityDesc[j].MaxIntensity
	})
	apex := byIntensityDesc[0]

	f := model.Feature{
		XICStartRT:      members[0].RT,
		XICEndRT:        members[0].RT,
		ApexRT:          apex.RT,
		MWMonoisotopic:  apex.MWMonoisotopic,
		MaxCorr:         apex.Correlation,
		MaxIntensity:    apex.MaxIntensity,
		IonCount:        len(members),
		MaxIsotopeCount: apex.IsotopeCount,
	}
	for _, m := range members {
		if m.RT < f.XICStartRT {
			f.XICStartRT = m.RT
		}
		if m.RT > f.XICEndRT {
			f.XICEndRT = m.RT
		}
	}

	seen := map[int]bool{}
	for _, m := range byIntensityDesc {
		if seen[m.Charge] {
			continue
		}
		seen[m.Charge] = true
		f.ChargeOrder = append(f.ChargeOrder, m.Charge)
	}
	return f
}
