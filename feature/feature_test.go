package feature

import (
	"testing"

	"github.com/kortschak/msfeature/model"
)

func TestCollateGroupsContiguousScansByMass(t *testing.T) {
	records := []model.ChargeClusterRecord{
		{ScanIndex: 0, RT: 1.0, MWMonoisotopic: 1200.0, Charge: 2, MaxIntensity: 100, Correlation: 0.9, IsotopeCount: 4},
		{ScanIndex: 1, RT: 1.1, MWMonoisotopic: 1200.001, Charge: 2, MaxIntensity: 300, Correlation: 0.95, IsotopeCount: 5},
		{ScanIndex: 2, RT: 1.2, MWMonoisotopic: 1199.999, Charge: 2, MaxIntensity: 150, Correlation: 0.85, IsotopeCount: 3},

		{ScanIndex: 0, RT: 1.0, MWMonoisotopic: 3000.0, Charge: 3, MaxIntensity: 80, Correlation: 0.8, IsotopeCount: 4},
		{ScanIndex: 1, RT: 1.1, MWMonoisotopic: 3000.002, Charge: 3, MaxIntensity: 90, Correlation: 0.81, IsotopeCount: 4},
		{ScanIndex: 2, RT: 1.2, MWMonoisotopic: 2999.998, Charge: 3, MaxIntensity: 95, Correlation: 0.82, IsotopeCount: 4},
	}
	features := Collate(records, 5.01, 3)
	if len(features) != 2 {
		t.Fatalf("want 2 features, got %d", len(features))
	}
	for _, f := range features {
		if f.IonCount < 3 {
			t.Fatalf("want ion_count >= min_scan_count, got %d", f.IonCount)
		}
		if !(f.XICStartRT <= f.ApexRT && f.ApexRT <= f.XICEndRT) {
			t.Fatalf("want xic_start <= apex_rt <= xic_end, got %v <= %v <= %v", f.XICStartRT, f.ApexRT, f.XICEndRT)
		}
	}
}

func TestCollateDropsNoise(t *testing.T) {
	records := []model.ChargeClusterRecord{
		{ScanIndex: 0, RT: 1.0, MWMonoisotopic: 1200.0, Charge: 2, MaxIntensity: 100},
	}
	features := Collate(records, 5.01, 3)
	if len(features) != 0 {
		t.Fatalf("single isolated point should be noise (minPoints=3), got %d features", len(features))
	}
}

func TestCollateChargeOrderByFirstAppearanceInIntensityOrder(t *testing.T) {
	records := []model.ChargeClusterRecord{
		{ScanIndex: 0, RT: 1.0, MWMonoisotopic: 1500.0, Charge: 2, MaxIntensity: 50},
		{ScanIndex: 1, RT: 1.1, MWMonoisotopic: 1500.001, Charge: 3, MaxIntensity: 500},
		{ScanIndex: 2, RT: 1.2, MWMonoisotopic: 1499.999, Charge: 2, MaxIntensity: 200},
	}
	features := Collate(records, 5.01, 3)
	if len(features) != 1 {
		t.Fatalf("want 1 feature, got %d", len(features))
	}
	order := features[0].ChargeOrder
	if len(order) != 2 || order[0] != 3 || order[1] != 2 {
		t.Fatalf("want charge order [3,2] (by decreasing intensity first-appearance), got %v", order)
	}
}
