package sink

import (
	"reflect"
	"testing"

	"github.com/kortschak/msfeature/model"
)

func TestChargeClusterRoundTrip(t *testing.T) {
	rec := model.ChargeClusterRecord{
		ScanIndex: 12, VendorScanNumber: 1012, RT: 3.5, MZFound: 751.88,
		MaxIntensity: 9000, MWMonoisotopic: 1501.75, MonoOffset: 1,
		Correlation: 0.91, Charge: 2, IsotopeCount: 5, ScanNoiseFloor: 120,
	}
	got := DecodeChargeCluster(encodeChargeCluster(rec))
	if got != rec {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, rec)
	}
}

func TestFeatureRoundTrip(t *testing.T) {
	f := model.Feature{
		XICStartRT: 1.0, XICEndRT: 1.5, ApexRT: 1.2, MWMonoisotopic: 2000.5,
		MaxCorr: 0.88, MaxIntensity: 5000, IonCount: 4, ChargeOrder: []int{2, 3},
		MaxIsotopeCount: 6,
	}
	got := DecodeFeature(encodeFeature(f))
	if !reflect.DeepEqual(got, f) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
}
