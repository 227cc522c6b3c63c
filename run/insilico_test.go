package run

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kortschak/msfeature/model"
)

func TestWriteInsilicoCSVUnknownSequenceWithoutLookup(t *testing.T) {
	masters := []model.MasterFeature{
		{
			Feature: model.Feature{
				XICStartRT: 1.0, XICEndRT: 1.5, ApexRT: 1.2, MWMonoisotopic: 1200.5,
				MaxCorr: 0.9, MaxIntensity: 5000, ChargeOrder: []int{2, 3}, MaxIsotopeCount: 5,
			},
			SampleID: "s1", MasterID: 0,
		},
	}
	var buf bytes.Buffer
	if err := WriteInsilicoCSV(&buf, masters, nil); err != nil {
		t.Fatalf("WriteInsilicoCSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "UNKNOWN_0") {
		t.Fatalf("want UNKNOWN_0 sequence in output, got: %s", out)
	}
	if !strings.Contains(out, "2,3") {
		t.Fatalf("want comma-separated charge list, got: %s", out)
	}
}

func TestWriteInsilicoCSVUsesLookup(t *testing.T) {
	masters := []model.MasterFeature{
		{
			Feature:  model.Feature{ApexRT: 1.2, MWMonoisotopic: 1200.5, ChargeOrder: []int{2}},
			SampleID: "s1", MasterID: 7,
		},
	}
	lookup := func(mass, rt float64) (string, bool) { return "PEPTIDE", true }
	var buf bytes.Buffer
	if err := WriteInsilicoCSV(&buf, masters, lookup); err != nil {
		t.Fatalf("WriteInsilicoCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "PEPTIDE") {
		t.Fatalf("want matched peptide in output, got: %s", buf.String())
	}
}
