package run

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kortschak/msfeature/model"
)

func TestWriteFeaturesGFFWritesOneRecordPerFeature(t *testing.T) {
	feats := []model.Feature{
		{XICStartRT: 1.5, XICEndRT: 1.8, MWMonoisotopic: 1234.5, ChargeOrder: []int{2, 3}, MaxCorr: 0.97},
		{XICStartRT: 2.0, XICEndRT: 2.4, MWMonoisotopic: 987.6, ChargeOrder: []int{1}, MaxCorr: 0.91},
	}

	var buf bytes.Buffer
	if err := WriteFeaturesGFF(&buf, "sample1", feats); err != nil {
		t.Fatalf("WriteFeaturesGFF: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\tsample1\t") == 0 && strings.Count(out, "sample1") == 0 {
		t.Fatalf("expected seqname sample1 in output, got %q", out)
	}
	if strings.Count(out, "charge_order") != 2 {
		t.Fatalf("expected one charge_order attribute per feature, got:\n%s", out)
	}
}

func TestToSecondsRounds(t *testing.T) {
	if got := toSeconds(1.499 / 60); got != 1 {
		t.Fatalf("toSeconds(1.499/60) = %d, want 1", got)
	}
}
