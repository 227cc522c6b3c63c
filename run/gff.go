package run

import (
	"fmt"
	"io"

	"github.com/biogo/biogo/io/featio/gff"
	"github.com/biogo/biogo/seq"

	"github.com/kortschak/msfeature/model"
)

// WriteFeaturesGFF writes feats as a GFF file, one record per feature, for
// inspection in genome-browser-like tools plotting retention time on the
// position axis. sampleName becomes the GFF seqname column. RT (minutes) is
// scaled to whole seconds since GFF positions are integers.
//
// This mirrors cmd/ins's gff.NewWriter(os.Stdout, 60, true) usage, with the
// repeat-masking "Repeat" attribute replaced by "xic"/"charge_order".
func WriteFeaturesGFF(w io.Writer, sampleName string, feats []model.Feature) error {
	enc := gff.NewWriter(w, 60, true)
	for _, f := range feats {
		score := f.MaxCorr
		_, err := enc.Write(&gff.Feature{
			SeqName:    sampleName,
			Source:     "msfeature",
			Feature:    "feature",
			FeatStart:  toSeconds(f.XICStartRT),
			FeatEnd:    toSeconds(f.XICEndRT),
			FeatScore:  &score,
			FeatStrand: seq.Strand(0),
			FeatFrame:  gff.NoFrame,
			FeatAttributes: gff.Attributes{
				{Tag: "mass", Value: fmt.Sprintf("%.4f", f.MWMonoisotopic)},
				{Tag: "charge_order", Value: chargeOrderString(f.ChargeOrder)},
				{Tag: "xic", Value: fmt.Sprintf("%.3f-%.3f", f.XICStartRT, f.XICEndRT)},
			},
		})
		if err != nil {
			return fmt.Errorf("run: writing gff feature: %w", err)
		}
	}
	return nil
}

func toSeconds(rt float64) int {
	return int(rt*60 + 0.5)
}

func chargeOrderString(charges []int) string {
	s := ""
	for i, c := range charges {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%d", c)
	}
	return s
}
