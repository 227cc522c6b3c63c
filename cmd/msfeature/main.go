// msfeature is a label-free LC-MS feature finder. It reads ordered MS1
// scans from a vendor reader, deconvolves each scan into charge-cluster
// records, collates those into per-sample features, optionally warps and
// groups features across samples into master features, and writes the
// results to a per-sample tabular sink.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kortschak/msfeature/averagine"
	"github.com/kortschak/msfeature/config"
	"github.com/kortschak/msfeature/model"
	"github.com/kortschak/msfeature/nn"
	"github.com/kortschak/msfeature/reader"
	"github.com/kortschak/msfeature/run"
	"github.com/kortschak/msfeature/scanproc"
	"github.com/kortschak/msfeature/sink"
	"github.com/kortschak/msfeature/warp"
	"github.com/kortschak/msfeature/xsample"
)

func main() {
	out := flag.String("out", "", "specify output directory for per-sample kv stores (required)")
	weights := flag.String("weights", "", "specify NN weights store directory (optional; classical determinators used if absent)")
	averagineCSV := flag.String("averagine-csv", "", "specify pre-built averagine table CSV (optional; table computed in-process if absent)")
	corrCutoff := flag.Float64("corr-cutoff", config.Default().CorrelationCutoff, "averagine correlation cutoff")
	minMass := flag.Float64("min-mass", config.Default().MinFeatureMass, "minimum feature mass (Da)")
	maxMass := flag.Float64("max-mass", config.Default().MaxFeatureMass, "maximum feature mass (Da)")
	minScans := flag.Int("min-scans", config.Default().MinScanCount, "minimum scan count per feature")
	ppm := flag.Float64("ppm", config.Default().PPM, "mass accuracy tolerance in ppm")
	disambig := flag.Bool("disambig", config.Default().EnableDisambiguation, "enable spectra disambigutron for overlapping clusters")
	threads := flag.Int("cores", 0, "maximum worker goroutines (<=0 means runtime.NumCPU())")
	gffDir := flag.String("gff-dir", "", "specify a directory to additionally write one <sample>.gff per sample (optional)")
	insilicoPath := flag.String("insilico-csv", "", "specify a path to write the cross-sample master-feature insilico CSV (optional; requires >1 sample)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -out <dir> <sample.raw> [<sample.raw> ...]

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *out == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	p := config.Default()
	p.CorrelationCutoff = *corrCutoff
	p.MinFeatureMass = *minMass
	p.MaxFeatureMass = *maxMass
	p.MinScanCount = *minScans
	p.PPM = *ppm
	p.EnableDisambiguation = *disambig
	if err := p.Validate(); err != nil {
		log.Fatal(err)
	}
	imm := config.DefaultImmutable()

	table := run.NewTable()
	if *averagineCSV != "" {
		f, err := os.Open(*averagineCSV)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		t, err := averagine.FromCSV(averagine.NewCSVFile(f), averagine.AccurateParams.Step)
		if err != nil {
			log.Fatal(err)
		}
		table = t
	}

	models := scanproc.Models{
		Table:     table,
		MaxCharge: imm.MaxChargeState,
		Teeth:     imm.CombFilterTeethChargeMax,
		NoiseK:    p.NoiseFactorMultiplier,
	}
	if *weights != "" {
		ws, err := nn.OpenKVWeightsStore(nn.PathFor(*weights))
		if err != nil {
			log.Fatal(err)
		}
		defer ws.Close()
		if w, err := ws.Weights(nn.ChargeModelID); err == nil {
			models.Charge = nn.NewNet(*w)
		} else {
			log.Printf("msfeature: no charge weights found, using classical determinator: %v", err)
		}
		models.Monoiso = map[int]*nn.Net{}
		for z := 1; z <= imm.MaxChargeState; z++ {
			if w, err := ws.Weights(nn.MonoisotopeModelID(z)); err == nil {
				models.Monoiso[z] = nn.NewNet(*w)
			}
		}
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal(err)
	}

	n := runtime.NumCPU()
	if *threads > 0 {
		n = *threads
	}
	r := run.NewRunner(p, imm, models, func(sampleID string) (sink.Sink, error) {
		return sink.OpenKVSink(*out)
	})
	r.Workers = n

	var samples []run.Sample
	for _, path := range flag.Args() {
		rdr, err := openVendorFile(path)
		if err != nil {
			log.Fatal(err)
		}
		samples = append(samples, run.Sample{ID: sampleID(path), Reader: rdr})
	}

	log.Printf("running %d samples with %d workers", len(samples), n)
	summaries, features := r.Run(context.Background(), samples)

	if len(samples) > 1 {
		masters := collateAcrossSamples(samples, features, p, imm)
		bySample := map[string]map[int]bool{}
		for _, m := range masters {
			set, ok := bySample[m.SampleID]
			if !ok {
				set = map[int]bool{}
				bySample[m.SampleID] = set
			}
			set[m.MasterID] = true
		}
		for i := range summaries {
			summaries[i].MasterFeatures = len(bySample[summaries[i].SampleID])
		}

		if *insilicoPath != "" {
			f, err := os.Create(*insilicoPath)
			if err != nil {
				log.Fatal(err)
			}
			err = run.WriteInsilicoCSV(f, masters, nil)
			f.Close()
			if err != nil {
				log.Printf("msfeature: insilico csv export failed: %v", err)
			}
		}
	}

	if *gffDir != "" {
		if err := os.MkdirAll(*gffDir, 0o755); err != nil {
			log.Fatal(err)
		}
		for sampleID, feats := range features {
			if err := writeSampleGFF(*gffDir, sampleID, feats); err != nil {
				log.Printf("msfeature: %s: gff export failed: %v", sampleID, err)
			}
		}
	}

	failed := 0
	for _, s := range summaries {
		status := "ok"
		if !s.OK {
			status = "failed: " + s.FailureReason
			failed++
		}
		log.Printf("%s: %s (scans=%d candidates=%d clusters=%d features=%d master_features=%d)",
			s.SampleID, status, s.ScansProcessed, s.CandidatesConsidered, s.ClustersEmitted, s.Features, s.MasterFeatures)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func sampleID(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// collateAcrossSamples builds per-sample retention-time warps against a
// chosen pivot sample (component J) and groups the resulting warped
// features into master features (component K), per spec.md §4.J/§4.K.
// Samples whose landmark extraction fails are warped as identity (their
// own RT axis) rather than dropped, so one bad reader doesn't exclude a
// sample's features from collation entirely.
func collateAcrossSamples(samples []run.Sample, features map[string][]model.Feature, p config.Params, imm config.Immutable) []model.MasterFeature {
	landmarks := make([][]warp.Landmark, len(samples))
	for i, s := range samples {
		lm, err := run.BuildLandmarks(s.Reader, 1)
		if err != nil {
			log.Printf("msfeature: %s: landmark extraction failed, using identity warp: %v", s.ID, err)
			continue
		}
		landmarks[i] = lm
	}

	pivot := warp.SelectPivot(landmarks)

	var members []xsample.Member
	for i, s := range samples {
		w := warp.Build(landmarks[pivot], landmarks[i], p.PPM)
		for _, f := range features[s.ID] {
			members = append(members, xsample.Member{
				Feature:  f,
				SampleID: s.ID,
				RTWarped: w.Map(f.ApexRT),
			})
		}
	}

	return xsample.Collate(members, p.PPM, imm.MaxTimeToleranceWarped, true)
}

func writeSampleGFF(dir, sampleID string, feats []model.Feature) error {
	f, err := os.Create(filepath.Join(dir, sampleID+".gff"))
	if err != nil {
		return err
	}
	defer f.Close()
	return run.WriteFeaturesGFF(f, sampleID, feats)
}

// openVendorFile is the integration point for a real vendor-format
// reader; this module implements only the reader.Reader contract
// (spec.md §6 Inbound), not any concrete vendor parser, so every path is
// currently rejected. A deployment wires a real reader.Reader
// implementation in here.
func openVendorFile(path string) (reader.Reader, error) {
	return nil, fmt.Errorf("msfeature: no vendor reader implementation registered for %s", path)
}
