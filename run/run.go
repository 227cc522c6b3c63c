// Package run orchestrates per-sample feature finding over a bounded
// worker pool: one scanproc loop per sample, run to completion or
// cancellation, with per-sample counters rolled into a run Summary.
package run

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"

	"github.com/kortschak/msfeature/averagine"
	"github.com/kortschak/msfeature/config"
	"github.com/kortschak/msfeature/feature"
	"github.com/kortschak/msfeature/model"
	"github.com/kortschak/msfeature/reader"
	"github.com/kortschak/msfeature/scanproc"
	"github.com/kortschak/msfeature/segment"
	"github.com/kortschak/msfeature/sink"
)

// InputError wraps a vendor-reader failure (spec.md §7 Input kind):
// fatal before a run begins, or fatal to the one sample it occurs in.
type InputError struct {
	SampleID string
	Err      error
}

func (e *InputError) Error() string { return fmt.Sprintf("run: input error for %s: %v", e.SampleID, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// TransientError wraps a tabular-sink commit failure (spec.md §7
// Transient kind): surfaced to the caller, the sample is abandoned.
type TransientError struct {
	SampleID string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("run: transient error for %s: %v", e.SampleID, e.Err)
}
func (e *TransientError) Unwrap() error { return e.Err }

// Summary is the per-sample outcome counters from spec.md §7: a single
// status, an optional failure reason, and running counts of the scan
// loop's progress.
type Summary struct {
	SampleID             string
	OK                   bool
	FailureReason        string
	ScansProcessed       int
	CandidatesConsidered int
	ClustersEmitted      int
	Features             int
	// MasterFeatures is the number of distinct cross-sample master
	// features (component K) this sample contributed a member to. It is
	// computed after xsample.Collate runs across every sample in the
	// batch, so it is left at 0 by Run/runSample and populated by the
	// caller (cmd/msfeature) once master features exist.
	MasterFeatures int
}

// Sample is one unit of work: a sample id and its reader.
type Sample struct {
	ID     string
	Reader reader.Reader
}

// Runner runs one scanproc loop per sample across a bounded worker pool,
// in the style of the teacher's Threads-bounded blast.Nucleic searches
// (runtime.NumCPU()-defaulted concurrency).
type Runner struct {
	Workers int
	Params  config.Params
	Imm     config.Immutable
	Models  scanproc.Models
	Sink    func(sampleID string) (sink.Sink, error)
}

// NewRunner builds a Runner with Workers defaulted to runtime.NumCPU().
func NewRunner(p config.Params, imm config.Immutable, m scanproc.Models, sinkFactory func(string) (sink.Sink, error)) *Runner {
	return &Runner{Workers: runtime.NumCPU(), Params: p, Imm: imm, Models: m, Sink: sinkFactory}
}

// Run processes all samples, returning one Summary per sample (in
// Samples order) and the aggregated Features per sample. Cancellation via
// ctx is checked at scan boundaries only, per spec.md §5; on cancel, that
// sample's scan loop stops early, the Charge-Cluster Records already put
// stay in the sink, the records gathered so far are collated into
// Features and written, and EndSample commits them as for a complete
// sample, whose Summary then reports OK. Nothing written is rolled back.
func (r *Runner) Run(ctx context.Context, samples []Sample) ([]Summary, map[string][]model.Feature) {
	sem := make(chan struct{}, maxInt(1, r.Workers))
	var wg sync.WaitGroup
	summaries := make([]Summary, len(samples))
	features := make(map[string][]model.Feature)
	var mu sync.Mutex

	for i, s := range samples {
		wg.Add(1)
		go func(i int, s Sample) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			summary, feats := r.runSample(ctx, s)
			mu.Lock()
			summaries[i] = summary
			if len(feats) > 0 {
				features[s.ID] = feats
			}
			mu.Unlock()
		}(i, s)
	}
	wg.Wait()
	return summaries, features
}

func (r *Runner) runSample(ctx context.Context, s Sample) (Summary, []model.Feature) {
	summary := Summary{SampleID: s.ID}

	infos, err := s.Reader.ScanInfoList(1)
	if err != nil {
		summary.FailureReason = (&InputError{SampleID: s.ID, Err: err}).Error()
		return summary, nil
	}

	sk, err := r.Sink(s.ID)
	if err != nil {
		summary.FailureReason = (&TransientError{SampleID: s.ID, Err: err}).Error()
		return summary, nil
	}
	if err := sk.BeginSample(s.ID); err != nil {
		summary.FailureReason = (&TransientError{SampleID: s.ID, Err: err}).Error()
		return summary, nil
	}
	if err := sk.PutSettings(r.Params, r.Imm); err != nil {
		log.Printf("run: sample %s: settings write failed: %v", s.ID, err)
	}

	full, err := segment.NewFullScan(r.Imm.MZMax, r.Imm.VectorGranularity)
	if err != nil {
		summary.FailureReason = fmt.Sprintf("full scan init: %v", err)
		return summary, nil
	}

	var records []model.ChargeClusterRecord
	for i, info := range infos {
		if ctx.Err() != nil {
			log.Printf("run: sample %s: cancelled after %d scans", s.ID, i)
			break
		}
		spectrum, err := s.Reader.ScanData(info.VendorScanNumber, true)
		if err != nil {
			log.Printf("run: sample %s scan %d: read failed: %v", s.ID, info.VendorScanNumber, err)
			continue
		}
		scan := model.Scan{
			ScanIndex: i, VendorScanNumber: info.VendorScanNumber,
			RetentionTime: info.RetentionTime, MSLevel: info.ScanLevel, Spectrum: spectrum,
		}
		recs := scanproc.Process(scan, full, r.Params, r.Imm, r.Models)
		summary.ScansProcessed++
		summary.CandidatesConsidered += len(spectrum)
		for _, rec := range recs {
			if err := sk.PutChargeCluster(rec); err != nil {
				summary.FailureReason = (&TransientError{SampleID: s.ID, Err: err}).Error()
				sk.EndSample()
				return summary, nil
			}
		}
		summary.ClustersEmitted += len(recs)
		records = append(records, recs...)
	}

	feats := feature.Collate(records, r.Imm.EpsilonDBSCAN, r.Params.MinScanCount)
	for _, f := range feats {
		if err := sk.PutFeature(f); err != nil {
			summary.FailureReason = (&TransientError{SampleID: s.ID, Err: err}).Error()
			sk.EndSample()
			return summary, nil
		}
	}
	summary.Features = len(feats)

	if err := sk.EndSample(); err != nil {
		summary.FailureReason = (&TransientError{SampleID: s.ID, Err: err}).Error()
		return summary, nil
	}

	summary.OK = true
	sort.SliceStable(feats, func(i, j int) bool { return feats[i].ApexRT < feats[j].ApexRT })
	return summary, feats
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// NewTable is a convenience constructor for the default accurate
// averagine table, used by cmd/msfeature when no CSV resource is given.
func NewTable() *averagine.Table {
	return averagine.New(averagine.AccurateParams)
}
