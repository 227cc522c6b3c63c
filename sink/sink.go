// Package sink implements the tabular sink contract (spec.md §6 Outbound):
// a per-sample store of ChargeClusters, Features, MS2-to-feature matches,
// and the FeatureFinderSettings table, plus a modernc.org/kv-backed
// implementation keyed via internal/store.
package sink

import (
	"fmt"
	"log"
	"path/filepath"

	"modernc.org/kv"

	"github.com/kortschak/msfeature/config"
	"github.com/kortschak/msfeature/internal/store"
	"github.com/kortschak/msfeature/model"
)

// Sink is the tabular output contract a run writes its results to. All
// Put* calls for one sample happen inside the single per-sample
// transaction opened by BeginSample/EndSample (spec.md §4.H: "all
// emissions happen within a single per-sample transaction").
type Sink interface {
	BeginSample(sampleID string) error
	PutChargeCluster(rec model.ChargeClusterRecord) error
	PutFeature(f model.Feature) error
	PutMSMSMatch(featureApexRT, featureMass float64, peptide string) error
	PutSettings(p config.Params, imm config.Immutable) error
	EndSample() error
	Close() error
}

// MSMSMatch is one msms_to_feature_matches row (spec.md §6 Outbound).
type MSMSMatch struct {
	FeatureApexRT float64
	FeatureMass   float64
	Peptide       string
}

// KVSink is a modernc.org/kv-backed Sink, one database per sample
// directory, with the same batched-transaction-commit discipline as
// kortschak/ins's cmd/ins/fragment.go merge function: writes are batched
// in groups of batchSize and committed, rather than one commit per Put.
type KVSink struct {
	dir       string
	db        *kv.DB
	sampleID  string
	nInTx     int
	batchSize int
}

// BatchSize is the default number of Put calls per committed transaction.
const BatchSize = 100

// OpenKVSink returns a KVSink that keeps one <sampleID>.db database per
// sample under dir. It opens no database itself; BeginSample creates each
// sample's database.
func OpenKVSink(dir string) (*KVSink, error) {
	return &KVSink{dir: dir, batchSize: BatchSize}, nil
}

func (s *KVSink) path(sampleID string) string {
	return filepath.Join(s.dir, sampleID+".db")
}

// BeginSample opens (or creates) this sample's database and starts the
// first batched transaction.
func (s *KVSink) BeginSample(sampleID string) error {
	opts := &kv.Options{Compare: store.ByScanThenIntensity}
	db, err := kv.Create(s.path(sampleID), opts)
	if err != nil {
		return fmt.Errorf("sink: create %s: %w", sampleID, err)
	}
	s.db = db
	s.sampleID = sampleID
	s.nInTx = 0
	log.Printf("sink: begin sample %s", sampleID)
	return s.beginTx()
}

func (s *KVSink) beginTx() error {
	if err := s.db.BeginTransaction(); err != nil {
		return fmt.Errorf("sink: begin tx: %w", err)
	}
	return nil
}

func (s *KVSink) maybeRotate() error {
	s.nInTx++
	if s.nInTx < s.batchSize {
		return nil
	}
	if err := s.db.Commit(); err != nil {
		return fmt.Errorf("sink: commit: %w", err)
	}
	s.nInTx = 0
	return s.beginTx()
}

// PutChargeCluster writes one Charge-Cluster Record, keyed by
// (scan_index, descending intensity), per spec.md §5 emission order.
func (s *KVSink) PutChargeCluster(rec model.ChargeClusterRecord) error {
	key := store.MarshalChargeClusterKey(store.ChargeClusterKey{
		ScanIndex:    int64(rec.ScanIndex),
		NegIntensity: rec.MaxIntensity,
		Charge:       int64(rec.Charge),
		MZFound:      rec.MZFound,
	})
	val := encodeChargeCluster(rec)
	if err := s.db.Set(prefixed("cc", key), val); err != nil {
		return fmt.Errorf("sink: put charge cluster: %w", err)
	}
	return s.maybeRotate()
}

// PutFeature writes one Feature, keyed by apex RT then mass.
func (s *KVSink) PutFeature(f model.Feature) error {
	key := store.MarshalFeatureKey(store.FeatureKey{ApexRT: f.ApexRT, MWMonoisotopic: f.MWMonoisotopic})
	val := encodeFeature(f)
	if err := s.db.Set(prefixed("ft", key), val); err != nil {
		return fmt.Errorf("sink: put feature: %w", err)
	}
	return s.maybeRotate()
}

// PutMSMSMatch writes one msms_to_feature_matches row.
func (s *KVSink) PutMSMSMatch(featureApexRT, featureMass float64, peptide string) error {
	key := store.MarshalFeatureKey(store.FeatureKey{ApexRT: featureApexRT, MWMonoisotopic: featureMass})
	if err := s.db.Set(prefixed("msms", key), []byte(peptide)); err != nil {
		return fmt.Errorf("sink: put msms match: %w", err)
	}
	return s.maybeRotate()
}

// PutSettings writes the FeatureFinderSettings table (spec.md §6
// Outbound), one row per parameter.
func (s *KVSink) PutSettings(p config.Params, imm config.Immutable) error {
	for _, row := range config.AsRows(p, imm) {
		key := append([]byte("settings:"), []byte(row[0])...)
		if err := s.db.Set(key, []byte(row[1])); err != nil {
			return fmt.Errorf("sink: put settings: %w", err)
		}
	}
	return nil
}

// EndSample commits the final in-flight transaction and closes this
// sample's database.
func (s *KVSink) EndSample() error {
	if s.nInTx > 0 {
		log.Printf("sink: commit tx for sample %s (final)", s.sampleID)
		if err := s.db.Commit(); err != nil {
			return fmt.Errorf("sink: final commit: %w", err)
		}
	}
	return s.db.Close()
}

// Close is a no-op for KVSink: each sample owns and closes its own
// database via EndSample.
func (s *KVSink) Close() error { return nil }

func prefixed(prefix string, key []byte) []byte {
	return append([]byte(prefix+":"), key...)
}
