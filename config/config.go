// Package config holds the settable and immutable parameters of the
// feature finder (spec.md §6) and validates them before a run starts.
package config

import "fmt"

// Params are the user-settable parameters, with their spec.md defaults.
type Params struct {
	CorrelationCutoff    float64 // averagine_correlation_cutoff
	MinFeatureMass       float64
	MaxFeatureMass       float64
	MinPeakWidthMinutes  float64
	MinScanCount         int
	MinIsotopeCount      int
	NoiseFactorMultiplier float64
	PPM                  float64
	EnableMS2Matching    bool
	// EnableDisambiguation selects the per-candidate path in spec.md
	// §4.H step (c): when true, the Disambigutron (4.E) cleans the
	// segment before the monoisotope/decimator steps and a precise
	// (2-bucket) subtraction radius is used.
	EnableDisambiguation bool
}

// Default returns the settable parameters at their spec.md §6 defaults.
func Default() Params {
	return Params{
		CorrelationCutoff:     0.75,
		MinFeatureMass:        500,
		MaxFeatureMass:        8000,
		MinPeakWidthMinutes:   0.0,
		MinScanCount:          3,
		MinIsotopeCount:       3,
		NoiseFactorMultiplier: 3,
		PPM:                   15,
		EnableMS2Matching:     false,
		EnableDisambiguation:  true,
	}
}

// ValidationError reports a Config-kind error (spec.md §7): a settable
// parameter out of range, rejected before a run begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks that p's fields hold sane values, returning the first
// ValidationError found, or nil.
func (p Params) Validate() error {
	switch {
	case p.CorrelationCutoff < -1 || p.CorrelationCutoff > 1:
		return &ValidationError{"CorrelationCutoff", "must be in [-1,1]"}
	case p.MinFeatureMass < 0:
		return &ValidationError{"MinFeatureMass", "must be >= 0"}
	case p.MaxFeatureMass <= p.MinFeatureMass:
		return &ValidationError{"MaxFeatureMass", "must be > MinFeatureMass"}
	case p.MinPeakWidthMinutes < 0:
		return &ValidationError{"MinPeakWidthMinutes", "must be >= 0"}
	case p.MinScanCount < 1:
		return &ValidationError{"MinScanCount", "must be >= 1"}
	case p.MinIsotopeCount < 1:
		return &ValidationError{"MinIsotopeCount", "must be >= 1"}
	case p.NoiseFactorMultiplier < 0:
		return &ValidationError{"NoiseFactorMultiplier", "must be >= 0"}
	case p.PPM <= 0:
		return &ValidationError{"PPM", "must be > 0"}
	}
	return nil
}

// Immutable holds the fixed parameters of the algorithm, recorded in the
// run summary and FeatureFinderSettings table but never user-facing.
type Immutable struct {
	VectorGranularity        int
	ErrorRangeDa             float64
	AugmentFactor            float64
	MZMax                    float64
	ApexChargeClusteringDa   float64
	MaxChargeState           int
	CombFilterTeethChargeMax int
	EpsilonDBSCAN            float64
	MaxIonCount              int
	MaxTimeToleranceCoarse   float64
	MaxTimeToleranceWarped   float64
	IsotopeCutOffClusterPct  float64
	DBSCANMultiple           float64
}

// DefaultImmutable returns the fixed parameters at their spec.md §6 values.
func DefaultImmutable() Immutable {
	return Immutable{
		VectorGranularity:        500,
		ErrorRangeDa:             0.02,
		AugmentFactor:            1.3,
		MZMax:                    3100,
		ApexChargeClusteringDa:   4,
		MaxChargeState:           10,
		CombFilterTeethChargeMax: 4,
		EpsilonDBSCAN:            5.01,
		MaxIonCount:              1000,
		MaxTimeToleranceCoarse:   2,
		MaxTimeToleranceWarped:   0.08,
		IsotopeCutOffClusterPct:  0.05,
		DBSCANMultiple:           50,
	}
}

// AsRows renders p and imm as (parameter, value) string pairs for the
// FeatureFinderSettings table (spec.md §6 Outbound).
func AsRows(p Params, imm Immutable) [][2]string {
	f := func(v float64) string { return fmt.Sprintf("%g", v) }
	i := func(v int) string { return fmt.Sprintf("%d", v) }
	b := func(v bool) string { return fmt.Sprintf("%t", v) }
	return [][2]string{
		{"averagine_correlation_cutoff", f(p.CorrelationCutoff)},
		{"min_feature_mass", f(p.MinFeatureMass)},
		{"max_feature_mass", f(p.MaxFeatureMass)},
		{"min_peak_width_minutes", f(p.MinPeakWidthMinutes)},
		{"min_scan_count", i(p.MinScanCount)},
		{"min_isotope_count", i(p.MinIsotopeCount)},
		{"noise_factor_multiplier", f(p.NoiseFactorMultiplier)},
		{"ppm", f(p.PPM)},
		{"enable_ms2_matching", b(p.EnableMS2Matching)},
		{"vector_granularity", i(imm.VectorGranularity)},
		{"error_range", f(imm.ErrorRangeDa)},
		{"augment_factor", f(imm.AugmentFactor)},
		{"mz_max", f(imm.MZMax)},
		{"apex_charge_clustering", f(imm.ApexChargeClusteringDa)},
		{"max_charge_state", i(imm.MaxChargeState)},
		{"comb_filter_teeth_charge_max", i(imm.CombFilterTeethChargeMax)},
		{"epsilon_dbscan", f(imm.EpsilonDBSCAN)},
		{"max_ion_count", i(imm.MaxIonCount)},
		{"max_time_tolerance_coarse", f(imm.MaxTimeToleranceCoarse)},
		{"max_time_tolerance_warped", f(imm.MaxTimeToleranceWarped)},
		{"isotope_cut_off_cluster_percent", f(imm.IsotopeCutOffClusterPct)},
		{"dbscan_multiple", f(imm.DBSCANMultiple)},
	}
}
