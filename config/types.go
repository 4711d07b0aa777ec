// Package config provides PEL's runtime defaults: the provenance pass
// threshold, the sensitivity perturbation percentage, and the calibrator's
// bootstrap/CUSUM tuning. Configuration is loaded from an embedded TOML
// baseline, overridable by a user config file or PEL_* environment
// variables.
package config

// Config is the root configuration structure.
type Config struct {
	Provenance  ProvenanceConfig  `mapstructure:"provenance"`
	Sensitivity SensitivityConfig `mapstructure:"sensitivity"`
	Calibrate   CalibrateConfig   `mapstructure:"calibrate"`
	Drift       DriftConfig       `mapstructure:"drift"`
}

// ProvenanceConfig holds the provenance.Checker's pass-threshold (spec.md
// §9, Open Question: "the exact default pass-threshold").
type ProvenanceConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// SensitivityConfig holds the runtime's default sensitivity perturbation
// percentage (spec.md §4.6, "perturb by ±p%, default 10%").
type SensitivityConfig struct {
	PerturbationPercent float64 `mapstructure:"perturbation_percent"`
}

// CalibrateConfig holds the calibrator's default bootstrap replication
// count and recognized distribution families.
type CalibrateConfig struct {
	Bootstrap     int      `mapstructure:"bootstrap"`
	Distributions []string `mapstructure:"distributions"`
}

// DriftConfig holds the calibrator's CUSUM drift-detection defaults
// (spec.md §4.7), matching calibrate.CUSUMTest/DetectDrift's parameter
// names.
type DriftConfig struct {
	CUSUMThreshold float64 `mapstructure:"cusum_threshold"`
	CUSUMSlack     float64 `mapstructure:"cusum_slack"`
	MAPEThreshold  float64 `mapstructure:"mape_threshold"`
}
