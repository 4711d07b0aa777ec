package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Reload()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provenance.Threshold != 0.90 {
		t.Errorf("provenance.threshold = %v, want 0.90", cfg.Provenance.Threshold)
	}
	if cfg.Sensitivity.PerturbationPercent != 0.10 {
		t.Errorf("sensitivity.perturbation_percent = %v, want 0.10", cfg.Sensitivity.PerturbationPercent)
	}
	if cfg.Calibrate.Bootstrap != 1000 {
		t.Errorf("calibrate.bootstrap = %v, want 1000", cfg.Calibrate.Bootstrap)
	}
	if len(cfg.Calibrate.Distributions) != 3 {
		t.Errorf("calibrate.distributions = %v, want 3 entries", cfg.Calibrate.Distributions)
	}
	if cfg.Drift.CUSUMThreshold != 5.0 || cfg.Drift.CUSUMSlack != 0.5 {
		t.Errorf("drift defaults = %+v, want {5.0 0.5 ...}", cfg.Drift)
	}
}

func TestLoadUserConfigOverridesDefaults(t *testing.T) {
	cwd := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	userConfig := "[provenance]\nthreshold = 0.75\n"
	if err := os.WriteFile(filepath.Join(cwd, ".pel.toml"), []byte(userConfig), 0644); err != nil {
		t.Fatalf("write .pel.toml: %v", err)
	}

	cfg, err := Reload()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provenance.Threshold != 0.75 {
		t.Errorf("provenance.threshold = %v, want 0.75 from .pel.toml override", cfg.Provenance.Threshold)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PEL_PROVENANCE_THRESHOLD", "0.5")
	cfg, err := Reload()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provenance.Threshold != 0.5 {
		t.Errorf("provenance.threshold = %v, want 0.5 from PEL_PROVENANCE_THRESHOLD", cfg.Provenance.Threshold)
	}
}
