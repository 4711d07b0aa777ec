package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

//go:embed defaults.toml
var defaultsToml string

var (
	cfg     *Config
	once    sync.Once
	loadErr error
)

// Load initializes configuration from the embedded defaults, a user config
// file, and PEL_* environment variables. Safe to call multiple times; only
// loads once. Grounded on go-calcmark's cmd/calcmark/config.Load
// (embedded-defaults + sync.Once + viper.New overlay pattern), generalized
// from CalcMark's TUI theme/formatter settings to PEL's provenance/
// sensitivity/calibrate/drift defaults.
func Load() (*Config, error) {
	once.Do(func() {
		cfg, loadErr = load()
	})
	return cfg, loadErr
}

// Get returns the loaded configuration. Panics if Load hasn't been called
// or failed.
func Get() *Config {
	if cfg == nil {
		panic("config.Load() must be called before config.Get()")
	}
	return cfg
}

func load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// 1. Load embedded defaults (invalid embedded TOML is a build-time bug).
	if err := v.ReadConfig(strings.NewReader(defaultsToml)); err != nil {
		panic("invalid embedded defaults.toml: " + err.Error())
	}

	// 2. Merge a user config file, if present (order matters: later wins).
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		xdgPath := filepath.Join(home, ".config", "pel", "config.toml")
		if _, statErr := os.Stat(xdgPath); statErr == nil {
			v.SetConfigFile(xdgPath)
			_ = v.MergeInConfig() // malformed user config falls back to defaults
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		localPath := filepath.Join(cwd, ".pel.toml")
		if _, statErr := os.Stat(localPath); statErr == nil {
			v.SetConfigFile(localPath)
			_ = v.MergeInConfig()
		}
	}

	// An explicit --config path (threaded through by cmd/pel via
	// PEL_CONFIG_FILE) takes precedence over both of the above.
	if explicit := os.Getenv("PEL_CONFIG_FILE"); explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("load %s: %w", explicit, err)
		}
	}

	// 3. Environment overrides, e.g. PEL_PROVENANCE_THRESHOLD=0.95.
	v.SetEnvPrefix("PEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"provenance.threshold",
		"sensitivity.perturbation_percent",
		"calibrate.bootstrap",
		"drift.cusum_threshold",
		"drift.cusum_slack",
		"drift.mape_threshold",
	} {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Reload forces a fresh config load, for testing only.
func Reload() (*Config, error) {
	once = sync.Once{}
	cfg = nil
	loadErr = nil
	return Load()
}
