package calibrate

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is calibrate's YAML configuration file shape: which PEL param
// maps to which CSV data column, which distribution family to fit it
// against, and how many bootstrap resamples to use for confidence
// intervals. Grounded on the original csv_connector.py's
// `yaml.safe_load`-based config loading (a `pel_param -> data_column`
// mapping plus a distribution family per entry).
type FileConfig struct {
	Bootstrap int                `yaml:"bootstrap"`
	Params    []ParamConfigEntry `yaml:"params"`
}

// ParamConfigEntry is one param's calibration request as written in the
// YAML config file.
type ParamConfigEntry struct {
	PELParam           string `yaml:"pel_param"`
	DataColumn         string `yaml:"data_column"`
	DistributionFamily string `yaml:"distribution_family"`
	Unit               string `yaml:"unit"`
}

// LoadConfig parses a calibration configuration file from r.
func LoadConfig(r io.Reader) (*FileConfig, error) {
	var cfg FileConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode calibration config: %w", err)
	}
	return &cfg, nil
}

// Requests converts the file config into the ParamCalibration slice
// Calibrate expects.
func (c *FileConfig) Requests() ([]ParamCalibration, error) {
	reqs := make([]ParamCalibration, 0, len(c.Params))
	for _, p := range c.Params {
		family, err := parseFamily(p.DistributionFamily)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.PELParam, err)
		}
		reqs = append(reqs, ParamCalibration{
			Param:  p.PELParam,
			Column: p.DataColumn,
			Family: family,
			Unit:   p.Unit,
		})
	}
	return reqs, nil
}

func parseFamily(s string) (Family, error) {
	switch strings.ToLower(s) {
	case "normal":
		return FamilyNormal, nil
	case "lognormal":
		return FamilyLogNormal, nil
	case "beta":
		return FamilyBeta, nil
	default:
		return "", fmt.Errorf("unknown distribution_family %q", s)
	}
}
