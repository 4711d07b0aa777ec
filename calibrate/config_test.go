package calibrate

import (
	"strings"
	"testing"
)

func TestLoadConfigParsesParamEntries(t *testing.T) {
	yamlSrc := `
bootstrap: 500
params:
  - pel_param: arpu
    data_column: arpu_usd
    distribution_family: normal
    unit: USD
  - pel_param: churn
    data_column: churn_rate
    distribution_family: Beta
    unit: Fraction
`
	cfg, err := LoadConfig(strings.NewReader(yamlSrc))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bootstrap != 500 {
		t.Errorf("bootstrap = %d, want 500", cfg.Bootstrap)
	}
	if len(cfg.Params) != 2 {
		t.Fatalf("len(Params) = %d, want 2", len(cfg.Params))
	}

	reqs, err := cfg.Requests()
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	if reqs[0].Param != "arpu" || reqs[0].Family != FamilyNormal {
		t.Errorf("unexpected first request: %+v", reqs[0])
	}
	if reqs[1].Param != "churn" || reqs[1].Family != FamilyBeta {
		t.Errorf("unexpected second request: %+v", reqs[1])
	}
}

func TestLoadConfigRejectsUnknownFamily(t *testing.T) {
	yamlSrc := `
params:
  - pel_param: x
    data_column: x
    distribution_family: weibull
`
	cfg, err := LoadConfig(strings.NewReader(yamlSrc))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := cfg.Requests(); err == nil {
		t.Fatal("expected an error for an unknown distribution_family")
	}
}
