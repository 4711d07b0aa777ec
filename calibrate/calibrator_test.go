package calibrate

import (
	"strings"
	"testing"

	"github.com/pel-lang/pel/ir"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	csv := "arpu\n47.5\n48.2\n49.0\n46.8\n50.1\n47.9\n48.5\n49.3\n"
	table, err := LoadCSV(strings.NewReader(csv), map[string]string{"arpu": "arpu"})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	return table
}

func TestCalibrateFitsRequestedParams(t *testing.T) {
	table := sampleTable(t)
	report, err := Calibrate(table, []ParamCalibration{
		{Param: "arpu", Column: "arpu", Family: FamilyNormal, Unit: "USD"},
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if len(report.Params) != 1 {
		t.Fatalf("len(report.Params) = %d, want 1", len(report.Params))
	}
	if report.Params[0].Fit.Distribution != "normal" {
		t.Errorf("distribution = %q, want normal", report.Params[0].Fit.Distribution)
	}
}

func TestCalibrateRejectsUnknownFamily(t *testing.T) {
	table := sampleTable(t)
	_, err := Calibrate(table, []ParamCalibration{
		{Param: "arpu", Column: "arpu", Family: Family("Weibull")},
	})
	if err == nil {
		t.Fatal("expected an error for an unsupported distribution family")
	}
}

func TestApplyToIRRewritesValueExprAndProvenance(t *testing.T) {
	table := sampleTable(t)
	report, err := Calibrate(table, []ParamCalibration{
		{Param: "arpu", Column: "arpu", Family: FamilyNormal, Unit: "USD"},
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	doc := &ir.IR{
		PelVersion: ir.Version,
		Model: &ir.ModelIR{
			Name: "SaaS",
			Params: []ir.ParamIR{
				{
					Name:      "arpu",
					Unit:      "USD",
					ValueExpr: ir.ExprIR{Kind: "quantity", Value: "49", Unit: "USD"},
					Provenance: &ir.ProvenanceIR{
						Source: "assumption", Method: "expert_judgment", Confidence: 0.6,
					},
				},
				{
					Name:      "headcount",
					Unit:      "Employee",
					ValueExpr: ir.ExprIR{Kind: "quantity", Value: "12", Unit: "Employee"},
				},
			},
		},
	}

	if err := report.ApplyToIR(doc, "2026-07-31T00:00:00Z"); err != nil {
		t.Fatalf("ApplyToIR: %v", err)
	}

	arpu := doc.Model.Params[0]
	if arpu.ValueExpr.Kind != "distribution" {
		t.Fatalf("arpu.ValueExpr.Kind = %q, want distribution", arpu.ValueExpr.Kind)
	}
	if arpu.ValueExpr.DistKind != "Normal" {
		t.Errorf("arpu.ValueExpr.DistKind = %q, want Normal", arpu.ValueExpr.DistKind)
	}
	if _, ok := arpu.ValueExpr.Params["mean"]; !ok {
		t.Error("expected a mean param in the rewritten distribution")
	}
	if arpu.Provenance == nil || arpu.Provenance.Source != "calibrated" {
		t.Fatalf("provenance = %+v, want source=calibrated", arpu.Provenance)
	}
	if arpu.Provenance.Method != "mle" {
		t.Errorf("provenance.Method = %q, want mle", arpu.Provenance.Method)
	}
	if arpu.Provenance.CalibrationTimestamp != "2026-07-31T00:00:00Z" {
		t.Errorf("unexpected calibration timestamp %q", arpu.Provenance.CalibrationTimestamp)
	}
	if arpu.Provenance.AIC == nil || arpu.Provenance.BIC == nil {
		t.Error("expected AIC/BIC to be populated")
	}

	// headcount was never requested for calibration and must be untouched.
	headcount := doc.Model.Params[1]
	if headcount.ValueExpr.Kind != "quantity" {
		t.Errorf("headcount.ValueExpr.Kind = %q, want untouched quantity", headcount.ValueExpr.Kind)
	}
	if headcount.Provenance != nil {
		t.Error("headcount provenance should remain nil, it was not calibrated")
	}
}

func TestCheckDriftRequiresExistingFit(t *testing.T) {
	report := &Report{}
	err := report.CheckDrift("arpu", []float64{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error for a param with no fit")
	}
}

func TestCheckDriftPopulatesReport(t *testing.T) {
	table := sampleTable(t)
	report, err := Calibrate(table, []ParamCalibration{
		{Param: "arpu", Column: "arpu", Family: FamilyNormal, Unit: "USD"},
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if err := report.CheckDrift("arpu", []float64{47, 48, 49, 46}); err != nil {
		t.Fatalf("CheckDrift: %v", err)
	}
	if _, ok := report.Drift["arpu"]; !ok {
		t.Fatal("expected a drift report for arpu")
	}
}
