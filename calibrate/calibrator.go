// Package calibrate's calibrator.go orchestrates the full calibration
// pipeline (spec.md §4.7): fit a distribution to observed data for one or
// more Params, then rewrite a compiled ir.IR so each calibrated Param's
// value_expr becomes a Distribution expression and its provenance records
// {source: "calibrated", method: "mle", confidence, calibration_timestamp,
// aic, bic} — grounded on the Python reference's calibrator.py, which
// performs the analogous rewrite over its own in-memory model
// representation.
package calibrate

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/pel-lang/pel/ir"
)

// Family is a distribution family calibration can fit, matching the
// DistKind strings PEL's parser/IR use for `~ Normal(...)`-style
// expressions.
type Family string

const (
	FamilyNormal    Family = "Normal"
	FamilyLogNormal Family = "LogNormal"
	FamilyBeta      Family = "Beta"
)

// ParamCalibration is one Param's calibration request: which column of a
// Table to fit against, which family to try, and a unit name.
type ParamCalibration struct {
	Param  string
	Column string
	Family Family
	Unit   string // e.g. "USD", "Customer", "Fraction"; not read by Calibrate or ApplyToIR, which stamps the IR param's own Unit text instead
}

// CalibratedParam is one entry of a Report: the fit plus the identity of
// the Param it was fit for.
type CalibratedParam struct {
	Param string
	Fit   FitResult
}

// Report is the outcome of Calibrate: the fits performed and an optional
// drift comparison against a holdout slice of fresh observations.
// ReportID identifies this calibration run (stamped via google/uuid), so a
// results store can tell two calibrations of the same model apart.
type Report struct {
	ReportID string
	Params   []CalibratedParam
	Drift    map[string]DriftReport
}

// Fit selects and runs the MLE routine for family over a table's column.
func Fit(t *Table, column string, family Family) (FitResult, error) {
	data := t.Columns[column]
	if len(data) == 0 {
		return FitResult{}, fmt.Errorf("column %q has no data", column)
	}
	switch family {
	case FamilyNormal:
		return FitNormal(data), nil
	case FamilyLogNormal:
		return FitLogNormal(data)
	case FamilyBeta:
		return FitBeta(data)
	default:
		return FitResult{}, fmt.Errorf("unknown distribution family %q", family)
	}
}

// Calibrate fits every requested ParamCalibration against t and returns the
// combined Report, its Params sorted by name.
func Calibrate(t *Table, requests []ParamCalibration) (*Report, error) {
	report := &Report{ReportID: uuid.New().String()}
	for _, req := range requests {
		fit, err := Fit(t, req.Column, req.Family)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", req.Param, err)
		}
		report.Params = append(report.Params, CalibratedParam{Param: req.Param, Fit: fit})
	}
	sort.Slice(report.Params, func(i, j int) bool { return report.Params[i].Param < report.Params[j].Param })
	return report, nil
}

// CheckDrift adds a DriftReport to report for paramName, comparing actual
// fresh observations against predicted values derived from the calibrated
// distribution's mean held constant (the simplest meaningful "prediction"
// for a parameter that calibration treats as stationary).
func (r *Report) CheckDrift(paramName string, actual []float64) error {
	var mean float64
	found := false
	for _, p := range r.Params {
		if p.Param != paramName {
			continue
		}
		found = true
		switch p.Fit.Distribution {
		case "normal":
			mean = p.Fit.Parameters["mean"]
		case "lognormal":
			mu, sigma := p.Fit.Parameters["mu"], p.Fit.Parameters["sigma"]
			mean = math.Exp(mu + sigma*sigma/2)
		case "beta":
			a, b := p.Fit.Parameters["alpha"], p.Fit.Parameters["beta"]
			mean = a / (a + b)
		}
	}
	if !found {
		return fmt.Errorf("no calibrated fit found for param %q", paramName)
	}
	predicted := make([]float64, len(actual))
	for i := range predicted {
		predicted[i] = mean
	}
	if r.Drift == nil {
		r.Drift = map[string]DriftReport{}
	}
	r.Drift[paramName] = DetectDrift(actual, predicted, 0, 0, 0)
	return nil
}

// ApplyToIR rewrites every calibrated ParamIR in doc in place: value_expr
// becomes a `distribution` ExprIR naming the fitted family and its
// parameters as number literals, and provenance is replaced with the
// calibrated-provenance shape (spec.md §4.7/§6). timestamp is an
// RFC3339 string supplied by the caller: this package never calls
// time.Now, so the calling command is the only place that stamps
// wall-clock time, keeping this package pure and testable.
func (r *Report) ApplyToIR(doc *ir.IR, timestamp string) error {
	byName := make(map[string]CalibratedParam, len(r.Params))
	for _, p := range r.Params {
		byName[p.Param] = p
	}
	for i := range doc.Model.Params {
		p := &doc.Model.Params[i]
		cal, ok := byName[p.Name]
		if !ok {
			continue
		}
		p.ValueExpr = distributionExprFromFit(cal.Fit, p.Unit)
		confidence := 1 - cal.Fit.KSPValue
		aic, bic := cal.Fit.AIC, cal.Fit.BIC
		p.Provenance = &ir.ProvenanceIR{
			Source:               "calibrated",
			Method:               "mle",
			Confidence:           confidence,
			CalibrationTimestamp: timestamp,
			AIC:                  &aic,
			BIC:                  &bic,
		}
	}
	return nil
}

// distributionExprFromFit builds the `distribution` ExprIR that ir.Emit
// would produce for a `~ Family(param: value unit, ...)` source expression,
// using the same parameter names the parser and runtime use (mean/stddev
// for Normal and LogNormal, a/b for Beta). Quantity literals carry the
// unit text passed in (ApplyToIR passes the ParamIR's own Unit), not a
// literal suffix.
func distributionExprFromFit(fit FitResult, unit string) ir.ExprIR {
	params := map[string]ir.ExprIR{}
	switch fit.Distribution {
	case "normal":
		params["mean"] = quantityExpr(fit.Parameters["mean"], unit)
		params["stddev"] = quantityExpr(fit.Parameters["std"], unit)
	case "lognormal":
		params["mean"] = numberExpr(fit.Parameters["mu"])
		params["stddev"] = numberExpr(fit.Parameters["sigma"])
	case "beta":
		params["a"] = numberExpr(fit.Parameters["alpha"])
		params["b"] = numberExpr(fit.Parameters["beta"])
	}
	distKind := map[string]string{"normal": "Normal", "lognormal": "LogNormal", "beta": "Beta"}[fit.Distribution]
	return ir.ExprIR{Kind: "distribution", DistKind: distKind, Params: params}
}

func quantityExpr(v float64, unit string) ir.ExprIR {
	if unit == "" || unit == "Fraction" {
		return numberExpr(v)
	}
	return ir.ExprIR{Kind: "quantity", Value: formatFloat(v), Unit: unit}
}

func numberExpr(v float64) ir.ExprIR {
	return ir.ExprIR{Kind: "number", Value: formatFloat(v)}
}

func formatFloat(v float64) string {
	return trimTrailingZeros(fmt.Sprintf("%.10f", v))
}

func trimTrailingZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
