// Package provenance implements PEL's assumption-completeness gate: a pass
// over a parsed ast.Model that rejects programs whose parameters lack a
// traceable origin, method, and confidence (spec.md §3, §4.4).
//
// Grounded on go-calcmark's validator package (validator.Validator walking
// an AST once per document and collecting Diagnostics), generalized from
// its undefined-identifier/division-by-zero checks to a single
// completeness computation over each Param's provenance block.
package provenance

import (
	"fmt"

	"github.com/pel-lang/pel/ast"
)

// Record is the decoded form of a Param's `{ source: ..., method: ...,
// confidence: ... }` block (spec.md §3).
type Record struct {
	Source               string
	Method               string
	Confidence           float64
	HasConfidence        bool
	CorrelatedWith        []string
	CalibrationTimestamp  string
	AIC                   float64
	BIC                   float64
	HasAIC, HasBIC        bool
}

// RequiredFields is the minimal field set whose presence counts toward
// completeness; CorrelatedWith/CalibrationTimestamp/AIC/BIC are optional
// per spec.md §3 and never block acceptance.
var RequiredFields = []string{"source", "method", "confidence"}

// IncompleteError is returned when a model's overall provenance
// completeness falls below the configured threshold (E0400).
type IncompleteError struct {
	Completeness float64
	Threshold    float64
	Missing      []string // "<param>.<field>" entries that are absent or empty
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("provenance incomplete: completeness %.2f below threshold %.2f [E0400] (missing: %v)",
		e.Completeness, e.Threshold, e.Missing)
}

// ConfidenceRangeError is a distinct, fatal failure mode from
// IncompleteError: a Param carries a `confidence` value outside [0, 1]
// (spec.md §4.4, "Confidence outside [0,1] is a fatal error with the
// offending value"). It is checked and returned before completeness is
// even computed, since an invalid confidence is not "missing" data — it is
// actively wrong data.
type ConfidenceRangeError struct {
	Param string
	Value float64
}

func (e *ConfidenceRangeError) Error() string {
	return fmt.Sprintf("param %s: confidence %v is outside the valid range [0, 1] [E0401]", e.Param, e.Value)
}

// DefaultThreshold is PEL's default provenance pass-threshold (spec.md §9,
// Open Question: "the exact default pass-threshold... 0.90 here").
const DefaultThreshold = 0.90

// Checker computes provenance completeness over a model's Param
// declarations and enforces DefaultThreshold (or a caller-supplied one).
type Checker struct {
	Threshold float64
}

// NewChecker creates a Checker with DefaultThreshold.
func NewChecker() *Checker { return &Checker{Threshold: DefaultThreshold} }

// Decode extracts a Record from a ParamDecl's provenance fields. Expression
// values are expected to already be literals (string/number), since
// provenance fields are metadata, not computed expressions.
func Decode(fields []ast.ProvenanceField) Record {
	var r Record
	for _, f := range fields {
		switch f.Key {
		case "source":
			r.Source = literalString(f.Value)
		case "method":
			r.Method = literalString(f.Value)
		case "confidence":
			r.Confidence, r.HasConfidence = literalNumber(f.Value), true
		case "calibration_timestamp":
			r.CalibrationTimestamp = literalString(f.Value)
		case "aic":
			r.AIC, r.HasAIC = literalNumber(f.Value), true
		case "bic":
			r.BIC, r.HasBIC = literalNumber(f.Value), true
		case "correlated_with":
			if arr, ok := f.Value.(*ast.ArrayExpr); ok {
				for _, e := range arr.Elements {
					r.CorrelatedWith = append(r.CorrelatedWith, literalString(e))
				}
			}
		}
	}
	return r
}

func literalString(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.StringLiteral:
		return n.Value
	case *ast.Identifier:
		return n.Name
	default:
		return ""
	}
}

func literalNumber(e ast.Expr) float64 {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		var f float64
		fmt.Sscanf(n.Value, "%g", &f)
		return f
	case *ast.UnaryOp:
		if n.Op == "-" {
			return -literalNumber(n.Operand)
		}
		return literalNumber(n.Operand)
	default:
		return 0
	}
}

// complete reports whether a single Record satisfies RequiredFields.
func (r Record) complete() (bool, []string) {
	var missing []string
	if r.Source == "" {
		missing = append(missing, "source")
	}
	if r.Method == "" {
		missing = append(missing, "method")
	}
	if !r.HasConfidence || r.Confidence <= 0 {
		missing = append(missing, "confidence")
	}
	return len(missing) == 0, missing
}

// Check walks model's Param declarations, computes the fraction with
// complete provenance, and returns an *IncompleteError if it falls below
// the Checker's Threshold. A model with zero Params is vacuously complete.
// Before completeness is even computed, any Param whose confidence lies
// outside [0, 1] fails fatally with *ConfidenceRangeError — an out-of-range
// value is wrong data, not missing data, so it is never folded into the
// completeness ratio.
func (c *Checker) Check(model *ast.Model) error {
	var params []*ast.ParamDecl
	for _, stmt := range model.Body {
		if p, ok := stmt.(*ast.ParamDecl); ok {
			params = append(params, p)
		}
	}
	if len(params) == 0 {
		return nil
	}

	for _, p := range params {
		rec := Decode(p.Provenance)
		if rec.HasConfidence && (rec.Confidence < 0 || rec.Confidence > 1) {
			return &ConfidenceRangeError{Param: p.Name, Value: rec.Confidence}
		}
	}

	var completeCount int
	var missing []string
	for _, p := range params {
		rec := Decode(p.Provenance)
		ok, miss := rec.complete()
		if ok {
			completeCount++
		}
		for _, m := range miss {
			missing = append(missing, p.Name+"."+m)
		}
	}

	completeness := float64(completeCount) / float64(len(params))
	if completeness < c.Threshold {
		return &IncompleteError{Completeness: completeness, Threshold: c.Threshold, Missing: missing}
	}
	return nil
}
