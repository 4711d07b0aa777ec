package provenance

import (
	"testing"

	"github.com/pel-lang/pel/parser"
)

func parseModel(t *testing.T, src string) *parser.Parser {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	return p
}

func TestCheckAcceptsFullyProvenedModel(t *testing.T) {
	p := parseModel(t, `model M {
  param price: Currency<USD> = $49 { source: "pricing sheet", method: "fixed", confidence: 0.95 }
}`)
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := NewChecker().Check(model); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckRejectsMissingProvenance(t *testing.T) {
	p := parseModel(t, `model M {
  param price: Currency<USD> = $49
}`)
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = NewChecker().Check(model)
	if err == nil {
		t.Fatal("expected an IncompleteError")
	}
	if _, ok := err.(*IncompleteError); !ok {
		t.Fatalf("expected *IncompleteError, got %T", err)
	}
}

func TestCheckPartialCompletenessBelowThreshold(t *testing.T) {
	p := parseModel(t, `model M {
  param a: Fraction = 0.5 { source: "s", method: "m", confidence: 0.9 }
  param b: Fraction = 0.5
  param c: Fraction = 0.5
  param d: Fraction = 0.5
  param e: Fraction = 0.5
  param f: Fraction = 0.5
  param g: Fraction = 0.5
  param h: Fraction = 0.5
  param i: Fraction = 0.5
  param j: Fraction = 0.5
}`)
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = NewChecker().Check(model)
	if err == nil {
		t.Fatal("expected an IncompleteError: only 1/10 params have provenance")
	}
	ierr := err.(*IncompleteError)
	if ierr.Completeness != 0.1 {
		t.Errorf("completeness = %v, want 0.1", ierr.Completeness)
	}
}

func TestCheckRejectsConfidenceAboveOne(t *testing.T) {
	p := parseModel(t, `model M {
  param price: Currency<USD> = $49 { source: "pricing sheet", method: "fixed", confidence: 1.5 }
}`)
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = NewChecker().Check(model)
	if err == nil {
		t.Fatal("expected a *ConfidenceRangeError for confidence 1.5")
	}
	cerr, ok := err.(*ConfidenceRangeError)
	if !ok {
		t.Fatalf("expected *ConfidenceRangeError, got %T: %v", err, err)
	}
	if cerr.Param != "price" || cerr.Value != 1.5 {
		t.Errorf("unexpected error detail: %+v", cerr)
	}
}

func TestCheckRejectsNegativeConfidence(t *testing.T) {
	p := parseModel(t, `model M {
  param price: Currency<USD> = $49 { source: "pricing sheet", method: "fixed", confidence: -0.2 }
}`)
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = NewChecker().Check(model)
	if _, ok := err.(*ConfidenceRangeError); !ok {
		t.Fatalf("expected *ConfidenceRangeError, got %T: %v", err, err)
	}
}
