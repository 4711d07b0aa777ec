package ir

import (
	"testing"

	"github.com/pel-lang/pel/parser"
)

func TestEmitIsByteStableAcrossRepeatedCompiles(t *testing.T) {
	src := `model M {
  param price: Currency<USD> = $49 { source: "a", method: "b", confidence: 0.9 }
  var revenue: Currency<USD> = price
}`
	p1, err := parser.New(src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	model1, err := p1.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc1, err := Emit(model1)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	b1, err := MarshalCanonical(doc1)
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}

	p2, _ := parser.New(src)
	model2, _ := p2.Parse()
	doc2, err := Emit(model2)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	b2, err := MarshalCanonical(doc2)
	if err != nil {
		t.Fatalf("MarshalCanonical: %v", err)
	}

	if string(b1) != string(b2) {
		t.Fatalf("IR bytes differ across compiles:\n%s\n---\n%s", b1, b2)
	}
}

func TestEmitRoundTripsProvenance(t *testing.T) {
	src := `param price: Currency<USD> = $49 { source: "sheet", method: "fixed", confidence: 0.9 }`
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc, err := Emit(model)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(doc.Model.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(doc.Model.Params))
	}
	prov := doc.Model.Params[0].Provenance
	if prov == nil || prov.Source != "sheet" || prov.Method != "fixed" {
		t.Fatalf("provenance not round-tripped: %+v", prov)
	}
}
