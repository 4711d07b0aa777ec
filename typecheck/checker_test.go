package typecheck

import (
	"testing"

	"github.com/pel-lang/pel/parser"
)

func check(t *testing.T, src string) []Diagnostic {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return NewChecker().Check(model)
}

func TestCheckAcceptsConsistentModel(t *testing.T) {
	src := `model SaaS {
  param price: Rate per Customer = $49 per Customer { source: "a", method: "b", confidence: 0.9 }
  param customers: Count<Customer> = 100 Customer { source: "a", method: "b", confidence: 0.9 }
  var revenue: Currency<USD> = price * customers
}`
	diags := check(t, src)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestCheckRejectsDimensionalMismatchOnAdd(t *testing.T) {
	src := `model M {
  param price: Currency<USD> = $49 { source: "a", method: "b", confidence: 0.9 }
  param customers: Count<Customer> = 100 Customer { source: "a", method: "b", confidence: 0.9 }
  var total: Currency<USD> = price + customers
}`
	diags := check(t, src)
	if len(diags) == 0 {
		t.Fatal("expected a dimensional-mismatch diagnostic")
	}
}

func TestCheckRejectsUndefinedVariable(t *testing.T) {
	src := `var x: Fraction = y + 1`
	diags := check(t, src)
	if len(diags) == 0 {
		t.Fatal("expected an undefined-variable diagnostic")
	}
	if diags[0].Code != CodeUndefinedVariable && diags[0].Code != CodeTypeMismatch {
		t.Errorf("unexpected code %s", diags[0].Code)
	}
}

func TestCheckConstraintPredicateMustBeBoolean(t *testing.T) {
	src := `model M {
  param x: Fraction = 0.5 { source: "a", method: "b", confidence: 0.9 }
  constraint notBool: x { severity: warning }
}`
	diags := check(t, src)
	if len(diags) == 0 {
		t.Fatal("expected a type-mismatch diagnostic for non-Boolean constraint predicate")
	}
}

func TestCheckRateTimesCountProducesCurrency(t *testing.T) {
	src := `model M {
  param arpu: Rate per Customer = $10 per Customer { source: "a", method: "b", confidence: 0.9 }
  param customers: Count<Customer> = 100 Customer { source: "a", method: "b", confidence: 0.9 }
  var revenue: Currency<USD> = customers * arpu
}`
	diags := check(t, src)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}
