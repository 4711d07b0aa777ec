package runtime

import (
	"math"
	"testing"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/parser"
	"github.com/pel-lang/pel/typecheck"
)

func mustModel(t *testing.T, src string) *ast.Model {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	model, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diags := typecheck.NewChecker().Check(model); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return model
}

// TestRunDeterministicRecurrence exercises spec.md §8 scenario S4's
// semantics (mrr[0] = 1000 USD; mrr[t] = mrr[t-1] * 1.10, timesteps=3 ->
// [1000, 1100, 1210]), encoded as the single §4.6-grammar assignment
// `var mrr[t] = if t == 0 then seed_mrr else mrr[t-1] * (1 + growth)`
// rather than §8's semicolon-separated base/recurrence shorthand — see
// DESIGN.md's "time-indexed Var grammar" Open Question resolution for why
// this if/then/else form is the grammar's literal encoding of the same
// base-clause-vs-recurrence semantics.
func TestRunDeterministicRecurrence(t *testing.T) {
	src := `model Growth {
  param seed_mrr: Currency<USD> = $1000 { source: "a", method: "b", confidence: 0.9 }
  param growth: Fraction = 0.10 { source: "a", method: "b", confidence: 0.9 }
  var mrr[t]: Currency<USD> = if t == 0 then seed_mrr else mrr[t-1] * (1 + growth)
}`
	model := mustModel(t, src)
	eval, err := NewEvaluator(model)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	result, err := eval.Run(Options{Mode: ModeDeterministic, Timesteps: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := result.Variables["mrr"]
	want := []float64{1000, 1100, 1210}
	if len(got) != len(want) {
		t.Fatalf("mrr = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("mrr[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRunFatalConstraintAbortsReplication(t *testing.T) {
	src := `model Bounded {
  param cap: Currency<USD> = $100 { source: "a", method: "b", confidence: 0.9 }
  var balance[t]: Currency<USD> = if t == 0 then $50 else balance[t-1] + $40
  constraint withinCap: balance[t] <= cap { severity: fatal, message: "balance exceeded cap" }
}`
	model := mustModel(t, src)
	eval, err := NewEvaluator(model)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	result, err := eval.Run(Options{Mode: ModeDeterministic, Timesteps: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != "failed" {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if len(result.Violations) == 0 {
		t.Fatal("expected at least one recorded violation")
	}
	// balance: 50, 90 (ok), 130 (violates, fatal aborts before a 4th entry)
	if len(result.Variables["balance"]) >= 5 {
		t.Fatalf("expected fatal constraint to abort before all 5 timesteps, got %d entries", len(result.Variables["balance"]))
	}
}

func TestRunMonteCarloIsDeterministicAcrossRuns(t *testing.T) {
	src := `model Sample {
  param demand: Count<Customer> ~ Normal(mean: 100 Customer, stddev: 10 Customer) { source: "a", method: "b", confidence: 0.9 }
  var served[t]: Count<Customer> = demand
}`
	model := mustModel(t, src)
	eval, err := NewEvaluator(model)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	opts := Options{Mode: ModeMonteCarlo, Seed: 7, Replications: 20, Timesteps: 1}
	a, err := eval.Run(opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := eval.Run(opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := range a.Replications {
		av := a.Replications[i].Variables["served"][0]
		bv := b.Replications[i].Variables["served"][0]
		if av != bv {
			t.Fatalf("replication %d diverged across runs: %v vs %v", i, av, bv)
		}
	}
}

func TestRunEvaluatesPolicyCall(t *testing.T) {
	src := `model PolicyModel {
  param growth: Fraction = 0.25 { source: "a", method: "b", confidence: 0.9 }
  policy capGrowth(rate) -> Fraction { clamp(rate, 0, 0.2) }
  var capped[t]: Fraction = capGrowth(growth)
}`
	model := mustModel(t, src)
	eval, err := NewEvaluator(model)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	result, err := eval.Run(Options{Mode: ModeDeterministic, Timesteps: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := result.Variables["capped"][0]
	if math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("capped[0] = %v, want 0.2", got)
	}
}

func TestRunSensitivityReportsHalfDifference(t *testing.T) {
	src := `model Pricing {
  param price: Currency<USD> = $50 { source: "a", method: "b", confidence: 0.9 }
  var revenue[t]: Currency<USD> = price
}`
	model := mustModel(t, src)
	eval, err := NewEvaluator(model)
	if err != nil {
		t.Fatalf("NewEvaluator: %v", err)
	}
	result, err := eval.Run(Options{Mode: ModeSensitivity, Timesteps: 1, SensitivityPercent: 0.10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Sensitivity) == 0 {
		t.Fatal("expected at least one sensitivity entry")
	}
	var found bool
	for _, e := range result.Sensitivity {
		if e.Param != "price" {
			continue
		}
		found = true
		if math.Abs(e.HalfDiff["revenue"]-5) > 1e-6 {
			t.Errorf("half_diff[revenue] = %v, want 5", e.HalfDiff["revenue"])
		}
	}
	if !found {
		t.Fatal("expected a sensitivity entry for param price")
	}
}
