package runtime

import (
	"github.com/shopspring/decimal"

	"github.com/pel-lang/pel/units"
)

// Value is a runtime-evaluated result: a tagged union over the scalar
// kinds the type checker admits, carrying its full units.U (not just a bare
// Kind) so arithmetic can delegate to units.Mul/Div/AddSub for correct
// Rate-collapse behavior instead of re-deriving it from a flattened tag.
// Numeric kinds all share the Num field and carry full decimal precision
// through arithmetic, converting to float64 only at result-reporting time —
// the same discipline go-calcmark's evaluator applies with
// shopspring/decimal.
type Value struct {
	Unit units.U
	Num  decimal.Decimal
	Bool bool
	Str  string
	Arr  []Value
}

// Kind is a convenience accessor for Unit.Kind.
func (v Value) Kind() units.Kind { return v.Unit.Kind }

// Num64 wraps a decimal value with an explicit unit.
func Num64(u units.U, v decimal.Decimal) Value { return Value{Unit: u, Num: v} }

// Frac wraps a float64 as a dimensionless Fraction value.
func Frac(f float64) Value { return Value{Unit: units.Frac(), Num: decimal.NewFromFloat(f)} }

// Boolv wraps a bool.
func Boolv(b bool) Value { return Value{Unit: units.Boo(), Bool: b} }

// Strv wraps a string.
func Strv(s string) Value { return Value{Unit: units.Str(), Str: s} }

// Float64 extracts the numeric value as a float64, for result reporting
// and IR-adjacent output where IEEE-754 float64 is the wire format.
func (v Value) Float64() float64 {
	f, _ := v.Num.Float64()
	return f
}
