package runtime

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/dist"
	"github.com/pel-lang/pel/units"
)

// Mode selects which of spec.md §4.6's three execution modes governs a run.
type Mode int

const (
	ModeDeterministic Mode = iota
	ModeMonteCarlo
	ModeSensitivity
)

func (m Mode) String() string {
	switch m {
	case ModeDeterministic:
		return "deterministic"
	case ModeMonteCarlo:
		return "monte_carlo"
	case ModeSensitivity:
		return "sensitivity"
	default:
		return "unknown"
	}
}

// evalCtx carries everything one expression evaluation needs: the
// replication's Scope, its RNG stream, the timestep being evaluated, the
// active mode (deterministic evaluation takes a distribution's closed-form
// Mean rather than sampling it), and the model's named policies for Call
// dispatch.
type evalCtx struct {
	scope    *Scope
	rng      *RNG
	t        int
	mode     Mode
	policies map[string]*ast.PolicyDecl
}

// eval evaluates expr to a Value. The expression has already passed
// typecheck.Checker, so eval assumes dimensional consistency and focuses on
// producing the correct numeric result and its resulting unit.
func (c *evalCtx) eval(expr ast.Expr) (Value, error) {
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number literal %q: %w", n.Value, err)
		}
		return Num64(units.Frac(), d), nil
	case *ast.QuantityLiteral:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return Value{}, fmt.Errorf("invalid quantity literal %q: %w", n.Value, err)
		}
		if units.IsCapacityUnit(n.Unit) {
			f, _ := d.Float64()
			normalized, err := units.NormalizeCapacity(f, n.Unit)
			if err != nil {
				return Value{}, err
			}
			d = decimal.NewFromFloat(normalized)
		}
		return Num64(literalUnit(n.Unit), d), nil
	case *ast.RateLiteral:
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return Value{}, fmt.Errorf("invalid rate literal %q: %w", n.Value, err)
		}
		if units.IsCapacityUnit(n.Unit) {
			f, _ := d.Float64()
			normalized, err := units.NormalizeCapacity(f, n.Unit)
			if err != nil {
				return Value{}, err
			}
			d = decimal.NewFromFloat(normalized)
		}
		numer := literalUnit(n.Unit)
		dims := map[string]int{}
		for k, v := range numer.Dims {
			dims[k] += v
		}
		for _, k := range n.PerKeys {
			dims[k]--
		}
		return Num64(units.U{Kind: units.Rate, Dims: dims, Under: numer.Kind}, d), nil
	case *ast.BooleanLiteral:
		return Boolv(n.Value), nil
	case *ast.StringLiteral:
		return Strv(n.Value), nil
	case *ast.ArrayExpr:
		out := make([]Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := c.eval(e)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		elemUnit := units.Frac()
		if len(out) > 0 {
			elemUnit = out[0].Unit
		}
		return Value{Unit: units.Arr(elemUnit), Arr: out}, nil
	case *ast.Identifier:
		if n.Name == "t" {
			return Num64(units.Frac(), decimal.NewFromInt(int64(c.t))), nil
		}
		v, ok := c.scope.Resolve(n.Name)
		if !ok {
			return Value{}, fmt.Errorf("%s: undefined at runtime", n.Name)
		}
		return v, nil
	case *ast.Index:
		name, err := identifierName(n.Target)
		if err != nil {
			return Value{}, err
		}
		return c.scope.At(name, c.t, n.Offset)
	case *ast.BinaryOp:
		return c.evalBinary(n)
	case *ast.ComparisonOp:
		return c.evalComparison(n)
	case *ast.LogicalOp:
		return c.evalLogical(n)
	case *ast.UnaryOp:
		return c.evalUnary(n)
	case *ast.IfExpr:
		cond, err := c.eval(n.Cond)
		if err != nil {
			return Value{}, err
		}
		if cond.Bool {
			return c.eval(n.Then)
		}
		return c.eval(n.Else)
	case *ast.Call:
		return c.evalCall(n)
	case *ast.DistExpr:
		return c.evalDist(n)
	default:
		return Value{}, fmt.Errorf("cannot evaluate expression of kind %T", expr)
	}
}

func identifierName(e ast.Expr) (string, error) {
	id, ok := e.(*ast.Identifier)
	if !ok {
		return "", fmt.Errorf("index target must be a bare identifier, got %T", e)
	}
	return id.Name, nil
}

func (c *evalCtx) evalBinary(n *ast.BinaryOp) (Value, error) {
	l, err := c.eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	r, err := c.eval(n.Right)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "+":
		u, err := units.AddSub(n.Op, l.Unit, r.Unit)
		if err != nil {
			return Value{}, err
		}
		return Num64(u, l.Num.Add(r.Num)), nil
	case "-":
		u, err := units.AddSub(n.Op, l.Unit, r.Unit)
		if err != nil {
			return Value{}, err
		}
		return Num64(u, l.Num.Sub(r.Num)), nil
	case "*":
		u, err := units.Mul(l.Unit, r.Unit)
		if err != nil {
			return Value{}, err
		}
		return Num64(u, l.Num.Mul(r.Num)), nil
	case "/":
		if r.Num.IsZero() {
			return Value{}, fmt.Errorf("division by zero")
		}
		u, err := units.Div(l.Unit, r.Unit)
		if err != nil {
			return Value{}, err
		}
		return Num64(u, l.Num.Div(r.Num)), nil
	case "%":
		if r.Num.IsZero() {
			return Value{}, fmt.Errorf("modulo by zero")
		}
		return Num64(l.Unit, l.Num.Mod(r.Num)), nil
	case "^":
		exp, _ := r.Num.Float64()
		base, _ := l.Num.Float64()
		return Num64(l.Unit, decimal.NewFromFloat(math.Pow(base, exp))), nil
	default:
		return Value{}, fmt.Errorf("unknown binary operator %q", n.Op)
	}
}

func (c *evalCtx) evalComparison(n *ast.ComparisonOp) (Value, error) {
	l, err := c.eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	r, err := c.eval(n.Right)
	if err != nil {
		return Value{}, err
	}
	cmp := l.Num.Cmp(r.Num)
	var result bool
	switch n.Op {
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	case "==":
		result = cmp == 0
	case "!=":
		result = cmp != 0
	default:
		return Value{}, fmt.Errorf("unknown comparison operator %q", n.Op)
	}
	return Boolv(result), nil
}

func (c *evalCtx) evalLogical(n *ast.LogicalOp) (Value, error) {
	l, err := c.eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "and":
		if !l.Bool {
			return Boolv(false), nil
		}
		r, err := c.eval(n.Right)
		if err != nil {
			return Value{}, err
		}
		return Boolv(r.Bool), nil
	case "or":
		if l.Bool {
			return Boolv(true), nil
		}
		r, err := c.eval(n.Right)
		if err != nil {
			return Value{}, err
		}
		return Boolv(r.Bool), nil
	default:
		return Value{}, fmt.Errorf("unknown logical operator %q", n.Op)
	}
}

func (c *evalCtx) evalUnary(n *ast.UnaryOp) (Value, error) {
	v, err := c.eval(n.Operand)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "-":
		return Num64(v.Unit, v.Num.Neg()), nil
	case "not":
		return Boolv(!v.Bool), nil
	default:
		return Value{}, fmt.Errorf("unknown unary operator %q", n.Op)
	}
}

// unitPreservingBuiltins mirrors typecheck.unitPreservingBuiltins: the
// result carries the first argument's unit.
var unitPreservingBuiltins = map[string]bool{
	"clamp": true, "min": true, "max": true, "abs": true, "round": true, "floor": true, "ceil": true,
}

func (c *evalCtx) evalCall(n *ast.Call) (Value, error) {
	if policy, ok := c.policies[n.Callee]; ok {
		return c.evalPolicyCall(policy, n)
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := c.eval(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	if len(args) == 0 {
		return Value{}, fmt.Errorf("function %q requires at least one argument", n.Callee)
	}
	switch n.Callee {
	case "clamp":
		if len(args) != 3 {
			return Value{}, fmt.Errorf("clamp requires 3 arguments, got %d", len(args))
		}
		v, lo, hi := args[0], args[1], args[2]
		if v.Num.LessThan(lo.Num) {
			return lo, nil
		}
		if v.Num.GreaterThan(hi.Num) {
			return hi, nil
		}
		return v, nil
	case "min":
		best := args[0]
		for _, a := range args[1:] {
			if a.Num.LessThan(best.Num) {
				best = a
			}
		}
		return best, nil
	case "max":
		best := args[0]
		for _, a := range args[1:] {
			if a.Num.GreaterThan(best.Num) {
				best = a
			}
		}
		return best, nil
	case "abs":
		return Num64(args[0].Unit, args[0].Num.Abs()), nil
	case "round":
		return Num64(args[0].Unit, args[0].Num.Round(0)), nil
	case "floor":
		return Num64(args[0].Unit, args[0].Num.Truncate(0)), nil
	case "ceil":
		t := args[0].Num.Truncate(0)
		if args[0].Num.GreaterThan(t) {
			t = t.Add(decimal.NewFromInt(1))
		}
		return Num64(args[0].Unit, t), nil
	case "sqrt":
		f, _ := args[0].Num.Float64()
		return Frac(math.Sqrt(f)), nil
	case "ln":
		f, _ := args[0].Num.Float64()
		return Frac(math.Log(f)), nil
	case "log":
		f, _ := args[0].Num.Float64()
		return Frac(math.Log10(f)), nil
	case "exp":
		f, _ := args[0].Num.Float64()
		return Frac(math.Exp(f)), nil
	default:
		return Value{}, fmt.Errorf("unknown function %q", n.Callee)
	}
}

func (c *evalCtx) evalPolicyCall(policy *ast.PolicyDecl, call *ast.Call) (Value, error) {
	if len(call.Args) != len(policy.Params) {
		return Value{}, fmt.Errorf("policy %s expects %d arguments, got %d", policy.Name, len(policy.Params), len(call.Args))
	}
	sub := NewScope()
	for k, v := range c.scope.Params {
		sub.Params[k] = v
	}
	for name, hist := range c.scope.history {
		sub.history[name] = hist
	}
	for i, p := range policy.Params {
		v, err := c.eval(call.Args[i])
		if err != nil {
			return Value{}, err
		}
		sub.SetParam(p, v)
	}
	subCtx := &evalCtx{scope: sub, rng: c.rng, t: c.t, mode: c.mode, policies: c.policies}
	return subCtx.eval(policy.Body)
}

// distParamShapes mirrors typecheck.distParamShapes.
var distParamShapes = map[string][]string{
	"Normal":     {"mean", "stddev"},
	"LogNormal":  {"mean", "stddev"},
	"Beta":       {"a", "b"},
	"Triangular": {"min", "mode", "max"},
	"Uniform":    {"min", "max"},
	"PERT":       {"min", "mode", "max"},
}

func (c *evalCtx) evalDist(n *ast.DistExpr) (Value, error) {
	required, ok := distParamShapes[n.Kind]
	if !ok {
		return Value{}, fmt.Errorf("unknown distribution %q", n.Kind)
	}
	params := make(map[string]Value, len(required))
	var sampleUnit units.U
	haveSampleUnit := false
	for _, key := range required {
		e, ok := n.Params[key]
		if !ok {
			return Value{}, fmt.Errorf("distribution %s missing parameter %q", n.Kind, key)
		}
		v, err := c.eval(e)
		if err != nil {
			return Value{}, err
		}
		params[key] = v
		if key != "a" && key != "b" && !haveSampleUnit {
			sampleUnit = v.Unit
			haveSampleUnit = true
		}
	}
	f := func(key string) float64 { return params[key].Float64() }

	var d dist.Dist
	switch n.Kind {
	case "Normal":
		d = dist.Normal{Mu: f("mean"), Sigma: f("stddev")}
	case "LogNormal":
		d = dist.LogNormal{Mu: f("mean"), Sigma: f("stddev")}
	case "Beta":
		d = dist.Beta{Alpha: f("a"), Beta: f("b")}
		sampleUnit = units.Frac()
	case "Triangular":
		d = dist.Triangular{Min: f("min"), Mode: f("mode"), Max: f("max")}
	case "Uniform":
		d = dist.Uniform{Min: f("min"), Max: f("max")}
	case "PERT":
		d = dist.PERT{Min: f("min"), Mode: f("mode"), Max: f("max")}
	default:
		return Value{}, fmt.Errorf("unknown distribution %q", n.Kind)
	}

	var result float64
	if c.mode == ModeDeterministic || c.mode == ModeSensitivity {
		result = d.Mean()
	} else {
		result = d.Sample(c.rng)
	}
	return Num64(sampleUnit, decimal.NewFromFloat(result)), nil
}

// literalUnit mirrors typecheck.resolveLiteralUnit: the runtime must infer
// the same unit from a literal's raw suffix that the checker already
// validated it against.
func literalUnit(name string) units.U {
	switch {
	case name == "Fraction" || name == "":
		return units.Frac()
	case name == "USD" || name == "EUR" || name == "GBP" || name == "JPY":
		return units.Curr(name)
	case units.IsCapacityUnit(name):
		return units.CapUnit()
	default:
		return units.Cnt(name)
	}
}
