package typecheck

import (
	"fmt"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/units"
)

// Checker performs dimensional type checking over a parsed ast.Model.
type Checker struct {
	env         *Environment
	policies    map[string]*ast.PolicyDecl
	diagnostics []Diagnostic
}

// NewChecker creates a checker with an empty environment.
func NewChecker() *Checker {
	return &Checker{env: NewEnvironment(), policies: map[string]*ast.PolicyDecl{}}
}

// Check type-checks every declaration in model and returns all diagnostics
// found. It never stops at the first error: like go-calcmark's Checker, it
// accumulates findings across the whole model.
func (c *Checker) Check(model *ast.Model) []Diagnostic {
	// Pass 1: register every declared name's unit up front, so forward and
	// mutually-recursive references (revenue[t] referring to churn[t], a
	// var declared later in the file) resolve during pass 2.
	for _, stmt := range model.Body {
		switch n := stmt.(type) {
		case *ast.ParamDecl:
			u, err := ResolveUnitSpec(n.Unit)
			if err != nil {
				c.addf(Error, CodeTypeMismatch, n.Range, n.Name, "param %s: %v", n.Name, err)
				continue
			}
			c.env.Set(n.Name, u)
		case *ast.VarDecl:
			u, err := ResolveUnitSpec(n.Unit)
			if err != nil {
				c.addf(Error, CodeTypeMismatch, n.Range, n.Name, "var %s: %v", n.Name, err)
				continue
			}
			if n.Indexed {
				u = units.Series(u)
			}
			c.env.Set(n.Name, u)
		case *ast.PolicyDecl:
			c.policies[n.Name] = n
		}
	}

	// Pass 2: check each declaration's body/predicate against its
	// registered unit.
	for _, stmt := range model.Body {
		c.checkStmt(stmt)
	}
	return c.diagnostics
}

// CheckFirst runs the same checks as Check but returns only the first
// diagnostic found, for callers (e.g. an LSP) that only need a yes/no and
// the earliest failure.
func (c *Checker) CheckFirst(model *ast.Model) *Diagnostic {
	diags := c.Check(model)
	if len(diags) == 0 {
		return nil
	}
	return &diags[0]
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.ParamDecl:
		c.checkParamDecl(n)
	case *ast.VarDecl:
		c.checkVarDecl(n)
	case *ast.ConstraintDecl:
		c.checkConstraintDecl(n)
	case *ast.PolicyDecl:
		c.checkPolicyDecl(n)
	}
}

func (c *Checker) checkParamDecl(n *ast.ParamDecl) {
	declared, err := ResolveUnitSpec(n.Unit)
	if err != nil {
		return // already reported in pass 1
	}
	if n.Default == nil {
		return
	}
	actual, err := c.infer(n.Default)
	if err != nil {
		c.addf(Error, CodeTypeMismatch, n.Default.GetRange(), n.Name, "%v", err)
		return
	}
	if _, isDist := n.Default.(*ast.DistExpr); isDist {
		if !declared.Equal(actual) {
			c.addf(Error, CodeTypeMismatch, n.Default.GetRange(), n.Name,
				"param %s: distribution samples %s but is declared %s", n.Name, actual, declared)
		}
		return
	}
	if !declared.Equal(actual) {
		c.addf(Error, CodeTypeMismatch, n.Default.GetRange(), n.Name,
			"param %s: default value has unit %s but is declared %s", n.Name, actual, declared)
		return
	}
	// A bare `Rate per X` annotation leaves the numerator open; bind the
	// default's concrete numerator so products collapse to its kind.
	if declared.Kind == units.Rate && declared.Under == units.WildcardUnder {
		c.env.Set(n.Name, actual)
	}
}

func (c *Checker) checkVarDecl(n *ast.VarDecl) {
	declared, err := ResolveUnitSpec(n.Unit)
	if err != nil {
		return
	}
	actual, err := c.infer(n.Value)
	if err != nil {
		c.addf(Error, CodeTypeMismatch, n.Value.GetRange(), n.Name, "%v", err)
		return
	}
	if !declared.Equal(actual) {
		c.addf(Error, CodeTypeMismatch, n.Value.GetRange(), n.Name,
			"var %s: expression has unit %s but is declared %s", n.Name, actual, declared)
	}
}

func (c *Checker) checkConstraintDecl(n *ast.ConstraintDecl) {
	u, err := c.infer(n.Predicate)
	if err != nil {
		c.addf(Error, CodeTypeMismatch, n.Predicate.GetRange(), n.Name, "%v", err)
		return
	}
	if u.Kind != units.Boolean {
		c.addf(Error, CodeTypeMismatch, n.Predicate.GetRange(), n.Name,
			"constraint %s: predicate has unit %s, expected Boolean", n.Name, u)
	}
}

func (c *Checker) checkPolicyDecl(n *ast.PolicyDecl) {
	scoped := c.env.Clone()
	for _, p := range n.Params {
		scoped.Set(p, units.Frac())
	}
	sub := &Checker{env: scoped, policies: c.policies}
	actual, err := sub.infer(n.Body)
	c.diagnostics = append(c.diagnostics, sub.diagnostics...)
	if err != nil {
		c.addf(Error, CodeTypeMismatch, n.Body.GetRange(), n.Name, "%v", err)
		return
	}
	if declared, derr := ResolveUnitSpec(n.Unit); derr == nil && n.Unit.Kind != "" && !declared.Equal(actual) {
		c.addf(Error, CodeTypeMismatch, n.Body.GetRange(), n.Name,
			"policy %s: body has unit %s but is declared %s", n.Name, actual, declared)
	}
}

// infer performs bidirectional type inference over an expression,
// returning the units.U it evaluates to or an error describing why it
// could not be typed.
func (c *Checker) infer(expr ast.Expr) (units.U, error) {
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		return units.Frac(), nil
	case *ast.QuantityLiteral:
		return resolveLiteralUnit(n.Unit), nil
	case *ast.RateLiteral:
		dims := map[string]int{}
		for _, k := range n.PerKeys {
			dims[k]--
		}
		numer := resolveLiteralUnit(n.Unit)
		return units.U{Kind: units.Rate, Dims: mergeInto(numer.Dims, dims), Under: numer.Kind}, nil
	case *ast.BooleanLiteral:
		return units.Boo(), nil
	case *ast.StringLiteral:
		return units.Str(), nil
	case *ast.ArrayExpr:
		return c.inferArray(n)
	case *ast.Identifier:
		if n.Name == "t" {
			// The implicit timestep variable, available inside any
			// time-indexed Var's recurrence (spec.md §4.6).
			return units.Frac(), nil
		}
		u, ok := c.env.Get(n.Name)
		if !ok {
			return units.U{}, fmt.Errorf("undefined variable %q [%s]", n.Name, CodeUndefinedVariable)
		}
		return u, nil
	case *ast.Index:
		target, err := c.infer(n.Target)
		if err != nil {
			return units.U{}, err
		}
		return units.Index(target)
	case *ast.BinaryOp:
		return c.inferBinaryOp(n)
	case *ast.ComparisonOp:
		l, err := c.infer(n.Left)
		if err != nil {
			return units.U{}, err
		}
		r, err := c.infer(n.Right)
		if err != nil {
			return units.U{}, err
		}
		return units.Compare(n.Op, l, r)
	case *ast.LogicalOp:
		l, err := c.infer(n.Left)
		if err != nil {
			return units.U{}, err
		}
		r, err := c.infer(n.Right)
		if err != nil {
			return units.U{}, err
		}
		if l.Kind != units.Boolean || r.Kind != units.Boolean {
			return units.U{}, fmt.Errorf("logical %q requires Boolean operands, got %s and %s [%s]", n.Op, l, r, CodeTypeMismatch)
		}
		return units.Boo(), nil
	case *ast.UnaryOp:
		operand, err := c.infer(n.Operand)
		if err != nil {
			return units.U{}, err
		}
		if n.Op == "not" {
			if operand.Kind != units.Boolean {
				return units.U{}, fmt.Errorf("'not' requires a Boolean operand, got %s [%s]", operand, CodeTypeMismatch)
			}
			return units.Boo(), nil
		}
		return operand, nil
	case *ast.IfExpr:
		return c.inferIf(n)
	case *ast.Call:
		return c.inferCall(n)
	case *ast.DistExpr:
		return c.inferDist(n)
	default:
		return units.U{}, fmt.Errorf("cannot type-check expression of kind %T", expr)
	}
}

func (c *Checker) inferArray(n *ast.ArrayExpr) (units.U, error) {
	if len(n.Elements) == 0 {
		return units.Arr(units.Frac()), nil
	}
	first, err := c.infer(n.Elements[0])
	if err != nil {
		return units.U{}, err
	}
	for _, e := range n.Elements[1:] {
		u, err := c.infer(e)
		if err != nil {
			return units.U{}, err
		}
		if !u.Equal(first) {
			return units.U{}, fmt.Errorf("array elements have mismatched units %s and %s [%s]", first, u, CodeDimensionalMismatch)
		}
	}
	return units.Arr(first), nil
}

func (c *Checker) inferBinaryOp(n *ast.BinaryOp) (units.U, error) {
	l, err := c.infer(n.Left)
	if err != nil {
		return units.U{}, err
	}
	r, err := c.infer(n.Right)
	if err != nil {
		return units.U{}, err
	}
	switch n.Op {
	case "+", "-":
		u, err := units.AddSub(n.Op, l, r)
		if err != nil {
			return units.U{}, fmt.Errorf("%v [%s]", err, CodeDimensionalMismatch)
		}
		return u, nil
	case "*":
		return units.Mul(l, r)
	case "/":
		return units.Div(l, r)
	case "%":
		if l.Kind != r.Kind || !l.Equal(r) {
			return units.U{}, fmt.Errorf("'%%' requires matching units, got %s and %s [%s]", l, r, CodeDimensionalMismatch)
		}
		return l, nil
	case "^":
		if !r.Equal(units.Frac()) {
			return units.U{}, fmt.Errorf("exponent must be a dimensionless Fraction, got %s [%s]", r, CodeTypeMismatch)
		}
		return l, nil
	default:
		return units.U{}, fmt.Errorf("unknown binary operator %q", n.Op)
	}
}

func (c *Checker) inferIf(n *ast.IfExpr) (units.U, error) {
	cond, err := c.infer(n.Cond)
	if err != nil {
		return units.U{}, err
	}
	if cond.Kind != units.Boolean {
		return units.U{}, fmt.Errorf("if-condition must be Boolean, got %s [%s]", cond, CodeTypeMismatch)
	}
	thenU, err := c.infer(n.Then)
	if err != nil {
		return units.U{}, err
	}
	elseU, err := c.infer(n.Else)
	if err != nil {
		return units.U{}, err
	}
	if !thenU.Equal(elseU) {
		return units.U{}, fmt.Errorf("if-branches have mismatched units %s and %s [%s]", thenU, elseU, CodeDimensionalMismatch)
	}
	return thenU, nil
}

// unitPreservingBuiltins are functions whose result unit equals their first
// argument's unit, and whose remaining arguments must match it too.
var unitPreservingBuiltins = map[string]bool{
	"clamp": true, "min": true, "max": true, "abs": true, "round": true, "floor": true, "ceil": true,
}

// scalarBuiltins always return a dimensionless Fraction.
var scalarBuiltins = map[string]bool{
	"sqrt": true, "ln": true, "log": true, "exp": true,
}

func (c *Checker) inferCall(n *ast.Call) (units.U, error) {
	if policy, ok := c.policies[n.Callee]; ok {
		return c.inferPolicyCall(policy, n)
	}
	if len(n.Args) == 0 {
		return units.U{}, fmt.Errorf("function %q requires at least one argument", n.Callee)
	}
	argUnits := make([]units.U, len(n.Args))
	for i, a := range n.Args {
		u, err := c.infer(a)
		if err != nil {
			return units.U{}, err
		}
		argUnits[i] = u
	}

	switch {
	case unitPreservingBuiltins[n.Callee]:
		first := argUnits[0]
		for _, u := range argUnits[1:] {
			if !u.Equal(first) {
				return units.U{}, fmt.Errorf("%s: arguments have mismatched units %s and %s [%s]", n.Callee, first, u, CodeDimensionalMismatch)
			}
		}
		return first, nil
	case scalarBuiltins[n.Callee]:
		return units.Frac(), nil
	default:
		return units.U{}, fmt.Errorf("unknown function %q [%s]", n.Callee, CodeUnknownFunction)
	}
}

func (c *Checker) inferPolicyCall(policy *ast.PolicyDecl, call *ast.Call) (units.U, error) {
	if len(call.Args) != len(policy.Params) {
		return units.U{}, fmt.Errorf("policy %s expects %d arguments, got %d", policy.Name, len(policy.Params), len(call.Args))
	}
	for _, a := range call.Args {
		if _, err := c.infer(a); err != nil {
			return units.U{}, err
		}
	}
	if policy.Unit.Kind == "" {
		return units.Frac(), nil
	}
	return ResolveUnitSpec(policy.Unit)
}

// distParamShapes names the required provenance-less parameter keys for
// each recognized distribution (spec.md §4.2/§4.6), mirroring the Python
// reference's per-family parameter sets (original_source/runtime/
// calibration/parameter_estimation.py).
var distParamShapes = map[string][]string{
	"Normal":     {"mean", "stddev"},
	"LogNormal":  {"mean", "stddev"},
	"Beta":       {"a", "b"},
	"Triangular": {"min", "mode", "max"},
	"Uniform":    {"min", "max"},
	"PERT":       {"min", "mode", "max"},
}

func (c *Checker) inferDist(n *ast.DistExpr) (units.U, error) {
	required, ok := distParamShapes[n.Kind]
	if !ok {
		return units.U{}, fmt.Errorf("unknown distribution %q", n.Kind)
	}
	var sampleUnit units.U
	first := true
	for _, key := range required {
		arg, ok := n.Params[key]
		if !ok {
			return units.U{}, fmt.Errorf("distribution %s missing parameter %q [%s]", n.Kind, key, CodeUnknownDistParam)
		}
		u, err := c.infer(arg)
		if err != nil {
			return units.U{}, err
		}
		if key == "a" || key == "b" {
			// Beta's shape parameters are dimensionless even though its
			// sample is a Fraction; skip the sample-unit agreement check.
			continue
		}
		if first {
			sampleUnit = u
			first = false
		} else if !u.Equal(sampleUnit) {
			return units.U{}, fmt.Errorf("distribution %s: parameter %q has unit %s, expected %s [%s]", n.Kind, key, u, sampleUnit, CodeDimensionalMismatch)
		}
	}
	if n.Kind == "Beta" {
		return units.Frac(), nil
	}
	return sampleUnit, nil
}

func resolveLiteralUnit(name string) units.U {
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

func mergeInto(base map[string]int, extra map[string]int) map[string]int {
	out := map[string]int{}
	for k, v := range base {
		out[k] += v
	}
	for k, v := range extra {
		out[k] += v
	}
	return out
}

func (c *Checker) addf(sev Severity, code Code, rng *ast.Range, name, format string, args ...any) {
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Severity: sev, Code: code, Message: fmt.Sprintf(format, args...), Range: rng, Name: name,
	})
}
