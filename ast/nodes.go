package ast

import (
	"fmt"
	"strings"
)

// Node is the common interface implemented by every AST node. It mirrors
// go-calcmark's ast.Node (String/GetRange), generalized to PEL's statement
// and expression set.
type Node interface {
	String() string
	GetRange() *Range
}

// Expr is the subset of Node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the subset of Node that is a top-level or block-level statement.
type Stmt interface {
	Node
	stmtNode()
}

// Model is the root node of a compiled PEL document: an ordered list of
// top-level declarations (Param, Var, Constraint, Policy).
type Model struct {
	Name  string
	Body  []Stmt
	Range *Range
}

func (m *Model) GetRange() *Range { return m.Range }
func (m *Model) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model %s {\n", m.Name)
	for _, s := range m.Body {
		fmt.Fprintf(&b, "  %s\n", s.String())
	}
	b.WriteString("}")
	return b.String()
}

// --- Literals ---

// NumberLiteral is a bare decimal literal before unit attachment, e.g. `42`.
type NumberLiteral struct {
	Value string // decimal text, preserved verbatim for shopspring/decimal.NewFromString
	Range *Range
}

func (n *NumberLiteral) GetRange() *Range { return n.Range }
func (n *NumberLiteral) String() string   { return n.Value }
func (n *NumberLiteral) exprNode()        {}

// QuantityLiteral is a number with an attached unit suffix, e.g. `$1,200`,
// `42 Customers`, `3.5 GB`.
type QuantityLiteral struct {
	Value string
	Unit  string // raw unit text as lexed, e.g. "USD", "Customers", "GB"
	Range *Range
}

func (n *QuantityLiteral) GetRange() *Range { return n.Range }
func (n *QuantityLiteral) String() string   { return fmt.Sprintf("%s %s", n.Value, n.Unit) }
func (n *QuantityLiteral) exprNode()        {}

// RateLiteral is a quantity with a `per X [per Y ...]` unit phrase, e.g.
// `$4.99 per Month`. The parser rejects a phrase in which the same
// dimension word appears twice with an E0700 ParseError, so PerKeys never
// holds a repeated word.
type RateLiteral struct {
	Value   string
	Unit    string   // numerator unit, e.g. "USD"
	PerKeys []string // denominator dimension words, in source order
	Range   *Range
}

func (n *RateLiteral) GetRange() *Range { return n.Range }
func (n *RateLiteral) String() string {
	return fmt.Sprintf("%s %s per %s", n.Value, n.Unit, strings.Join(n.PerKeys, " per "))
}
func (n *RateLiteral) exprNode() {}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Value bool
	Range *Range
}

func (n *BooleanLiteral) GetRange() *Range { return n.Range }
func (n *BooleanLiteral) String() string   { return fmt.Sprintf("%t", n.Value) }
func (n *BooleanLiteral) exprNode()        {}

// StringLiteral is a quoted string, used for provenance fields and labels.
type StringLiteral struct {
	Value string
	Range *Range
}

func (n *StringLiteral) GetRange() *Range { return n.Range }
func (n *StringLiteral) String() string   { return fmt.Sprintf("%q", n.Value) }
func (n *StringLiteral) exprNode()        {}

// --- References ---

// Identifier is a bare name reference.
type Identifier struct {
	Name  string
	Range *Range
}

func (n *Identifier) GetRange() *Range { return n.Range }
func (n *Identifier) String() string   { return n.Name }
func (n *Identifier) exprNode()        {}

// Index is a time-indexed variable reference, e.g. `revenue[t]`,
// `churn[t-1]`.
type Index struct {
	Target Expr
	Offset int // t-k offset; 0 means `[t]`
	Range  *Range
}

func (n *Index) GetRange() *Range { return n.Range }
func (n *Index) String() string {
	if n.Offset == 0 {
		return fmt.Sprintf("%s[t]", n.Target)
	}
	return fmt.Sprintf("%s[t-%d]", n.Target, n.Offset)
}
func (n *Index) exprNode() {}

// --- Operators ---

// BinaryOp is an arithmetic binary expression: + - * / ^.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	Range *Range
}

func (n *BinaryOp) GetRange() *Range { return n.Range }
func (n *BinaryOp) String() string   { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }
func (n *BinaryOp) exprNode()        {}

// ComparisonOp is a comparison expression: < <= > >= == !=.
type ComparisonOp struct {
	Op    string
	Left  Expr
	Right Expr
	Range *Range
}

func (n *ComparisonOp) GetRange() *Range { return n.Range }
func (n *ComparisonOp) String() string   { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }
func (n *ComparisonOp) exprNode()        {}

// LogicalOp is a boolean `and`/`or` expression.
type LogicalOp struct {
	Op    string
	Left  Expr
	Right Expr
	Range *Range
}

func (n *LogicalOp) GetRange() *Range { return n.Range }
func (n *LogicalOp) String() string   { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }
func (n *LogicalOp) exprNode()        {}

// UnaryOp is a prefix `-` or `not` expression.
type UnaryOp struct {
	Op      string
	Operand Expr
	Range   *Range
}

func (n *UnaryOp) GetRange() *Range { return n.Range }
func (n *UnaryOp) String() string   { return fmt.Sprintf("(%s%s)", n.Op, n.Operand) }
func (n *UnaryOp) exprNode()        {}

// IfExpr is a conditional expression: `if cond then a else b`.
type IfExpr struct {
	Cond  Expr
	Then  Expr
	Else  Expr
	Range *Range
}

func (n *IfExpr) GetRange() *Range { return n.Range }
func (n *IfExpr) String() string {
	return fmt.Sprintf("if %s then %s else %s", n.Cond, n.Then, n.Else)
}
func (n *IfExpr) exprNode() {}

// Call is a function call, e.g. `clamp(x, 0, 1)`.
type Call struct {
	Callee string
	Args   []Expr
	Range  *Range
}

func (n *Call) GetRange() *Range { return n.Range }
func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(args, ", "))
}
func (n *Call) exprNode() {}

// DistExpr is a distribution constructor, e.g.
// `Normal(mean: 100 Customers, stddev: 15 Customers)`.
type DistExpr struct {
	Kind   string // "Normal", "LogNormal", "Beta", "Triangular", "Uniform", "PERT"
	Params map[string]Expr
	Range  *Range
}

func (n *DistExpr) GetRange() *Range { return n.Range }
func (n *DistExpr) String() string {
	parts := make([]string, 0, len(n.Params))
	for k, v := range n.Params {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v))
	}
	return fmt.Sprintf("%s(%s)", n.Kind, strings.Join(parts, ", "))
}
func (n *DistExpr) exprNode() {}

// ArrayExpr is a literal array, e.g. `[1, 2, 3]`.
type ArrayExpr struct {
	Elements []Expr
	Range    *Range
}

func (n *ArrayExpr) GetRange() *Range { return n.Range }
func (n *ArrayExpr) String() string {
	parts := make([]string, len(n.Elements))
	for i, e := range n.Elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
func (n *ArrayExpr) exprNode() {}

// UnitSpec is the structured form of a type annotation's unit phrase, e.g.
// `Currency<USD>`, `Count<Customer>`, `Rate per Month`, `Duration in Month`.
// Kind is the bare kind name as written in source ("Currency", "Count",
// "Rate", "Duration", "Fraction", "Boolean", "String", "Capacity",
// "TimeSeries", "Distribution", "Array"); Dim is the single `<...>`/`in`
// dimension word when present; PerKeys holds the denominator dimension
// words of a `per X [per Y ...]` phrase, in source order.
type UnitSpec struct {
	Kind    string
	Dim     string
	PerKeys []string
	Elem    *UnitSpec // element type for TimeSeries<T>/Distribution<T>/Array<T>
}

func (u UnitSpec) String() string {
	switch {
	case len(u.PerKeys) > 0:
		return fmt.Sprintf("%s per %s", u.Kind, strings.Join(u.PerKeys, " per "))
	case u.Dim != "":
		return fmt.Sprintf("%s<%s>", u.Kind, u.Dim)
	case u.Elem != nil:
		return fmt.Sprintf("%s<%s>", u.Kind, u.Elem.String())
	default:
		return u.Kind
	}
}

// --- Declarations (statements) ---

// ProvenanceField is one `source/method/confidence/...` entry inside a
// `provenance { ... }` block attached to a Param.
type ProvenanceField struct {
	Key   string
	Value Expr
}

// ParamDecl declares a calibratable input: `param name: Unit = value { provenance { ... } }`.
type ParamDecl struct {
	Name       string
	Unit       UnitSpec
	Default    Expr
	Provenance []ProvenanceField
	Range      *Range
}

func (n *ParamDecl) GetRange() *Range { return n.Range }
func (n *ParamDecl) String() string {
	return fmt.Sprintf("param %s: %s = %s", n.Name, n.Unit, n.Default)
}
func (n *ParamDecl) stmtNode() {}

// VarDecl declares a computed or recurrent series: `var name[t]: Unit = expr`.
type VarDecl struct {
	Name    string
	Unit    UnitSpec
	Indexed bool // true when declared with an explicit [t] time index
	Value   Expr
	Range   *Range
}

func (n *VarDecl) GetRange() *Range { return n.Range }
func (n *VarDecl) String() string {
	idx := ""
	if n.Indexed {
		idx = "[t]"
	}
	return fmt.Sprintf("var %s%s: %s = %s", n.Name, idx, n.Unit, n.Value)
}
func (n *VarDecl) stmtNode() {}

// ConstraintSeverity is the severity level of a constraint violation.
type ConstraintSeverity string

const (
	SeverityInfo    ConstraintSeverity = "info"
	SeverityWarning ConstraintSeverity = "warning"
	SeverityError   ConstraintSeverity = "error"
	SeverityFatal   ConstraintSeverity = "fatal"
)

// ConstraintDecl declares an invariant check: `constraint name: expr severity fatal`.
type ConstraintDecl struct {
	Name     string
	Predicate Expr
	Severity ConstraintSeverity
	Message  string
	Range    *Range
}

func (n *ConstraintDecl) GetRange() *Range { return n.Range }
func (n *ConstraintDecl) String() string {
	return fmt.Sprintf("constraint %s: %s severity %s", n.Name, n.Predicate, n.Severity)
}
func (n *ConstraintDecl) stmtNode() {}

// PolicyDecl declares a named, reusable decision rule: `policy name(args) -> Unit { body }`.
type PolicyDecl struct {
	Name   string
	Params []string
	Unit   UnitSpec
	Body   Expr
	Range  *Range
}

func (n *PolicyDecl) GetRange() *Range { return n.Range }
func (n *PolicyDecl) String() string {
	return fmt.Sprintf("policy %s(%s) -> %s { %s }", n.Name, strings.Join(n.Params, ", "), n.Unit, n.Body)
}
func (n *PolicyDecl) stmtNode() {}

// Assignment is used inside policy bodies and for-loop desugaring: `name = expr`.
type Assignment struct {
	Target string
	Value  Expr
	Range  *Range
}

func (n *Assignment) GetRange() *Range { return n.Range }
func (n *Assignment) String() string   { return fmt.Sprintf("%s = %s", n.Target, n.Value) }
func (n *Assignment) stmtNode()        {}
