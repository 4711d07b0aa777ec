package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/provenance"
)

// Emit compiles a parsed ast.Model into its canonical IR form.
func Emit(model *ast.Model) (*IR, error) {
	m := &ModelIR{Name: model.Name}

	for _, stmt := range model.Body {
		switch n := stmt.(type) {
		case *ast.ParamDecl:
			expr, err := emitExpr(n.Default)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", n.Name, err)
			}
			p := ParamIR{Name: n.Name, Unit: n.Unit.String(), ValueExpr: expr}
			if len(n.Provenance) > 0 {
				rec := provenance.Decode(n.Provenance)
				prov := &ProvenanceIR{
					Source: rec.Source, Method: rec.Method, Confidence: rec.Confidence,
					CorrelatedWith: rec.CorrelatedWith, CalibrationTimestamp: rec.CalibrationTimestamp,
				}
				if rec.HasAIC {
					prov.AIC = &rec.AIC
				}
				if rec.HasBIC {
					prov.BIC = &rec.BIC
				}
				p.Provenance = prov
			}
			m.Params = append(m.Params, p)
		case *ast.VarDecl:
			expr, err := emitExpr(n.Value)
			if err != nil {
				return nil, fmt.Errorf("var %s: %w", n.Name, err)
			}
			m.Vars = append(m.Vars, VarIR{Name: n.Name, Unit: n.Unit.String(), Indexed: n.Indexed, Expr: expr})
		case *ast.ConstraintDecl:
			expr, err := emitExpr(n.Predicate)
			if err != nil {
				return nil, fmt.Errorf("constraint %s: %w", n.Name, err)
			}
			m.Constraints = append(m.Constraints, ConstraintIR{
				Name: n.Name, Predicate: expr, Severity: string(n.Severity), Message: n.Message,
			})
		case *ast.PolicyDecl:
			body, err := emitExpr(n.Body)
			if err != nil {
				return nil, fmt.Errorf("policy %s: %w", n.Name, err)
			}
			m.Policies = append(m.Policies, PolicyIR{
				Name: n.Name, Params: n.Params, Unit: n.Unit.String(), Body: body,
			})
		}
	}

	return &IR{PelVersion: Version, Model: m}, nil
}

func emitExpr(e ast.Expr) (ExprIR, error) {
	if e == nil {
		return ExprIR{}, fmt.Errorf("nil expression")
	}
	switch n := e.(type) {
	case *ast.NumberLiteral:
		return ExprIR{Kind: "number", Value: n.Value}, nil
	case *ast.QuantityLiteral:
		return ExprIR{Kind: "quantity", Value: n.Value, Unit: n.Unit}, nil
	case *ast.RateLiteral:
		unit := n.Unit
		for _, k := range n.PerKeys {
			unit += " per " + k
		}
		return ExprIR{Kind: "rate", Value: n.Value, Unit: unit}, nil
	case *ast.BooleanLiteral:
		v := "false"
		if n.Value {
			v = "true"
		}
		return ExprIR{Kind: "boolean", Value: v}, nil
	case *ast.StringLiteral:
		return ExprIR{Kind: "string", Value: n.Value}, nil
	case *ast.Identifier:
		return ExprIR{Kind: "identifier", Value: n.Name}, nil
	case *ast.Index:
		target, err := emitExpr(n.Target)
		if err != nil {
			return ExprIR{}, err
		}
		return ExprIR{Kind: "index", Target: &target, Offset: n.Offset}, nil
	case *ast.BinaryOp:
		return emitBinary("binary_op", n.Op, n.Left, n.Right)
	case *ast.ComparisonOp:
		return emitBinary("comparison_op", n.Op, n.Left, n.Right)
	case *ast.LogicalOp:
		return emitBinary("logical_op", n.Op, n.Left, n.Right)
	case *ast.UnaryOp:
		operand, err := emitExpr(n.Operand)
		if err != nil {
			return ExprIR{}, err
		}
		return ExprIR{Kind: "unary_op", Op: n.Op, Operand: &operand}, nil
	case *ast.IfExpr:
		cond, err := emitExpr(n.Cond)
		if err != nil {
			return ExprIR{}, err
		}
		thenE, err := emitExpr(n.Then)
		if err != nil {
			return ExprIR{}, err
		}
		elseE, err := emitExpr(n.Else)
		if err != nil {
			return ExprIR{}, err
		}
		return ExprIR{Kind: "if", Cond: &cond, Then: &thenE, Else: &elseE}, nil
	case *ast.Call:
		args, err := emitExprs(n.Args)
		if err != nil {
			return ExprIR{}, err
		}
		return ExprIR{Kind: "call", Callee: n.Callee, Args: args}, nil
	case *ast.DistExpr:
		params := map[string]ExprIR{}
		for k, v := range n.Params {
			pe, err := emitExpr(v)
			if err != nil {
				return ExprIR{}, err
			}
			params[k] = pe
		}
		return ExprIR{Kind: "distribution", DistKind: n.Kind, Params: params}, nil
	case *ast.ArrayExpr:
		elems, err := emitExprs(n.Elements)
		if err != nil {
			return ExprIR{}, err
		}
		return ExprIR{Kind: "array", Elements: elems}, nil
	default:
		return ExprIR{}, fmt.Errorf("emit: unsupported expression node %T", e)
	}
}

func emitBinary(kind, op string, left, right ast.Expr) (ExprIR, error) {
	l, err := emitExpr(left)
	if err != nil {
		return ExprIR{}, err
	}
	r, err := emitExpr(right)
	if err != nil {
		return ExprIR{}, err
	}
	return ExprIR{Kind: kind, Op: op, Left: &l, Right: &r}, nil
}

func emitExprs(exprs []ast.Expr) ([]ExprIR, error) {
	out := make([]ExprIR, len(exprs))
	for i, e := range exprs {
		ie, err := emitExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = ie
	}
	return out, nil
}

// MarshalCanonical renders ir as indented, byte-stable JSON: encoding/json
// already serializes struct fields in declaration order and map keys
// sorted, so repeated calls on an equal IR value always produce identical
// bytes.
func MarshalCanonical(doc *IR) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
