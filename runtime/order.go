package runtime

import "github.com/pel-lang/pel/ast"

// collectDeps walks expr and records every name it reads at the current
// timestep: bare identifiers and `name[t]` (offset 0) indexing. A `name[t-k]`
// reference with k > 0 reads an already-finished prior timestep and is
// deliberately excluded — per spec.md §4.6 invariant, only the instantaneous
// (same-t) graph is checked for cycles; lagged self-reference is legal.
func collectDeps(expr ast.Expr, deps map[string]bool) {
	if expr == nil {
		return
	}
	switch n := expr.(type) {
	case *ast.Identifier:
		if n.Name != "t" {
			deps[n.Name] = true
		}
	case *ast.Index:
		if n.Offset == 0 {
			collectDeps(n.Target, deps)
		}
	case *ast.BinaryOp:
		collectDeps(n.Left, deps)
		collectDeps(n.Right, deps)
	case *ast.ComparisonOp:
		collectDeps(n.Left, deps)
		collectDeps(n.Right, deps)
	case *ast.LogicalOp:
		collectDeps(n.Left, deps)
		collectDeps(n.Right, deps)
	case *ast.UnaryOp:
		collectDeps(n.Operand, deps)
	case *ast.IfExpr:
		collectDeps(n.Cond, deps)
		collectDeps(n.Then, deps)
		collectDeps(n.Else, deps)
	case *ast.Call:
		for _, a := range n.Args {
			collectDeps(a, deps)
		}
	case *ast.DistExpr:
		for _, a := range n.Params {
			collectDeps(a, deps)
		}
	case *ast.ArrayExpr:
		for _, e := range n.Elements {
			collectDeps(e, deps)
		}
	}
}

// orderVars topologically sorts vars by their instantaneous (same-timestep)
// dependency graph via Kahn's algorithm, matching spec.md §4.6's ordering
// requirement. Params are leaves (always ready) and are not part of the
// graph. Returns an error naming a cycle if one survives — a cycle through
// non-lagged Var references is fatal per the spec's invariant.
func orderVars(vars []*ast.VarDecl) ([]*ast.VarDecl, error) {
	byName := make(map[string]*ast.VarDecl, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}

	deps := make(map[string]map[string]bool, len(vars))
	for _, v := range vars {
		d := map[string]bool{}
		collectDeps(v.Value, d)
		delete(d, v.Name) // lagged self-reference never reaches here (offset>0 excluded)
		filtered := map[string]bool{}
		for name := range d {
			if _, isVar := byName[name]; isVar {
				filtered[name] = true
			}
		}
		deps[v.Name] = filtered
	}

	indegree := make(map[string]int, len(vars))
	dependents := make(map[string][]string, len(vars))
	for _, v := range vars {
		indegree[v.Name] = len(deps[v.Name])
		for dep := range deps[v.Name] {
			dependents[dep] = append(dependents[dep], v.Name)
		}
	}

	var ready []string
	for _, v := range vars {
		if indegree[v.Name] == 0 {
			ready = append(ready, v.Name)
		}
	}

	var order []*ast.VarDecl
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, byName[name])
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(vars) {
		var stuck []string
		for _, v := range vars {
			if indegree[v.Name] > 0 {
				stuck = append(stuck, v.Name)
			}
		}
		return nil, &CycleError{Names: stuck}
	}
	return order, nil
}

// CycleError reports an instantaneous (non-lagged) dependency cycle among
// Var declarations, which spec.md §4.6 treats as fatal.
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return "cyclic variable dependency not mediated by t-k lag: " + joinNames(e.Names)
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
