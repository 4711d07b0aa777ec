package pel

import (
	"fmt"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/ir"
	"github.com/pel-lang/pel/parser"
	"github.com/pel-lang/pel/provenance"
	"github.com/pel-lang/pel/typecheck"
)

// Compile parses, dimensionally type-checks, and provenance-checks src, then
// emits its canonical IR. It never executes the model — see Run/Session for
// execution. Grounded on go-calcmark's evaluate() pipeline (parse → check →
// interpret), generalized to PEL's separate IR-emission stage (spec.md
// §4.5) ahead of execution.
func Compile(src string) (*ir.IR, error) {
	model, _, err := parseAndCheck(src)
	if err != nil {
		return nil, err
	}
	if err := provenance.NewChecker().Check(model); err != nil {
		return nil, fmt.Errorf("provenance check: %w", err)
	}
	doc, err := ir.Emit(model)
	if err != nil {
		return nil, fmt.Errorf("ir emit: %w", err)
	}
	return doc, nil
}

// parseAndCheck parses src and runs the dimensional type checker, failing on
// parse errors or any diagnostic at typecheck.Error severity. Diagnostics of
// lesser severity (Warning, Hint) are returned alongside the model so
// callers can surface them without blocking compilation.
func parseAndCheck(src string) (*ast.Model, []typecheck.Diagnostic, error) {
	p, err := parser.New(src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	model, err := p.Parse()
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}
	diags := typecheck.NewChecker().Check(model)
	for _, d := range diags {
		if d.Severity == typecheck.Error {
			return nil, diags, fmt.Errorf("type check: %s", d)
		}
	}
	return model, diags, nil
}
