package pel

import (
	"fmt"

	"github.com/pel-lang/pel/provenance"
	"github.com/pel-lang/pel/runtime"
	"github.com/pel-lang/pel/typecheck"
)

// Session holds one parsed, checked model and lets a caller run it
// repeatedly under different runtime.Options without re-parsing or
// re-checking — e.g. a deterministic pass followed by a Monte Carlo sweep
// over the same source. Grounded on go-calcmark's calcmark.Session, which
// holds a live interpreter.Environment across repeated Eval calls; PEL's
// Session instead holds a compiled runtime.Evaluator, since PEL models are
// immutable programs rather than a REPL's incrementally-growing script.
type Session struct {
	diags []typecheck.Diagnostic
	eval  *runtime.Evaluator
}

// NewSession parses, type-checks, and provenance-checks src, and builds the
// Evaluator used by every subsequent Run call.
func NewSession(src string) (*Session, error) {
	model, diags, err := parseAndCheck(src)
	if err != nil {
		return nil, err
	}
	if err := provenance.NewChecker().Check(model); err != nil {
		return nil, fmt.Errorf("provenance check: %w", err)
	}
	eval, err := runtime.NewEvaluator(model)
	if err != nil {
		return nil, fmt.Errorf("evaluator: %w", err)
	}
	return &Session{diags: diags, eval: eval}, nil
}

// Run executes the session's model under opts and stamps the outcome with a
// fresh run identifier.
func (s *Session) Run(opts runtime.Options) (*Result, error) {
	rep, err := s.eval.Run(opts)
	if err != nil {
		return nil, err
	}
	return &Result{RunID: newRunID(), Result: rep, Diagnostics: s.diags}, nil
}

// Run parses, checks, and executes src under opts in one call — the
// stateless convenience entry point, grounded on go-calcmark's top-level
// calcmark.Eval. Prefer Session for repeated runs against the same model,
// since Run re-parses and re-checks src on every call.
func Run(src string, opts runtime.Options) (*Result, error) {
	session, err := NewSession(src)
	if err != nil {
		return nil, err
	}
	return session.Run(opts)
}
