package runtime

import (
	"fmt"
	"math"
	goruntime "runtime"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/units"
)

// Options configures one Evaluator.Run call (spec.md §4.6).
type Options struct {
	Mode               Mode
	Seed               uint64
	Replications       int     // Monte Carlo only; ignored otherwise
	Timesteps          int     // number of t values to evaluate, T in spec.md §4
	SensitivityPercent float64 // ±p given as a fraction, e.g. 0.10; 0 means the 10% default
}

// Evaluator runs a type-checked ast.Model under any of the three execution
// modes. It is built once per model (paying the topological sort cost once)
// and its Run method is safe to call repeatedly and, since Monte Carlo
// replications never share a Scope, concurrently.
type Evaluator struct {
	params      []*ast.ParamDecl
	vars        []*ast.VarDecl
	constraints []*ast.ConstraintDecl
	policies    map[string]*ast.PolicyDecl
	order       []*ast.VarDecl
}

// NewEvaluator partitions model's declarations by kind and computes the
// instantaneous-dependency topological order of its Vars, grounded on
// go-calcmark's evaluator package construction from a checked AST.
func NewEvaluator(model *ast.Model) (*Evaluator, error) {
	e := &Evaluator{policies: map[string]*ast.PolicyDecl{}}
	for _, stmt := range model.Body {
		switch n := stmt.(type) {
		case *ast.ParamDecl:
			e.params = append(e.params, n)
		case *ast.VarDecl:
			e.vars = append(e.vars, n)
		case *ast.ConstraintDecl:
			e.constraints = append(e.constraints, n)
		case *ast.PolicyDecl:
			e.policies[n.Name] = n
		}
	}
	order, err := orderVars(e.vars)
	if err != nil {
		return nil, err
	}
	e.order = order
	return e, nil
}

// Run dispatches to the requested execution mode. If opts.Timesteps is
// unset, it is taken from a model-level `param timesteps: Count<...>`
// declaration if one exists (spec.md §4: "T taken from a model-level
// timesteps parameter"), else defaults to 1.
func (e *Evaluator) Run(opts Options) (*Result, error) {
	if opts.Timesteps <= 0 {
		opts.Timesteps = e.defaultTimesteps(opts.Seed)
	}
	switch opts.Mode {
	case ModeDeterministic:
		return e.runDeterministic(opts)
	case ModeMonteCarlo:
		return e.runMonteCarlo(opts)
	case ModeSensitivity:
		return e.runSensitivity(opts)
	default:
		return nil, fmt.Errorf("unknown evaluation mode %v", opts.Mode)
	}
}

// defaultTimesteps evaluates the `timesteps` param, if the model declares
// one, else returns 1.
func (e *Evaluator) defaultTimesteps(seed uint64) int {
	for _, p := range e.params {
		if p.Name != "timesteps" {
			continue
		}
		ctx := &evalCtx{scope: NewScope(), rng: Split(seed, 0), t: 0, mode: ModeDeterministic, policies: e.policies}
		v, err := ctx.eval(p.Default)
		if err != nil {
			return 1
		}
		f, _ := v.Num.Float64()
		if f < 1 {
			return 1
		}
		return int(f)
	}
	return 1
}

func (e *Evaluator) runDeterministic(opts Options) (*Result, error) {
	rep, err := e.runReplication(opts, 0, nil)
	if err != nil {
		return nil, err
	}
	status := "ok"
	if rep.Failed {
		status = "failed"
	}
	return &Result{Mode: opts.Mode, Status: status, Variables: rep.Variables, Violations: rep.Violations}, nil
}

// runMonteCarlo fans replications out over a fixed worker pool draining a
// channel of replication indices and writing results into a pre-sized,
// index-addressed slice — never appending under a mutex — so the combined
// result is identical regardless of goroutine completion order (spec.md
// §4.6, grounded on Tangerg-lynx's counting-semaphore Limiter pattern
// generalized to a fixed pool).
func (e *Evaluator) runMonteCarlo(opts Options) (*Result, error) {
	if opts.Replications <= 0 {
		opts.Replications = 1
	}
	results := make([]*ReplicationResult, opts.Replications)
	errs := make([]error, opts.Replications)

	workers := goruntime.GOMAXPROCS(0)
	if workers > opts.Replications {
		workers = opts.Replications
	}
	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				rep, err := e.runReplication(opts, i, nil)
				results[i] = rep
				errs[i] = err
			}
		}()
	}
	for i := 0; i < opts.Replications; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replication %d: %w", i, err)
		}
	}

	status := "ok"
	var allViolations ConstraintLog
	reps := make([]ReplicationResult, len(results))
	for i, r := range results {
		reps[i] = *r
		allViolations = append(allViolations, r.Violations...)
		if r.Failed {
			status = "failed"
		}
	}

	return &Result{
		Mode:         opts.Mode,
		Status:       status,
		Replications: reps,
		Summary:      summarizeReplications(results),
		Violations:   allViolations,
	}, nil
}

// runSensitivity perturbs each numeric param by ±SensitivityPercent (default
// 10%), reruns deterministically with the perturbed value held fixed, and
// records the half-difference of every variable's final value (spec.md
// §4.6).
func (e *Evaluator) runSensitivity(opts Options) (*Result, error) {
	pct := opts.SensitivityPercent
	if pct == 0 {
		pct = 0.10
	}
	base, err := e.runReplication(opts, 0, nil)
	if err != nil {
		return nil, err
	}

	var entries []SensitivityEntry
	for _, p := range e.params {
		baseCtx := &evalCtx{scope: NewScope(), rng: Split(opts.Seed, 0), t: 0, mode: ModeDeterministic, policies: e.policies}
		baseVal, err := baseCtx.eval(p.Default)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		if baseVal.Unit.Kind == units.Boolean || baseVal.Unit.Kind == units.String {
			continue // non-numeric params aren't perturbable
		}

		low := Num64(baseVal.Unit, baseVal.Num.Mul(decimal.NewFromFloat(1-pct)))
		high := Num64(baseVal.Unit, baseVal.Num.Mul(decimal.NewFromFloat(1+pct)))

		lowRep, err := e.runReplication(opts, 0, map[string]Value{p.Name: low})
		if err != nil {
			return nil, fmt.Errorf("param %s low perturbation: %w", p.Name, err)
		}
		highRep, err := e.runReplication(opts, 0, map[string]Value{p.Name: high})
		if err != nil {
			return nil, fmt.Errorf("param %s high perturbation: %w", p.Name, err)
		}

		lowFinal := finalValues(lowRep)
		highFinal := finalValues(highRep)
		halfDiff := make(map[string]float64, len(highFinal))
		for name, hv := range highFinal {
			halfDiff[name] = (hv - lowFinal[name]) / 2
		}
		entries = append(entries, SensitivityEntry{
			Param:     p.Name,
			BaseValue: baseVal.Float64(),
			Low:       lowFinal,
			High:      highFinal,
			HalfDiff:  halfDiff,
		})
	}

	status := "ok"
	if base.Failed {
		status = "failed"
	}
	return &Result{Mode: opts.Mode, Status: status, Variables: base.Variables, Sensitivity: entries, Violations: base.Violations}, nil
}

// runReplication resolves every Param (honoring overrides, used by
// sensitivity mode to hold a perturbed value fixed), then evaluates every
// Var in topological order for each t, checking constraints after each
// timestep.
func (e *Evaluator) runReplication(opts Options, replIndex int, overrides map[string]Value) (*ReplicationResult, error) {
	scope := NewScope()
	var rng *RNG
	if opts.Mode == ModeDeterministic || opts.Mode == ModeSensitivity {
		rng = Split(opts.Seed, 0)
	} else {
		rng = Split(opts.Seed, uint64(replIndex))
	}

	for _, p := range e.params {
		if v, ok := overrides[p.Name]; ok {
			scope.SetParam(p.Name, v)
			continue
		}
		ctx := &evalCtx{scope: scope, rng: rng, t: 0, mode: opts.Mode, policies: e.policies}
		v, err := ctx.eval(p.Default)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		scope.SetParam(p.Name, v)
	}

	var log ConstraintLog
	status := "ok"

timesteps:
	for t := 0; t < opts.Timesteps; t++ {
		for _, v := range e.order {
			ctx := &evalCtx{scope: scope, rng: rng, t: t, mode: opts.Mode, policies: e.policies}
			val, err := ctx.eval(v.Value)
			if err != nil {
				return nil, fmt.Errorf("var %s at t=%d: %w", v.Name, t, err)
			}
			scope.Append(v.Name, val)
		}
		for _, cdecl := range e.constraints {
			ctx := &evalCtx{scope: scope, rng: rng, t: t, mode: opts.Mode, policies: e.policies}
			val, err := ctx.eval(cdecl.Predicate)
			if err != nil {
				return nil, fmt.Errorf("constraint %s at t=%d: %w", cdecl.Name, t, err)
			}
			if val.Bool {
				continue
			}
			log.Add(Violation{
				Constraint:  cdecl.Name,
				T:           t,
				Replication: replIndex,
				Severity:    cdecl.Severity,
				Message:     cdecl.Message,
			})
			if isFailing(cdecl.Severity) {
				status = "failed"
			}
			if isFatal(cdecl.Severity) {
				break timesteps
			}
		}
	}

	vars := make(map[string][]float64, len(e.order))
	for _, v := range e.order {
		hist := scope.History(v.Name)
		series := make([]float64, len(hist))
		for i, val := range hist {
			series[i] = val.Float64()
		}
		vars[v.Name] = series
	}

	return &ReplicationResult{Index: replIndex, Variables: vars, Violations: log, Failed: status == "failed"}, nil
}

func finalValues(rep *ReplicationResult) map[string]float64 {
	out := make(map[string]float64, len(rep.Variables))
	for name, series := range rep.Variables {
		if len(series) > 0 {
			out[name] = series[len(series)-1]
		}
	}
	return out
}

func summarizeReplications(results []*ReplicationResult) map[string]MonteCarloSummary {
	if len(results) == 0 {
		return nil
	}
	names := make([]string, 0, len(results[0].Variables))
	for name := range results[0].Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]MonteCarloSummary, len(names))
	for _, name := range names {
		timesteps := len(results[0].Variables[name])
		mean := make([]float64, timesteps)
		p5 := make([]float64, timesteps)
		p50 := make([]float64, timesteps)
		p95 := make([]float64, timesteps)
		for t := 0; t < timesteps; t++ {
			samples := make([]float64, 0, len(results))
			for _, r := range results {
				series := r.Variables[name]
				if t < len(series) {
					samples = append(samples, series[t])
				}
			}
			sort.Float64s(samples)
			mean[t] = meanOf(samples)
			p5[t] = percentile(samples, 0.05)
			p50[t] = percentile(samples, 0.50)
			p95[t] = percentile(samples, 0.95)
		}
		out[name] = MonteCarloSummary{Mean: mean, P5: p5, P50: p50, P95: p95}
	}
	return out
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Round(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
