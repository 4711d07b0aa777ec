package runtime

import "fmt"

// Scope holds one replication's bindings: resolved Param values (constant
// across timesteps within a replication) and each Var's history of
// per-timestep values, so a recurrence like `s[t-1]` can look backward.
// Grounded on go-calcmark's evaluator.Context{Variables}, generalized from
// a flat map to a time-indexed one.
type Scope struct {
	Params  map[string]Value
	history map[string][]Value
}

// NewScope creates an empty Scope.
func NewScope() *Scope {
	return &Scope{Params: map[string]Value{}, history: map[string][]Value{}}
}

// SetParam binds a Param's resolved value for the current replication.
func (s *Scope) SetParam(name string, v Value) {
	s.Params[name] = v
}

// Append pushes var name's value for the current (latest) timestep.
func (s *Scope) Append(name string, v Value) {
	s.history[name] = append(s.history[name], v)
}

// History returns the full recorded sequence for name.
func (s *Scope) History(name string) []Value {
	return s.history[name]
}

// At resolves `name[t-offset]`. t is the index of the timestep currently
// being evaluated; offset 0 means the value just appended this timestep
// (for VarDecls evaluating their own lag chain, `t` refers to the
// in-progress step, so offset 0 is only valid for Params/finished vars).
//
// Per spec.md §4.6, `name[t']` for t' < 0 returns the base value at 0
// instead of erroring; well-formed recurrences only reach this branch when
// t is itself 0 and the base clause was written without an `if t == 0`
// guard that would otherwise have short-circuited the lag reference.
func (s *Scope) At(name string, t, offset int) (Value, error) {
	idx := t - offset
	if idx < 0 {
		idx = 0
	}
	hist := s.history[name]
	if idx >= len(hist) {
		if v, ok := s.Params[name]; ok {
			return v, nil
		}
		return Value{}, fmt.Errorf("%s[t-%d] not yet computed at t=%d", name, offset, t)
	}
	return hist[idx], nil
}

// Resolve looks up a bare identifier: first the current replication's
// latest recorded history entry for a Var, then a Param constant.
func (s *Scope) Resolve(name string) (Value, bool) {
	if hist := s.history[name]; len(hist) > 0 {
		return hist[len(hist)-1], true
	}
	if v, ok := s.Params[name]; ok {
		return v, true
	}
	return Value{}, false
}
