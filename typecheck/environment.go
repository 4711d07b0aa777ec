package typecheck

import (
	"maps"

	"github.com/pel-lang/pel/units"
)

// Environment tracks name -> unit bindings during type checking. Grounded
// on go-calcmark's spec/semantic.Environment, retargeted from types.Type to
// units.U.
type Environment struct {
	vars map[string]units.U
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]units.U)}
}

// Set stores a name's unit binding.
func (e *Environment) Set(name string, u units.U) {
	e.vars[name] = u
}

// Get retrieves a name's unit binding.
func (e *Environment) Get(name string) (units.U, bool) {
	u, ok := e.vars[name]
	return u, ok
}

// Has reports whether a name is bound.
func (e *Environment) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Clone returns a shallow copy, used to check policy bodies in an isolated
// scope that also sees outer bindings.
func (e *Environment) Clone() *Environment {
	out := &Environment{vars: make(map[string]units.U, len(e.vars))}
	maps.Copy(out.vars, e.vars)
	return out
}
