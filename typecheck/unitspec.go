package typecheck

import (
	"fmt"

	"github.com/pel-lang/pel/ast"
	"github.com/pel-lang/pel/units"
)

// ResolveUnitSpec converts a parsed ast.UnitSpec type annotation into a
// units.U, resolving element types for container kinds recursively.
func ResolveUnitSpec(spec ast.UnitSpec) (units.U, error) {
	switch spec.Kind {
	case "Fraction":
		return units.Frac(), nil
	case "Boolean":
		return units.Boo(), nil
	case "String":
		return units.Str(), nil
	case "Currency":
		if spec.Dim == "" {
			return units.U{}, fmt.Errorf("Currency requires a <code>, e.g. Currency<USD>")
		}
		return units.Curr(spec.Dim), nil
	case "Count":
		if spec.Dim == "" {
			return units.U{}, fmt.Errorf("Count requires a <noun>, e.g. Count<Customer>")
		}
		return units.Cnt(spec.Dim), nil
	case "Duration":
		if spec.Dim == "" {
			return units.U{}, fmt.Errorf("Duration requires 'in <word>', e.g. Duration in Month")
		}
		return units.Dur(spec.Dim), nil
	case "Capacity":
		if spec.Dim == "" {
			return units.U{}, fmt.Errorf("Capacity requires a <unit>, e.g. Capacity<GB>")
		}
		if !units.IsCapacityUnit(spec.Dim) {
			return units.U{}, fmt.Errorf("unknown capacity unit %q", spec.Dim)
		}
		return units.CapUnit(), nil
	case "Rate":
		if len(spec.PerKeys) == 0 {
			return units.U{}, fmt.Errorf("Rate requires a 'per <word>' phrase")
		}
		dims := map[string]int{}
		for _, k := range spec.PerKeys {
			dims[k]--
		}
		return units.U{Kind: units.Rate, Dims: dims, Under: units.WildcardUnder}, nil
	case "TimeSeries", "Distribution", "Array":
		if spec.Elem == nil {
			return units.U{}, fmt.Errorf("%s requires an element type", spec.Kind)
		}
		elem, err := ResolveUnitSpec(*spec.Elem)
		if err != nil {
			return units.U{}, err
		}
		switch spec.Kind {
		case "TimeSeries":
			return units.Series(elem), nil
		case "Distribution":
			return units.Distr(elem), nil
		default:
			return units.Arr(elem), nil
		}
	default:
		return units.U{}, fmt.Errorf("unknown type name %q", spec.Kind)
	}
}
