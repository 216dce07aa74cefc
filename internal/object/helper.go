package object

import (
	"bytes"
	"math"

	"formula/internal/types"
)

// Equal compares two values structurally. Primitives compare by value, arrays
// pairwise, objects over the union of both key sets with a missing key
// standing in for void. Functions are equal only to themselves, which Go can
// not observe, so two function values are never equal.
func Equal(a, b Value) bool {
	if a == nil {
		a = NIL
	}
	if b == nil {
		b = NIL
	}
	switch x := a.(type) {
	case Void:
		_, ok := b.(Void)
		return ok
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x.Value == y.Value
	case Number:
		y, ok := b.(Number)
		return ok && x.Value == y.Value
	case String:
		y, ok := b.(String)
		return ok && x.Value == y.Value
	case Buffer:
		y, ok := b.(Buffer)
		return ok && bytes.Equal(x.Value, y.Value)
	case Array:
		y, ok := b.(Array)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !Equal(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok {
			return false
		}
		for k, v := range x.Pairs {
			if !Equal(v, y.Get(k)) {
				return false
			}
		}
		for k, v := range y.Pairs {
			if _, seen := x.Pairs[k]; !seen && !Equal(NIL, v) {
				return false
			}
		}
		return true
	case Function:
		return false
	}
	return false
}

// Zero returns the sentinel a node of type t produces when a built-in cannot
// compute a proper result: void when t admits it, otherwise the empty value of
// the lowest admitted kind (NaN for numbers).
func Zero(t types.Type) Value {
	if t.Has(types.Void) || t.Empty() {
		return NIL
	}
	switch t.Kinds()[0] {
	case types.Boolean:
		return FALSE
	case types.Number:
		return Number{Value: math.NaN()}
	case types.String:
		return String{}
	case types.Array:
		return Array{Elements: []Value{}}
	case types.Object:
		return Object{Pairs: map[string]Value{}}
	case types.Function:
		return Function{Name: "void", Fn: func(...Value) Value { return NIL }}
	case types.Buffer:
		return Buffer{Value: []byte{}}
	}
	return NIL
}

// Conform returns v when its kind is admitted by t and Zero(t) otherwise.
func Conform(v Value, t types.Type) Value {
	if v == nil {
		v = NIL
	}
	if t.Has(v.Kind()) {
		return v
	}
	return Zero(t)
}

// Truthy reports the boolean reading of a value.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Boolean:
		return x.Value
	case Number:
		return x.Value != 0 && !math.IsNaN(x.Value)
	case String:
		return x.Value != ""
	case Void, nil:
		return false
	}
	return true
}
