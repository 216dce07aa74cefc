package builtins

import (
	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

var FuncNot = function.New(
	func(args ...object.Value) object.Value {
		return object.NativeBoolToBooleanObject(!object.Truthy(args[0]))
	},
	types.TypeBoolean, []types.Type{types.TypeBoolean},
)

var FuncAnd = function.New(
	func(args ...object.Value) object.Value {
		for _, v := range flatten(args) {
			if !object.Truthy(v) {
				return object.FALSE
			}
		}
		return object.TRUE
	},
	types.TypeBoolean, []types.Type{types.BooleanOrArray},
	function.Arity(2, function.Variadic), function.Inference(types.OrKind(types.Array)),
)

var FuncOr = function.New(
	func(args ...object.Value) object.Value {
		for _, v := range flatten(args) {
			if object.Truthy(v) {
				return object.TRUE
			}
		}
		return object.FALSE
	},
	types.TypeBoolean, []types.Type{types.BooleanOrArray},
	function.Arity(2, function.Variadic), function.Inference(types.OrKind(types.Array)),
)

var orderable = types.New(types.Number, types.String)

// compare orders two numbers or two strings. ok is false for any other pair.
func compare(a, b object.Value) (int, bool) {
	switch x := a.(type) {
	case object.Number:
		y, ok := b.(object.Number)
		if !ok || x.Value != x.Value || y.Value != y.Value {
			return 0, false
		}
		switch {
		case x.Value < y.Value:
			return -1, true
		case x.Value > y.Value:
			return 1, true
		}
		return 0, true
	case object.String:
		y, ok := b.(object.String)
		if !ok {
			return 0, false
		}
		switch {
		case x.Value < y.Value:
			return -1, true
		case x.Value > y.Value:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func comparison(test func(int) bool) *function.Definition {
	return function.New(
		func(args ...object.Value) object.Value {
			c, ok := compare(args[0], args[1])
			return object.NativeBoolToBooleanObject(ok && test(c))
		},
		types.TypeBoolean, []types.Type{orderable, orderable},
		function.Arity(2, 2), independent,
	)
}

var (
	FuncGt = comparison(func(c int) bool { return c > 0 })
	FuncLt = comparison(func(c int) bool { return c < 0 })
	FuncGe = comparison(func(c int) bool { return c >= 0 })
	FuncLe = comparison(func(c int) bool { return c <= 0 })
)

var FuncEqual = function.New(
	func(args ...object.Value) object.Value {
		return object.NativeBoolToBooleanObject(object.Equal(args[0], args[1]))
	},
	types.TypeBoolean, []types.Type{types.Unknown, types.Unknown},
	function.Arity(2, 2), independent,
)

var FuncNotEqual = function.New(
	func(args ...object.Value) object.Value {
		return object.NativeBoolToBooleanObject(!object.Equal(args[0], args[1]))
	},
	types.TypeBoolean, []types.Type{types.Unknown, types.Unknown},
	function.Arity(2, 2), independent,
)

// alike is equality with strings compared under Unicode case folding.
func alike(a, b object.Value) bool {
	x, xok := a.(object.String)
	y, yok := b.(object.String)
	if xok && yok {
		return fold.String(x.Value) == fold.String(y.Value)
	}
	return object.Equal(a, b)
}

var FuncLike = function.New(
	func(args ...object.Value) object.Value {
		return object.NativeBoolToBooleanObject(alike(args[0], args[1]))
	},
	types.TypeBoolean, []types.Type{types.Unknown, types.Unknown},
	function.Arity(2, 2), independent,
)

var FuncNotLike = function.New(
	func(args ...object.Value) object.Value {
		return object.NativeBoolToBooleanObject(!alike(args[0], args[1]))
	},
	types.TypeBoolean, []types.Type{types.Unknown, types.Unknown},
	function.Arity(2, 2), independent,
)

// FuncNullco returns its first argument unless it is void. The first position
// additionally admits void; both take the kind of the call.
var FuncNullco = function.New(
	func(args ...object.Value) object.Value {
		if _, isVoid := args[0].(object.Void); isVoid {
			return args[1]
		}
		return args[0]
	},
	types.Unknown, []types.Type{types.Unknown, types.Unknown},
	function.Arity(2, 2), function.Inference(types.OrKind(types.Void), nil),
)

// FuncIfThenElse picks a branch. Both branches take the kind of the call; the
// condition is always boolean.
var FuncIfThenElse = function.New(
	func(args ...object.Value) object.Value {
		if object.Truthy(args[0]) {
			return args[1]
		}
		return args[2]
	},
	types.Unknown, []types.Type{types.TypeBoolean, types.Unknown},
	function.Arity(3, 3), function.Inference(types.Always, nil),
)
