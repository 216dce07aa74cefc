package builtins

import (
	"math"
	"unicode/utf8"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"
)

var (
	indexable = types.New(types.Array, types.String, types.Buffer, types.Object)
	key       = types.New(types.Number, types.String)
)

// index resolves a possibly negative position against a length.
func index(v object.Value, length int) (int, bool) {
	n, ok := v.(object.Number)
	if !ok || n.Value != math.Trunc(n.Value) || math.Abs(n.Value) > float64(length) {
		return 0, false
	}
	i := int(n.Value)
	if i < 0 {
		i += length
	}
	return i, i >= 0 && i < length
}

// FuncAt reads an element by position or key. Arrays and strings accept
// negative positions counted from the end; buffers yield byte values.
var FuncAt = function.New(
	func(args ...object.Value) object.Value {
		switch c := args[0].(type) {
		case object.Array:
			if i, ok := index(args[1], len(c.Elements)); ok {
				return c.Elements[i]
			}
		case object.String:
			runes := []rune(c.Value)
			if i, ok := index(args[1], len(runes)); ok {
				return object.String{Value: string(runes[i])}
			}
		case object.Buffer:
			if i, ok := index(args[1], len(c.Value)); ok {
				return object.Number{Value: float64(c.Value[i])}
			}
		case object.Object:
			if k, ok := toString(args[1]); ok {
				return c.Get(k)
			}
		}
		return object.NIL
	},
	types.Unknown, []types.Type{indexable, key},
	function.Arity(2, 2), independent,
)

// FuncBy reads an object member by name.
var FuncBy = function.New(
	func(args ...object.Value) object.Value {
		o, ok := args[0].(object.Object)
		if !ok {
			return object.NIL
		}
		k, _ := toString(args[1])
		return o.Get(k)
	},
	types.Unknown, []types.Type{types.TypeObject, types.TypeString},
	function.Arity(2, 2), independent,
)

var FuncLen = function.New(
	func(args ...object.Value) object.Value {
		switch c := args[0].(type) {
		case object.Array:
			return object.Number{Value: float64(len(c.Elements))}
		case object.String:
			return object.Number{Value: float64(utf8.RuneCountInString(c.Value))}
		case object.Buffer:
			return object.Number{Value: float64(len(c.Value))}
		case object.Object:
			return object.Number{Value: float64(len(c.Pairs))}
		}
		return nil
	},
	types.TypeNumber, []types.Type{indexable},
	independent,
)

// FuncChain concatenates its arguments into one flat array.
var FuncChain = function.New(
	func(args ...object.Value) object.Value {
		return object.Array{Elements: flatten(args)}
	},
	types.TypeArray, []types.Type{types.Unknown},
	function.Arity(1, function.Variadic), independent,
)

// FuncMerge combines objects, later members overriding earlier ones. Arrays of
// objects are merged in order.
var FuncMerge = function.New(
	func(args ...object.Value) object.Value {
		pairs := map[string]object.Value{}
		for _, v := range flatten(args) {
			if o, ok := v.(object.Object); ok {
				for k, member := range o.Pairs {
					pairs[k] = member
				}
			}
		}
		return object.Object{Pairs: pairs}
	},
	types.TypeObject, []types.Type{types.ArrayOrObject},
	function.Arity(1, function.Variadic), function.Inference(types.OrKind(types.Array)),
)

// FuncArray builds an array literal from its arguments.
var FuncArray = function.New(
	func(args ...object.Value) object.Value {
		elements := make([]object.Value, len(args))
		copy(elements, args)
		return object.Array{Elements: elements}
	},
	types.TypeArray, []types.Type{types.Unknown},
	function.Arity(0, function.Variadic), independent,
)

// FuncKey converts a computed object key to its string form.
var FuncKey = function.New(
	func(args ...object.Value) object.Value {
		if n, ok := args[0].(object.Number); ok {
			return object.String{Value: object.FormatNumber(n.Value)}
		}
		return args[0]
	},
	types.TypeString, []types.Type{key},
	independent,
)

// FuncObject builds an object literal from alternating keys and values. Keys
// are strings; the parser passes computed keys through key.
var FuncObject = function.New(
	func(args ...object.Value) object.Value {
		pairs := make(map[string]object.Value, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			k, ok := toString(args[i])
			if !ok {
				return nil
			}
			pairs[k] = args[i+1]
		}
		return object.Object{Pairs: pairs}
	},
	types.TypeObject, []types.Type{types.TypeString, types.Unknown},
	function.Arity(0, function.Variadic), independent,
)
