package builtins

import (
	"math"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"
)

// addable lists the kinds add concatenates or sums. All arguments share the
// call's kind.
var addable = types.New(types.Number, types.String, types.Array, types.Buffer)

var FuncAdd = function.New(
	func(args ...object.Value) object.Value {
		switch args[0].(type) {
		case object.Number:
			total := 0.0
			for _, a := range args {
				n, ok := a.(object.Number)
				if !ok {
					return nil
				}
				total += n.Value
			}
			return object.Number{Value: total}
		case object.String:
			var s string
			for _, a := range args {
				x, ok := a.(object.String)
				if !ok {
					return nil
				}
				s += x.Value
			}
			return object.String{Value: s}
		case object.Array:
			elements := []object.Value{}
			for _, a := range args {
				x, ok := a.(object.Array)
				if !ok {
					return nil
				}
				elements = append(elements, x.Elements...)
			}
			return object.Array{Elements: elements}
		case object.Buffer:
			buf := []byte{}
			for _, a := range args {
				x, ok := a.(object.Buffer)
				if !ok {
					return nil
				}
				buf = append(buf, x.Value...)
			}
			return object.Buffer{Value: buf}
		}
		return nil
	},
	addable, []types.Type{addable},
	function.Arity(2, function.Variadic),
)

func arithmetic(op func(a, b float64) float64) *function.Definition {
	return function.New(
		func(args ...object.Value) object.Value {
			return object.Number{Value: op(toNumber(args[0]), toNumber(args[1]))}
		},
		types.TypeNumber, []types.Type{types.TypeNumber, types.TypeNumber},
		function.Arity(2, 2),
	)
}

var (
	FuncSub = arithmetic(func(a, b float64) float64 { return a - b })
	FuncMul = arithmetic(func(a, b float64) float64 { return a * b })
	FuncDiv = arithmetic(func(a, b float64) float64 { return a / b })
	FuncPct = arithmetic(math.Mod)
	FuncPow = arithmetic(math.Pow)
)

var FuncNeg = function.New(
	func(args ...object.Value) object.Value {
		return object.Number{Value: -toNumber(args[0])}
	},
	types.TypeNumber, []types.Type{types.TypeNumber},
)

// numbers collects the numeric values of possibly nested array arguments.
// Non-numeric entries are skipped.
func numbers(args []object.Value) []float64 {
	var out []float64
	for _, v := range flatten(args) {
		if n, ok := v.(object.Number); ok {
			out = append(out, n.Value)
		}
	}
	return out
}

func aggregate(reduce func([]float64) float64) *function.Definition {
	return function.New(
		func(args ...object.Value) object.Value {
			return object.Number{Value: reduce(numbers(args))}
		},
		types.TypeNumber, []types.Type{types.NumberOrArray},
		function.Arity(1, function.Variadic), function.Inference(types.OrKind(types.Array)),
	)
}

var FuncSum = aggregate(func(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
})

var FuncMin = aggregate(func(values []float64) float64 {
	result := math.Inf(1)
	for _, v := range values {
		result = math.Min(result, v)
	}
	return result
})

var FuncMax = aggregate(func(values []float64) float64 {
	result := math.Inf(-1)
	for _, v := range values {
		result = math.Max(result, v)
	}
	return result
})

// maxRange bounds the arrays range builds.
const maxRange = 1 << 20

// maxSafeInteger is the largest magnitude a float64 holds without losing
// integer precision.
const maxSafeInteger = 1 << 53

// FuncRange lists the integers from the first argument up to, but excluding,
// the second. A descending pair counts down.
var FuncRange = function.New(
	func(args ...object.Value) object.Value {
		from, to := toNumber(args[0]), toNumber(args[1])
		if math.IsNaN(from) || math.IsNaN(to) || math.Abs(math.Trunc(to)-math.Trunc(from)) > maxRange ||
			math.Abs(from) > maxSafeInteger || math.Abs(to) > maxSafeInteger {
			return nil
		}
		start, end := int(math.Trunc(from)), int(math.Trunc(to))
		step := 1
		if end < start {
			step = -1
		}
		count := (end - start) * step
		if count > maxRange {
			return nil
		}
		elements := make([]object.Value, 0, count)
		for i := start; i != end; i += step {
			elements = append(elements, object.Number{Value: float64(i)})
		}
		return object.Array{Elements: elements}
	},
	types.TypeArray, []types.Type{types.TypeNumber, types.TypeNumber},
	function.Arity(2, 2), independent,
)
