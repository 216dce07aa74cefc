package builtins

import (
	"math"
	"sort"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"
)

// independent marks every argument position as not depending on the call's
// resolved return type.
var independent = function.Inference(types.Always)

// Functions is the table of callable names available to expressions.
var Functions = map[string]*function.Definition{
	// logic and comparison
	"not":      FuncNot,
	"and":      FuncAnd,
	"or":       FuncOr,
	"gt":       FuncGt,
	"lt":       FuncLt,
	"ge":       FuncGe,
	"le":       FuncLe,
	"equal":    FuncEqual,
	"notEqual": FuncNotEqual,
	"like":     FuncLike,
	"notLike":  FuncNotLike,
	"nullco":   FuncNullco,
	"if":       FuncIfThenElse,

	// math
	"add":   FuncAdd,
	"sub":   FuncSub,
	"neg":   FuncNeg,
	"mul":   FuncMul,
	"div":   FuncDiv,
	"pct":   FuncPct,
	"pow":   FuncPow,
	"sum":   FuncSum,
	"min":   FuncMin,
	"max":   FuncMax,
	"range": FuncRange,

	// access and collections
	"at":    FuncAt,
	"by":    FuncBy,
	"len":   FuncLen,
	"chain": FuncChain,
	"merge": FuncMerge,

	// nondeterministic
	"now":           FuncNow,
	"random":        FuncRandomNumber,
	"randomInteger": FuncRandomInteger,
	"randomBuffer":  FuncRandomBuffer,
	"randomString":  FuncRandomString,

	// time
	"toUniversalTime":             FuncToUniversalTime,
	"fromUniversalTime":           FuncFromUniversalTime,
	"toLocalTime":                 FuncToLocalTime,
	"fromLocalTime":               FuncFromLocalTime,
	"toUniversalTimeMonthIndex":   FuncToUniversalTimeMonthIndex,
	"toLocalTimeMonthIndex":       FuncToLocalTimeMonthIndex,
	"toUniversalTimeWeekdayIndex": FuncToUniversalTimeWeekdayIndex,
	"toLocalTimeWeekdayIndex":     FuncToLocalTimeWeekdayIndex,
	"toTimeString":                FuncToTimeString,
	"fromTimeString":              FuncFromTimeString,

	// encodings
	"toNumberBuffer":   FuncToNumberBuffer,
	"fromNumberBuffer": FuncFromNumberBuffer,
	"toStringBuffer":   FuncToStringBuffer,
	"fromStringBuffer": FuncFromStringBuffer,
	"toNumberString":   FuncToNumberString,
	"fromNumberString": FuncFromNumberString,
	"toBufferString":   FuncToBufferString,
	"fromBufferString": FuncFromBufferString,
	"toJsonString":     FuncToJsonString,
	"fromJsonString":   FuncFromJsonString,
	"digest":           FuncDigest,
}

// Lookup finds a function by name.
func Lookup(name string) (*function.Definition, bool) {
	fn, ok := Functions[name]
	return fn, ok
}

// Names lists the function table in sorted order.
func Names() []string {
	names := make([]string, 0, len(Functions))
	for name := range Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toNumber(v object.Value) float64 {
	if n, ok := v.(object.Number); ok {
		return n.Value
	}
	return math.NaN()
}

func toString(v object.Value) (string, bool) {
	s, ok := v.(object.String)
	return s.Value, ok
}

// optionalString reads an optional string argument, using def for void or
// missing positions.
func optionalString(args []object.Value, i int, def string) string {
	if i < len(args) {
		if s, ok := toString(args[i]); ok {
			return s
		}
	}
	return def
}

// optionalNumber reads an optional numeric argument.
func optionalNumber(args []object.Value, i int) (float64, bool) {
	if i < len(args) {
		if n, ok := args[i].(object.Number); ok {
			return n.Value, true
		}
	}
	return 0, false
}

// flatten expands nested arrays into one list, depth first.
func flatten(values []object.Value) []object.Value {
	out := make([]object.Value, 0, len(values))
	for _, v := range values {
		if a, ok := v.(object.Array); ok {
			out = append(out, flatten(a.Elements)...)
			continue
		}
		out = append(out, v)
	}
	return out
}
