package builtins

import (
	"crypto/rand"
	"math"
	mrand "math/rand/v2"
	"time"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"
)

// maxRandomLength bounds the buffers and strings the random functions build.
const maxRandomLength = 1 << 16

const randomAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// clock is swapped in tests.
var clock = time.Now

func millis(t time.Time) float64 { return float64(t.UnixMilli()) }

var FuncNow = function.New(
	func(...object.Value) object.Value {
		return object.Number{Value: millis(clock())}
	},
	types.TypeNumber, nil,
	function.Arity(0, 0), function.Unfoldable(),
)

func length(v object.Value) (int, bool) {
	n := toNumber(v)
	if math.IsNaN(n) || n < 0 || n > maxRandomLength {
		return 0, false
	}
	return int(n), true
}

// FuncRandomNumber returns a number in [0, n), or [0, 1) without argument.
var FuncRandomNumber = function.New(
	func(args ...object.Value) object.Value {
		scale, ok := optionalNumber(args, 0)
		if !ok {
			scale = 1
		}
		return object.Number{Value: mrand.Float64() * scale}
	},
	types.TypeNumber, []types.Type{types.OptionalNumber},
	function.Arity(0, 1), independent, function.Unfoldable(),
)

// FuncRandomInteger returns an integer in [0, n).
var FuncRandomInteger = function.New(
	func(args ...object.Value) object.Value {
		n := math.Trunc(toNumber(args[0]))
		if math.IsNaN(n) || n < 1 || n > maxSafeInteger {
			return nil
		}
		return object.Number{Value: float64(mrand.Int64N(int64(n)))}
	},
	types.TypeNumber, []types.Type{types.TypeNumber},
	function.Unfoldable(),
)

var FuncRandomBuffer = function.New(
	func(args ...object.Value) object.Value {
		n, ok := length(args[0])
		if !ok {
			return nil
		}
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			return nil
		}
		return object.Buffer{Value: buf}
	},
	types.TypeBuffer, []types.Type{types.TypeNumber},
	independent, function.Unfoldable(),
)

// FuncRandomString returns n characters drawn from digits and lower case
// letters.
var FuncRandomString = function.New(
	func(args ...object.Value) object.Value {
		n, ok := length(args[0])
		if !ok {
			return nil
		}
		out := make([]byte, n)
		for i := range out {
			out[i] = randomAlphabet[mrand.IntN(len(randomAlphabet))]
		}
		return object.String{Value: string(out)}
	},
	types.TypeString, []types.Type{types.TypeNumber},
	independent, function.Unfoldable(),
)
