package object

import (
	"encoding/hex"
	"fmt"
	"math"
	"time"
)

// FromNative converts decoded JSON, SQL scan results and other plain Go values
// into expression values.
func FromNative(v any) Value {
	switch x := v.(type) {
	case nil:
		return NIL
	case Value:
		return x
	case bool:
		return NativeBoolToBooleanObject(x)
	case float64:
		return Number{Value: x}
	case float32:
		return Number{Value: float64(x)}
	case int:
		return Number{Value: float64(x)}
	case int32:
		return Number{Value: float64(x)}
	case int64:
		return Number{Value: float64(x)}
	case uint64:
		return Number{Value: float64(x)}
	case string:
		return String{Value: x}
	case []byte:
		return Buffer{Value: append([]byte(nil), x...)}
	case time.Time:
		return Number{Value: float64(x.UnixMilli())}
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = FromNative(e)
		}
		return Array{Elements: elems}
	case map[string]any:
		pairs := make(map[string]Value, len(x))
		for k, e := range x {
			pairs[k] = FromNative(e)
		}
		return Object{Pairs: pairs}
	}
	return String{Value: fmt.Sprintf("%v", v)}
}

// ToNative converts a value into plain Go data suitable for JSON encoding.
// Buffers become hex strings; functions and non-finite numbers become nil.
func ToNative(v Value) any {
	switch x := v.(type) {
	case Boolean:
		return x.Value
	case Number:
		if math.IsNaN(x.Value) || math.IsInf(x.Value, 0) {
			return nil
		}
		return x.Value
	case String:
		return x.Value
	case Buffer:
		return hex.EncodeToString(x.Value)
	case Array:
		out := make([]any, len(x.Elements))
		for i, e := range x.Elements {
			out[i] = ToNative(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(x.Pairs))
		for k, e := range x.Pairs {
			out[k] = ToNative(e)
		}
		return out
	}
	return nil
}
