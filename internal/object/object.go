package object

import (
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"

	"formula/internal/types"
)

// Value is the runtime result of evaluating a node. The set of implementations
// is closed: one per types.Kind.
type Value interface {
	Kind() types.Kind
	Inspect() string
	value()
}

type Void struct{}

func (Void) Kind() types.Kind { return types.Void }
func (Void) Inspect() string  { return "null" }
func (Void) value()           {}

type Boolean struct {
	Value bool
}

func (Boolean) Kind() types.Kind  { return types.Boolean }
func (b Boolean) Inspect() string { return strconv.FormatBool(b.Value) }
func (Boolean) value()            {}

type Number struct {
	Value float64
}

func (Number) Kind() types.Kind  { return types.Number }
func (n Number) Inspect() string { return FormatNumber(n.Value) }
func (Number) value()            {}

type String struct {
	Value string
}

func (String) Kind() types.Kind  { return types.String }
func (s String) Inspect() string { return strconv.Quote(s.Value) }
func (String) value()            {}

type Array struct {
	Elements []Value
}

func (Array) Kind() types.Kind { return types.Array }
func (a Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (Array) value() {}

type Object struct {
	Pairs map[string]Value
}

func (Object) Kind() types.Kind { return types.Object }

// Inspect prints keys in sorted order so output is stable.
func (o Object) Inspect() string {
	keys := o.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Quote(k) + ": " + o.Pairs[k].Inspect()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (Object) value() {}

func (o Object) Keys() []string {
	keys := make([]string, 0, len(o.Pairs))
	for k := range o.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key, or NIL when absent.
func (o Object) Get(key string) Value {
	if v, ok := o.Pairs[key]; ok && v != nil {
		return v
	}
	return NIL
}

// Function is an opaque callable value.
type Function struct {
	Name string
	Fn   func(args ...Value) Value
}

func (Function) Kind() types.Kind { return types.Function }
func (f Function) Inspect() string {
	if f.Name == "" {
		return "<function>"
	}
	return "<function " + f.Name + ">"
}
func (Function) value() {}

type Buffer struct {
	Value []byte
}

func (Buffer) Kind() types.Kind  { return types.Buffer }
func (b Buffer) Inspect() string { return `0x"` + hex.EncodeToString(b.Value) + `"` }
func (Buffer) value()            {}

var (
	NIL   = Void{}
	TRUE  = Boolean{Value: true}
	FALSE = Boolean{Value: false}
)

func NativeBoolToBooleanObject(b bool) Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// TypeOf returns the exact type of a value.
func TypeOf(v Value) types.Type {
	if v == nil {
		return types.TypeVoid
	}
	return types.New(v.Kind())
}

// FormatNumber renders a number the way the expression language prints it:
// integers without a fraction, NaN and the infinities by name.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21 || (f != 0 && math.Abs(f) < 1e-6):
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
