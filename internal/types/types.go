package types

import (
	"fmt"
	"strings"
)

// Kind is one tag of the fixed value universe. The order of the constants is the
// order kinds are listed in when a Type is printed.
type Kind uint8

const (
	Void Kind = iota
	Boolean
	Number
	String
	Array
	Object
	Function
	Buffer

	kindCount
)

var kindNames = [...]string{"void", "boolean", "number", "string", "array", "object", "function", "buffer"}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// KindByName resolves the printed name of a kind.
func KindByName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Type is a set of admissible kinds, stored as a bitset indexed by Kind.
// The zero Type is empty and only ever appears as the "no match" result of
// inference; constructors never return it.
type Type struct {
	bits uint16
}

const universe = uint16(1)<<kindCount - 1

// New builds a type over the given kinds. With no kinds it returns Unknown.
func New(kinds ...Kind) Type {
	if len(kinds) == 0 {
		return Type{bits: universe}
	}
	var t Type
	for _, k := range kinds {
		t.bits |= 1 << k
	}
	return t
}

// Parse reads the printed form of a type, e.g. "number|void". "unknown" and
// "any" name the full universe.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "unknown", "any", "variant", "":
		return Unknown, nil
	case "json":
		return Json, nil
	}
	var kinds []Kind
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if k, ok := KindByName(part); ok {
			kinds = append(kinds, k)
			continue
		}
		return Type{}, fmt.Errorf("unknown type name %q", part)
	}
	return New(kinds...), nil
}

func (t Type) Has(k Kind) bool {
	return k < kindCount && t.bits&(1<<k) != 0
}

func (t Type) Empty() bool { return t.bits == 0 }

// Exact reports whether the type admits exactly one kind.
func (t Type) Exact() bool {
	return t.bits != 0 && t.bits&(t.bits-1) == 0
}

func (t Type) IsUnknown() bool { return t.bits == universe }

func (t Type) is(k Kind) bool { return t.bits == 1<<k }

func (t Type) IsVoid() bool     { return t.is(Void) }
func (t Type) IsBoolean() bool  { return t.is(Boolean) }
func (t Type) IsNumber() bool   { return t.is(Number) }
func (t Type) IsString() bool   { return t.is(String) }
func (t Type) IsArray() bool    { return t.is(Array) }
func (t Type) IsObject() bool   { return t.is(Object) }
func (t Type) IsFunction() bool { return t.is(Function) }
func (t Type) IsBuffer() bool   { return t.is(Buffer) }

// Kinds lists the admitted kinds in universe order.
func (t Type) Kinds() []Kind {
	var out []Kind
	for k := Kind(0); k < kindCount; k++ {
		if t.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (t Type) Union(o Type) Type { return Type{bits: t.bits | o.bits} }

// Optional admits void in addition to the kinds of t.
func (t Type) Optional() Type { return Type{bits: t.bits | 1<<Void} }

func (t Type) Equals(o Type) bool { return t.bits == o.bits }

// Predicate decides whether a candidate kind s is compatible with a mask kind m.
type Predicate func(s, m Kind) bool

// Equal is the default predicate: plain kind equality.
func Equal(s, m Kind) bool { return s == m }

// Always accepts every pairing, for argument positions that do not depend on
// the resolved return type of their call.
func Always(s, m Kind) bool { return true }

// OrKind accepts equal kinds and, in addition, any candidate of kind k.
func OrKind(k Kind) Predicate {
	return func(s, m Kind) bool { return s == m || s == k }
}

// Infer keeps the kinds s of t for which some kind m of mask satisfies
// pred(s, m). A nil pred means Equal. The boolean is false when nothing is
// left, which is the type error signal. Inferring against Unknown is the
// identity.
func (t Type) Infer(mask Type, pred Predicate) (Type, bool) {
	if mask.IsUnknown() {
		return t, !t.Empty()
	}
	if pred == nil {
		r := Type{bits: t.bits & mask.bits}
		return r, !r.Empty()
	}
	var r Type
	for s := Kind(0); s < kindCount; s++ {
		if !t.Has(s) {
			continue
		}
		for m := Kind(0); m < kindCount; m++ {
			if mask.Has(m) && pred(s, m) {
				r.bits |= 1 << s
				break
			}
		}
	}
	return r, !r.Empty()
}

func (t Type) String() string {
	if t.Empty() {
		return "never"
	}
	names := make([]string, 0, kindCount)
	for _, k := range t.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, "|")
}

var (
	Unknown = New()

	TypeVoid     = New(Void)
	TypeBoolean  = New(Boolean)
	TypeNumber   = New(Number)
	TypeString   = New(String)
	TypeArray    = New(Array)
	TypeObject   = New(Object)
	TypeFunction = New(Function)
	TypeBuffer   = New(Buffer)

	OptionalBoolean  = TypeBoolean.Optional()
	OptionalNumber   = TypeNumber.Optional()
	OptionalString   = TypeString.Optional()
	OptionalArray    = TypeArray.Optional()
	OptionalObject   = TypeObject.Optional()
	OptionalFunction = TypeFunction.Optional()
	OptionalBuffer   = TypeBuffer.Optional()

	BooleanOrArray = New(Boolean, Array)
	NumberOrArray  = New(Number, Array)
	ArrayOrObject  = New(Array, Object)

	// Json covers every kind that survives a JSON round trip.
	Json = New(Void, Boolean, Number, String, Array, Object)
)
