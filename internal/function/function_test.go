package function

import (
	"testing"

	"formula/internal/object"
	"formula/internal/types"
)

func identity(args ...object.Value) object.Value { return args[0] }

// The default arity of [1, 1] is an assumption carried over from how the
// catalog declares single-argument functions; multi-argument functions must
// say so explicitly.
func TestDefaultsAssumeExactlyOneArgument(t *testing.T) {
	d := New(identity, types.TypeNumber, []types.Type{types.TypeNumber})
	if d.MinArity() != 1 || d.MaxArity() != 1 {
		t.Fatalf("default arity = [%d, %d], want [1, 1]", d.MinArity(), d.MaxArity())
	}
	if !d.Foldable() {
		t.Errorf("definitions are foldable by default")
	}
	if d.Predicate(0) != nil {
		t.Errorf("default predicate should be nil (equality)")
	}
	if d.AcceptsArity(0) || !d.AcceptsArity(1) || d.AcceptsArity(2) {
		t.Errorf("arity check disagrees with [1, 1]")
	}
}

func TestArgTypeReusesLastEntry(t *testing.T) {
	d := New(identity, types.TypeNumber, []types.Type{types.TypeString, types.TypeNumber}, Arity(1, Variadic))
	cases := []struct {
		index int
		want  types.Type
	}{
		{0, types.TypeString},
		{1, types.TypeNumber},
		{2, types.TypeNumber},
		{7, types.TypeNumber},
	}
	for _, c := range cases {
		if got := d.ArgType(c.index); !got.Equals(c.want) {
			t.Errorf("ArgType(%d) = %s, want %s", c.index, got, c.want)
		}
	}
	if !d.AcceptsArity(100) {
		t.Errorf("variadic function should accept 100 arguments")
	}
}

func TestPredicateReusesLastEntry(t *testing.T) {
	d := New(identity, types.TypeNumber, []types.Type{types.TypeBoolean, types.Unknown},
		Arity(3, 3), Inference(types.Always, nil))
	if d.Predicate(0) == nil {
		t.Errorf("position 0 should carry the override")
	}
	if d.Predicate(1) != nil || d.Predicate(2) != nil {
		t.Errorf("positions 1 and 2 should fall back to equality")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	d := New(identity, types.TypeNumber, []types.Type{types.TypeNumber}, Unfoldable())
	c := d.Clone()
	if c == d {
		t.Fatalf("clone must have its own identity")
	}
	if c.Foldable() || !c.Returns().Equals(d.Returns()) || !c.ArgType(0).Equals(d.ArgType(0)) {
		t.Errorf("clone must behave like the original")
	}
	c.args[0] = types.TypeString
	if !d.ArgType(0).Equals(types.TypeNumber) {
		t.Errorf("mutating the clone leaked into the original")
	}
}

func TestCallNeverReturnsNil(t *testing.T) {
	d := New(func(...object.Value) object.Value { return nil }, types.OptionalNumber, nil, Arity(0, 0))
	if _, ok := d.Call().(object.Void); !ok {
		t.Errorf("nil results should become void")
	}
}
