package types

import "testing"

func TestNewWithoutKindsIsUnknown(t *testing.T) {
	if !New().IsUnknown() {
		t.Fatalf("New() = %s, want the full universe", New())
	}
	if New().Exact() {
		t.Errorf("the full universe must not be exact")
	}
	if !TypeNumber.Exact() || !TypeNumber.IsNumber() {
		t.Errorf("number type should be exact")
	}
}

func TestInfer(t *testing.T) {
	cases := []struct {
		name  string
		self  Type
		mask  Type
		pred  Predicate
		want  Type
		match bool
	}{
		{"boolean|number against number|string", New(Boolean, Number), New(Number, String), nil, TypeNumber, true},
		{"boolean against string", TypeBoolean, TypeString, nil, Type{}, false},
		{"unknown mask is identity", New(Boolean, Number), Unknown, nil, New(Boolean, Number), true},
		{"unknown mask ignores predicate", TypeString, Unknown, func(s, m Kind) bool { return false }, TypeString, true},
		{"always keeps everything", New(Boolean, String), TypeNumber, Always, New(Boolean, String), true},
		{"or-kind keeps arrays", NumberOrArray, TypeNumber, OrKind(Array), NumberOrArray, true},
		{"or-kind still filters", New(String, Array), TypeNumber, OrKind(Array), TypeArray, true},
		{"optional against number", OptionalNumber, TypeNumber, nil, TypeNumber, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := c.self.Infer(c.mask, c.pred)
			if ok != c.match {
				t.Fatalf("match = %v, want %v", ok, c.match)
			}
			if ok && !got.Equals(c.want) {
				t.Errorf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestStringAndParse(t *testing.T) {
	if got := New(String, Number).String(); got != "number|string" {
		t.Errorf("String() = %q", got)
	}
	typ, err := Parse("void | number")
	if err != nil {
		t.Fatal(err)
	}
	if !typ.Equals(OptionalNumber) {
		t.Errorf("Parse = %s, want %s", typ, OptionalNumber)
	}
	if _, err := Parse("numbr"); err == nil {
		t.Errorf("expected an error for an unknown kind name")
	}
	if typ, _ := Parse("any"); !typ.IsUnknown() {
		t.Errorf("any should parse to the full universe")
	}
}

func TestOptional(t *testing.T) {
	if !TypeString.Optional().Has(Void) || !TypeString.Optional().Has(String) {
		t.Errorf("optional string should admit void and string")
	}
	if TypeString.Optional().Exact() {
		t.Errorf("optional string is not exact")
	}
}
