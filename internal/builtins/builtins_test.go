package builtins

import (
	"math"
	"testing"
	"time"

	"formula/internal/ast"
	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"

	"golang.org/x/crypto/sha3"
)

func num(f float64) object.Value  { return object.Number{Value: f} }
func str(s string) object.Value   { return object.String{Value: s} }
func buf(b ...byte) object.Value  { return object.Buffer{Value: b} }
func arr(v ...object.Value) object.Value {
	return object.Array{Elements: v}
}

// call compiles a call of fn over literal arguments and evaluates it.
func call(t *testing.T, fn *function.Definition, args ...object.Value) object.Value {
	t.Helper()
	nodes := make([]ast.Node, len(args))
	for i, a := range args {
		nodes[i] = ast.Literal(ast.Span{}, a)
	}
	root, err := ast.Compile(ast.NewFunction(ast.Span{}, "f", fn, nodes...), types.Unknown)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return root.Evaluate(nil)
}

type testCase struct {
	name     string
	fn       *function.Definition
	args     []object.Value
	expected object.Value
}

func runCases(t *testing.T, tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, tt.fn, tt.args...)
			if !object.Equal(got, tt.expected) {
				t.Errorf("expected %s, got %s", tt.expected.Inspect(), got.Inspect())
			}
		})
	}
}

func isNaN(v object.Value) bool {
	n, ok := v.(object.Number)
	return ok && math.IsNaN(n.Value)
}

func TestLogic(t *testing.T) {
	runCases(t, []testCase{
		{"not", FuncNot, []object.Value{object.TRUE}, object.FALSE},
		{"and", FuncAnd, []object.Value{object.TRUE, object.TRUE}, object.TRUE},
		{"and with array", FuncAnd, []object.Value{object.TRUE, arr(object.TRUE, object.FALSE)}, object.FALSE},
		{"or", FuncOr, []object.Value{object.FALSE, object.TRUE}, object.TRUE},
		{"or with array", FuncOr, []object.Value{arr(object.FALSE), object.FALSE}, object.FALSE},
		{"gt numbers", FuncGt, []object.Value{num(2), num(1)}, object.TRUE},
		{"lt strings", FuncLt, []object.Value{str("a"), str("b")}, object.TRUE},
		{"ge equal", FuncGe, []object.Value{num(1), num(1)}, object.TRUE},
		{"le mixed kinds", FuncLe, []object.Value{num(1), str("1")}, object.FALSE},
		{"gt NaN", FuncGt, []object.Value{num(math.NaN()), num(1)}, object.FALSE},
		{"equal arrays", FuncEqual, []object.Value{arr(num(1)), arr(num(1))}, object.TRUE},
		{"notEqual", FuncNotEqual, []object.Value{str("a"), str("A")}, object.TRUE},
		{"like folds case", FuncLike, []object.Value{str("Hello"), str("hELLO")}, object.TRUE},
		{"like other kinds", FuncLike, []object.Value{num(1), num(1)}, object.TRUE},
		{"notLike", FuncNotLike, []object.Value{str("a"), str("b")}, object.TRUE},
		{"nullco void", FuncNullco, []object.Value{object.NIL, num(2)}, num(2)},
		{"nullco value", FuncNullco, []object.Value{num(1), num(2)}, num(1)},
		{"if true", FuncIfThenElse, []object.Value{object.TRUE, str("y"), str("n")}, str("y")},
		{"if false", FuncIfThenElse, []object.Value{object.FALSE, str("y"), str("n")}, str("n")},
	})
}

func TestMath(t *testing.T) {
	runCases(t, []testCase{
		{"add numbers", FuncAdd, []object.Value{num(1), num(2), num(3)}, num(6)},
		{"add strings", FuncAdd, []object.Value{str("a"), str("b")}, str("ab")},
		{"add arrays", FuncAdd, []object.Value{arr(num(1)), arr(num(2))}, arr(num(1), num(2))},
		{"add buffers", FuncAdd, []object.Value{buf(1), buf(2)}, buf(1, 2)},
		{"sub", FuncSub, []object.Value{num(5), num(3)}, num(2)},
		{"neg", FuncNeg, []object.Value{num(5)}, num(-5)},
		{"mul", FuncMul, []object.Value{num(4), num(3)}, num(12)},
		{"div", FuncDiv, []object.Value{num(1), num(4)}, num(0.25)},
		{"pct", FuncPct, []object.Value{num(7), num(3)}, num(1)},
		{"pow", FuncPow, []object.Value{num(2), num(10)}, num(1024)},
		{"sum nested", FuncSum, []object.Value{num(1), arr(num(2), arr(num(3)))}, num(6)},
		{"sum empty", FuncSum, []object.Value{arr()}, num(0)},
		{"min", FuncMin, []object.Value{arr(num(3), num(-1)), num(2)}, num(-1)},
		{"max", FuncMax, []object.Value{num(3), arr(num(-1), num(7))}, num(7)},
		{"range", FuncRange, []object.Value{num(0), num(3)}, arr(num(0), num(1), num(2))},
		{"range descending", FuncRange, []object.Value{num(3), num(1)}, arr(num(3), num(2))},
		{"range empty", FuncRange, []object.Value{num(2), num(2)}, arr()},
		{"range too long", FuncRange, []object.Value{num(0), num(1e19)}, arr()},
		{"range beyond integers", FuncRange, []object.Value{num(1e19), num(1e19 + 4096)}, arr()},
		{"range infinite", FuncRange, []object.Value{num(0), num(math.Inf(1))}, arr()},
	})
}

func TestAddMixedKindsYieldsZero(t *testing.T) {
	got := call(t, FuncAdd, num(1), str("a"))
	if !isNaN(got) {
		t.Errorf("expected NaN, got %s", got.Inspect())
	}
}

func TestAddResolvesToCallKind(t *testing.T) {
	node := ast.NewFunction(ast.Span{}, "add", FuncAdd,
		ast.Literal(ast.Span{}, num(1)), ast.Literal(ast.Span{}, str("a")))
	_, err := ast.Compile(node, types.TypeNumber)
	if err == nil {
		t.Fatal("expected a type error")
	}
	const want = "expression at offset 0 expected type {number}, found {string}"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestCollections(t *testing.T) {
	obj := object.Object{Pairs: map[string]object.Value{"k": num(1)}}
	runCases(t, []testCase{
		{"at array", FuncAt, []object.Value{arr(num(10), num(20), num(30)), num(1)}, num(20)},
		{"at negative", FuncAt, []object.Value{arr(num(10), num(20), num(30)), num(-1)}, num(30)},
		{"at out of range", FuncAt, []object.Value{arr(num(10)), num(5)}, object.NIL},
		{"at fraction", FuncAt, []object.Value{arr(num(10)), num(0.5)}, object.NIL},
		{"at huge position", FuncAt, []object.Value{arr(num(10)), num(-1e19)}, object.NIL},
		{"at string", FuncAt, []object.Value{str("héllo"), num(1)}, str("é")},
		{"at buffer", FuncAt, []object.Value{buf(7, 9), num(1)}, num(9)},
		{"at object", FuncAt, []object.Value{obj, str("k")}, num(1)},
		{"by", FuncBy, []object.Value{obj, str("k")}, num(1)},
		{"by missing", FuncBy, []object.Value{obj, str("x")}, object.NIL},
		{"len string", FuncLen, []object.Value{str("héllo")}, num(5)},
		{"len array", FuncLen, []object.Value{arr(num(1), num(2))}, num(2)},
		{"len object", FuncLen, []object.Value{obj}, num(1)},
		{"chain", FuncChain, []object.Value{arr(num(1), arr(num(2))), num(3)}, arr(num(1), num(2), num(3))},
		{"merge", FuncMerge, []object.Value{
			obj,
			arr(object.Object{Pairs: map[string]object.Value{"k": num(2), "j": num(3)}}),
		}, object.Object{Pairs: map[string]object.Value{"k": num(2), "j": num(3)}}},
		{"array literal", FuncArray, []object.Value{num(1), str("a")}, arr(num(1), str("a"))},
		{"key number", FuncKey, []object.Value{num(2)}, str("2")},
		{"key string", FuncKey, []object.Value{str("k")}, str("k")},
		{"object literal", FuncObject, []object.Value{str("a"), num(1), str("b"), num(2)},
			object.Object{Pairs: map[string]object.Value{"a": num(1), "b": num(2)}}},
	})
}

func TestUnfoldableFunctionsStayCalls(t *testing.T) {
	tests := []struct {
		name string
		fn   *function.Definition
		args []object.Value
	}{
		{"now", FuncNow, nil},
		{"random", FuncRandomNumber, []object.Value{num(10)}},
		{"randomInteger", FuncRandomInteger, []object.Value{num(10)}},
		{"randomBuffer", FuncRandomBuffer, []object.Value{num(4)}},
		{"randomString", FuncRandomString, []object.Value{num(4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := make([]ast.Node, len(tt.args))
			for i, a := range tt.args {
				nodes[i] = ast.Literal(ast.Span{}, a)
			}
			root, err := ast.Compile(ast.NewFunction(ast.Span{}, tt.name, tt.fn, nodes...), types.Unknown)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if _, ok := root.(*ast.FunctionNode); !ok {
				t.Errorf("expected a function node, got %T", root)
			}
		})
	}
}

func TestRandomRanges(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := call(t, FuncRandomNumber, num(10)).(object.Number).Value
		if n < 0 || n >= 10 {
			t.Fatalf("random out of range: %v", n)
		}
		k := call(t, FuncRandomInteger, num(3)).(object.Number).Value
		if k != math.Trunc(k) || k < 0 || k >= 3 {
			t.Fatalf("randomInteger out of range: %v", k)
		}
	}
	if b := call(t, FuncRandomBuffer, num(16)).(object.Buffer); len(b.Value) != 16 {
		t.Errorf("expected 16 bytes, got %d", len(b.Value))
	}
	s := call(t, FuncRandomString, num(12)).(object.String).Value
	if len(s) != 12 {
		t.Errorf("expected 12 characters, got %q", s)
	}
	for _, n := range []float64{math.Pow(2, 63), 1e19, math.Inf(1), 0} {
		if got := call(t, FuncRandomInteger, num(n)); !isNaN(got) {
			t.Errorf("randomInteger(%v): expected NaN, got %s", n, got.Inspect())
		}
	}
	if got := call(t, FuncRandomBuffer, num(-1)); len(got.(object.Buffer).Value) != 0 {
		t.Errorf("expected empty buffer for negative length, got %s", got.Inspect())
	}
}

func TestNow(t *testing.T) {
	fixed := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	clock = func() time.Time { return fixed }
	defer func() { clock = time.Now }()

	got := call(t, FuncNow)
	if !object.Equal(got, num(float64(fixed.UnixMilli()))) {
		t.Errorf("expected %d, got %s", fixed.UnixMilli(), got.Inspect())
	}
}

func TestTime(t *testing.T) {
	leap := float64(time.Date(2024, 2, 29, 12, 30, 15, 250*int(time.Millisecond), time.UTC).UnixMilli())
	runCases(t, []testCase{
		{"toUniversalTime epoch", FuncToUniversalTime, []object.Value{num(0)},
			arr(num(1970), num(1), num(1), num(0), num(0), num(0), num(0))},
		{"toUniversalTime", FuncToUniversalTime, []object.Value{num(leap)},
			arr(num(2024), num(2), num(29), num(12), num(30), num(15), num(250))},
		{"fromUniversalTime", FuncFromUniversalTime,
			[]object.Value{arr(num(2024), num(2), num(29), num(12), num(30), num(15), num(250))}, num(leap)},
		{"fromUniversalTime defaults", FuncFromUniversalTime, []object.Value{arr(num(1970))}, num(0)},
		{"month index", FuncToUniversalTimeMonthIndex, []object.Value{num(leap)}, num(1)},
		{"weekday index", FuncToUniversalTimeWeekdayIndex, []object.Value{num(0)}, num(4)},
		{"toTimeString", FuncToTimeString, []object.Value{num(leap)}, str("2024-02-29T12:30:15.250Z")},
		{"fromTimeString", FuncFromTimeString, []object.Value{str("2024-02-29T12:30:15.250Z")}, num(leap)},
		{"fromTimeString offset", FuncFromTimeString, []object.Value{str("1970-01-01T01:00:00+01:00")}, num(0)},
		{"fromTimeString date", FuncFromTimeString, []object.Value{str("1970-01-02")}, num(86400000)},
	})
	if got := call(t, FuncFromTimeString, str("yesterday")); !isNaN(got) {
		t.Errorf("expected NaN, got %s", got.Inspect())
	}
	if got := call(t, FuncToTimeString, num(math.NaN())); !object.Equal(got, str("")) {
		t.Errorf("expected empty string, got %s", got.Inspect())
	}
}

func TestLocalTimeRoundTrip(t *testing.T) {
	ms := num(1700000000123)
	parts := call(t, FuncToLocalTime, ms)
	if got := call(t, FuncFromLocalTime, parts); !object.Equal(got, ms) {
		t.Errorf("expected %s, got %s", ms.Inspect(), got.Inspect())
	}
}

func TestEncodings(t *testing.T) {
	runCases(t, []testCase{
		{"toNumberBuffer uint16", FuncToNumberBuffer, []object.Value{num(1), str("uint16")}, buf(0, 1)},
		{"toNumberBuffer uint16le", FuncToNumberBuffer, []object.Value{num(1), str("uint16le")}, buf(1, 0)},
		{"toNumberBuffer int8", FuncToNumberBuffer, []object.Value{num(-1), str("int8")}, buf(0xff)},
		{"fromNumberBuffer", FuncFromNumberBuffer, []object.Value{buf(0, 1), str("uint16")}, num(1)},
		{"fromNumberBuffer offset", FuncFromNumberBuffer, []object.Value{buf(9, 0xfe), str("int8"), num(1)}, num(-2)},
		{"toStringBuffer utf8", FuncToStringBuffer, []object.Value{str("hé")}, buf('h', 0xc3, 0xa9)},
		{"toStringBuffer utf16le", FuncToStringBuffer, []object.Value{str("hi"), str("utf16le")}, buf('h', 0, 'i', 0)},
		{"toStringBuffer latin1", FuncToStringBuffer, []object.Value{str("é"), str("latin1")}, buf(0xe9)},
		{"fromStringBuffer utf16be", FuncFromStringBuffer, []object.Value{buf(0, 'h', 0, 'i'), str("utf16be")}, str("hi")},
		{"toNumberString", FuncToNumberString, []object.Value{num(1.5)}, str("1.5")},
		{"toNumberString hex", FuncToNumberString, []object.Value{num(255), num(16)}, str("ff")},
		{"fromNumberString", FuncFromNumberString, []object.Value{str(" 2.5 ")}, num(2.5)},
		{"fromNumberString binary", FuncFromNumberString, []object.Value{str("101"), num(2)}, num(5)},
		{"toBufferString", FuncToBufferString, []object.Value{buf(0xde, 0xad)}, str("dead")},
		{"toBufferString base64", FuncToBufferString, []object.Value{buf('h', 'i'), str("base64")}, str("aGk=")},
		{"fromBufferString", FuncFromBufferString, []object.Value{str("beef")}, buf(0xbe, 0xef)},
		{"fromBufferString invalid", FuncFromBufferString, []object.Value{str("zz")}, buf()},
	})

	round := call(t, FuncToNumberBuffer, num(1.5))
	if got := call(t, FuncFromNumberBuffer, round); !object.Equal(got, num(1.5)) {
		t.Errorf("float64 round trip: got %s", got.Inspect())
	}
	if got := call(t, FuncFromNumberBuffer, buf(1), str("uint16")); !isNaN(got) {
		t.Errorf("expected NaN for a short buffer, got %s", got.Inspect())
	}
	if got := call(t, FuncFromNumberBuffer, buf(1, 2), str("uint8"), num(1e19)); !isNaN(got) {
		t.Errorf("expected NaN for an offset past the buffer, got %s", got.Inspect())
	}
	if got := call(t, FuncFromNumberString, str("abc")); !isNaN(got) {
		t.Errorf("expected NaN, got %s", got.Inspect())
	}
}

func TestJson(t *testing.T) {
	doc := object.Object{Pairs: map[string]object.Value{
		"b": arr(num(1), str("x"), object.TRUE, object.NIL),
		"a": num(2),
	}}
	runCases(t, []testCase{
		{"toJsonString", FuncToJsonString, []object.Value{doc}, str(`{"a":2,"b":[1,"x",true,null]}`)},
		{"toJsonString void", FuncToJsonString, []object.Value{object.NIL}, object.NIL},
		{"fromJsonString", FuncFromJsonString, []object.Value{str(`{"a":2,"b":[1,"x",true,null]}`)}, doc},
		{"fromJsonString empty", FuncFromJsonString, []object.Value{str("  ")}, object.NIL},
		{"fromJsonString malformed", FuncFromJsonString, []object.Value{str("{")}, object.NIL},
	})
}

func TestDigest(t *testing.T) {
	want := sha3.Sum256([]byte("abc"))
	runCases(t, []testCase{
		{"string", FuncDigest, []object.Value{str("abc")}, buf(want[:]...)},
		{"buffer", FuncDigest, []object.Value{buf('a', 'b', 'c'), str("SHA3-256")}, buf(want[:]...)},
	})
	if got := call(t, FuncDigest, str("abc"), str("blake2b-512")).(object.Buffer); len(got.Value) != 64 {
		t.Errorf("expected 64 bytes, got %d", len(got.Value))
	}
	if got := call(t, FuncDigest, str("abc"), str("md5")).(object.Buffer); len(got.Value) != 0 {
		t.Errorf("expected empty buffer for unknown algorithm, got %d bytes", len(got.Value))
	}
}

func TestOperatorsAreCopies(t *testing.T) {
	if OperAdd == FuncAdd {
		t.Fatal("operator shares its definition with the named function")
	}
	for literal, op := range Infix {
		fn, ok := Lookup(op.Name)
		if !ok {
			t.Errorf("operator %s names unknown function %s", literal, op.Name)
			continue
		}
		if op.Fn == fn {
			t.Errorf("operator %s is not a copy", literal)
		}
		if op.Fn.MinArity() != fn.MinArity() || !op.Fn.Returns().Equals(fn.Returns()) {
			t.Errorf("operator %s differs from %s", literal, op.Name)
		}
	}
	if got := call(t, OperAdd, num(2), num(3)); !object.Equal(got, num(5)) {
		t.Errorf("expected 5, got %s", got.Inspect())
	}
}

func TestFunctionTable(t *testing.T) {
	names := Names()
	for i, name := range names {
		if Functions[name] == nil {
			t.Errorf("function %s has no definition", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Errorf("names not sorted at %s", name)
		}
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("unexpected function nope")
	}
}

func TestOutOfRangeConstantsFoldWithoutPanic(t *testing.T) {
	tests := []struct {
		name string
		fn   *function.Definition
		args []object.Value
	}{
		{"range", FuncRange, []object.Value{num(0), num(1e19)}},
		{"fromNumberBuffer", FuncFromNumberBuffer, []object.Value{buf(1), str("uint8"), num(1e19)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := make([]ast.Node, len(tt.args))
			for i, a := range tt.args {
				nodes[i] = ast.Literal(ast.Span{}, a)
			}
			root, err := ast.Compile(ast.NewFunction(ast.Span{}, tt.name, tt.fn, nodes...), types.Unknown)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}
			if _, ok := root.(*ast.ConstantNode); !ok {
				t.Errorf("expected a folded constant, got %s", ast.Dump(root))
			}
		})
	}
}
