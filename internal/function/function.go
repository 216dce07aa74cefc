package function

import (
	"math"

	"formula/internal/object"
	"formula/internal/types"
)

// Variadic is the maximum arity of functions that take any number of arguments.
const Variadic = math.MaxInt32

// Impl is the implementation of a callable primitive. It receives arguments
// that already passed compile-time type checking.
type Impl func(args ...object.Value) object.Value

// Definition describes one callable primitive. Definitions are built once at
// start-up and never change afterwards, so they can be shared between any
// number of concurrent compilations and evaluations.
type Definition struct {
	impl      Impl
	returns   types.Type
	args      []types.Type
	minArity  int
	maxArity  int
	inference []types.Predicate
	foldable  bool
}

type Option func(*Definition)

// Arity sets the accepted argument count range. Use Variadic as max for an
// unbounded tail.
func Arity(min, max int) Option {
	return func(d *Definition) {
		d.minArity = min
		d.maxArity = max
	}
}

// Inference sets the per-position predicates used to filter an argument's
// declared type against the call's resolved return type. A nil entry keeps
// types.Equal.
func Inference(preds ...types.Predicate) Option {
	return func(d *Definition) {
		d.inference = append([]types.Predicate(nil), preds...)
	}
}

// Unfoldable marks functions whose result may differ between calls with the
// same arguments (clocks, randomness).
func Unfoldable() Option {
	return func(d *Definition) {
		d.foldable = false
	}
}

// New creates a definition. Without options the function takes exactly one
// argument, uses equality inference and is foldable.
func New(impl Impl, returns types.Type, args []types.Type, opts ...Option) *Definition {
	d := &Definition{
		impl:     impl,
		returns:  returns,
		args:     append([]types.Type(nil), args...),
		minArity: 1,
		maxArity: 1,
		foldable: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Clone returns an independent copy with the same behaviour, used for
// operator aliases of named functions.
func (d *Definition) Clone() *Definition {
	c := *d
	c.args = append([]types.Type(nil), d.args...)
	c.inference = append([]types.Predicate(nil), d.inference...)
	return &c
}

func (d *Definition) Returns() types.Type { return d.returns }
func (d *Definition) MinArity() int       { return d.minArity }
func (d *Definition) MaxArity() int       { return d.maxArity }
func (d *Definition) Foldable() bool      { return d.foldable }

// AcceptsArity reports whether n arguments lie within [MinArity, MaxArity].
func (d *Definition) AcceptsArity(n int) bool {
	return n >= d.minArity && n <= d.maxArity
}

// ArgType returns the declared type of argument i. Positions beyond the
// declared list reuse the last entry; a function declared without argument
// types accepts anything.
func (d *Definition) ArgType(i int) types.Type {
	switch {
	case len(d.args) == 0:
		return types.Unknown
	case i < len(d.args):
		return d.args[i]
	}
	return d.args[len(d.args)-1]
}

// Predicate returns the inference predicate for argument i, reusing the last
// entry for overflow positions. nil means types.Equal.
func (d *Definition) Predicate(i int) types.Predicate {
	switch {
	case len(d.inference) == 0:
		return nil
	case i < len(d.inference):
		return d.inference[i]
	}
	return d.inference[len(d.inference)-1]
}

// Call applies the implementation.
func (d *Definition) Call(args ...object.Value) object.Value {
	v := d.impl(args...)
	if v == nil {
		return object.NIL
	}
	return v
}
