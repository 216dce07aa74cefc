package ast

import (
	"fmt"
	"log/slog"
	"strings"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"
)

// FunctionNode is a call of a function definition with argument subnodes.
type FunctionNode struct {
	span     Span
	name     string
	fn       *function.Definition
	args     []Node
	typ      types.Type
	compiled bool
}

// NewFunction binds a call site. name is only used for diagnostics.
func NewFunction(span Span, name string, fn *function.Definition, args ...Node) *FunctionNode {
	return &FunctionNode{
		span: span,
		name: name,
		fn:   fn,
		args: args,
		typ:  types.Unknown,
	}
}

func (n *FunctionNode) Type() types.Type { return n.typ }
func (n *FunctionNode) Span() Span       { return n.span }
func (n *FunctionNode) Name() string     { return n.name }
func (n *FunctionNode) Args() []Node     { return n.args }

// Compile resolves the call's type against expected, then compiles every
// argument against its declared type filtered by the resolved return type.
// When every argument ends up a non-function constant and the definition is
// foldable, the call is replaced by a constant holding its result.
func (n *FunctionNode) Compile(c *Compiler, expected types.Type) (Node, error) {
	if !n.fn.AcceptsArity(len(n.args)) {
		return nil, &TypeError{
			Span:     n.span,
			Expected: expected,
			Found:    n.fn.Returns(),
			Detail:   n.arityDetail(),
			Node:     n.Render(0),
		}
	}
	inferred, ok := n.fn.Returns().Infer(expected, nil)
	if !ok {
		return nil, typeMismatch(n, expected, n.fn.Returns())
	}
	constant := true
	for i := range n.args {
		declared := n.fn.ArgType(i)
		argType, ok := declared.Infer(inferred, n.fn.Predicate(i))
		if !ok {
			return nil, typeMismatch(n, inferred, declared)
		}
		arg, err := c.Compile(n.args[i], argType)
		if err != nil {
			return nil, err
		}
		n.args[i] = arg
		k, isConst := arg.(*ConstantNode)
		constant = constant && isConst && !k.Type().IsFunction()
	}
	n.typ = inferred
	n.compiled = true
	if constant && n.fn.Foldable() {
		value := n.Evaluate(nil)
		c.logger.Debug("folded call",
			slog.String("function", n.name),
			slog.String("span", n.span.String()),
			slog.String("value", value.Inspect()))
		return NewConstant(n.span, inferred, value), nil
	}
	return n, nil
}

// Evaluate applies the function to the evaluated arguments. A result outside
// the resolved type is replaced by the type's zero sentinel.
func (n *FunctionNode) Evaluate(env Env) object.Value {
	if !n.compiled {
		panic(fmt.Errorf("%w: call of %s at offset %d", ErrNotCompiled, n.name, n.span.Start))
	}
	values := make([]object.Value, len(n.args))
	for i, arg := range n.args {
		values[i] = arg.Evaluate(env)
	}
	return object.Conform(n.fn.Call(values...), n.typ)
}

func (n *FunctionNode) arityDetail() string {
	want := fmt.Sprintf("%d", n.fn.MinArity())
	switch {
	case n.fn.MaxArity() == function.Variadic:
		want = fmt.Sprintf("at least %d", n.fn.MinArity())
	case n.fn.MaxArity() != n.fn.MinArity():
		want = fmt.Sprintf("%d to %d", n.fn.MinArity(), n.fn.MaxArity())
	}
	return fmt.Sprintf("%s expects %s argument(s), got %d", n.name, want, len(n.args))
}

func (n *FunctionNode) Render(indent int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s function node %s, type: %s", pad(indent), n.span, n.name, n.typ)
	if len(n.args) > 0 {
		sb.WriteString(", arguments:")
		for _, arg := range n.args {
			sb.WriteString("\n")
			sb.WriteString(arg.Render(indent + 1))
		}
	}
	return sb.String()
}
