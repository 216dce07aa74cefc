package ast

import (
	"fmt"

	"formula/internal/object"
	"formula/internal/types"
)

// ConstantNode is a literal or the result of folding.
type ConstantNode struct {
	span  Span
	typ   types.Type
	value object.Value
}

// NewConstant pairs a value with an explicit type.
func NewConstant(span Span, typ types.Type, value object.Value) *ConstantNode {
	if value == nil {
		value = object.NIL
	}
	return &ConstantNode{span: span, typ: typ, value: value}
}

// Literal builds a constant whose type is the exact type of its value.
func Literal(span Span, value object.Value) *ConstantNode {
	if value == nil {
		value = object.NIL
	}
	return NewConstant(span, object.TypeOf(value), value)
}

func (n *ConstantNode) Type() types.Type    { return n.typ }
func (n *ConstantNode) Span() Span          { return n.span }
func (n *ConstantNode) Value() object.Value { return n.value }

// Compile only checks that the constant's type is admitted by expected; a
// constant never changes.
func (n *ConstantNode) Compile(_ *Compiler, expected types.Type) (Node, error) {
	if _, ok := expected.Infer(n.typ, nil); !ok {
		return nil, typeMismatch(n, expected, n.typ)
	}
	return n, nil
}

func (n *ConstantNode) Evaluate(Env) object.Value {
	return n.value
}

func (n *ConstantNode) Render(indent int) string {
	return fmt.Sprintf("%s%s constant node, type: %s, value: %s", pad(indent), n.span, n.typ, n.value.Inspect())
}
