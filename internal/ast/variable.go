package ast

import (
	"fmt"

	"formula/internal/object"
	"formula/internal/types"
)

// VariableNode reads a named value from the host environment. It never folds.
type VariableNode struct {
	span     Span
	name     string
	declared types.Type
	typ      types.Type
	compiled bool
}

func NewVariable(span Span, name string, declared types.Type) *VariableNode {
	return &VariableNode{span: span, name: name, declared: declared, typ: declared}
}

func (n *VariableNode) Type() types.Type { return n.typ }
func (n *VariableNode) Span() Span       { return n.span }
func (n *VariableNode) Name() string     { return n.name }

func (n *VariableNode) Compile(_ *Compiler, expected types.Type) (Node, error) {
	inferred, ok := n.declared.Infer(expected, nil)
	if !ok {
		return nil, typeMismatch(n, expected, n.declared)
	}
	n.typ = inferred
	n.compiled = true
	return n, nil
}

// Evaluate looks the name up in env. Missing names and values of a kind the
// node does not admit evaluate to the type's zero sentinel.
func (n *VariableNode) Evaluate(env Env) object.Value {
	if !n.compiled {
		panic(fmt.Errorf("%w: variable %s at offset %d", ErrNotCompiled, n.name, n.span.Start))
	}
	if env == nil {
		return object.Zero(n.typ)
	}
	v, ok := env.Lookup(n.name)
	if !ok {
		return object.Zero(n.typ)
	}
	return object.Conform(v, n.typ)
}

func (n *VariableNode) Render(indent int) string {
	return fmt.Sprintf("%s%s variable node %s, type: %s", pad(indent), n.span, n.name, n.typ)
}
