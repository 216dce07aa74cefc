package ast

import (
	"fmt"
	"strings"

	"formula/internal/object"
	"formula/internal/types"
)

// ProgramNode is a sequence of statements; the last one gives the result.
type ProgramNode struct {
	span       Span
	statements []Node
	compiled   bool
}

func NewProgram(span Span, statements ...Node) *ProgramNode {
	return &ProgramNode{span: span, statements: statements}
}

func (n *ProgramNode) Span() Span         { return n.span }
func (n *ProgramNode) Statements() []Node { return n.statements }

func (n *ProgramNode) Type() types.Type {
	if len(n.statements) == 0 {
		return types.TypeVoid
	}
	return n.statements[len(n.statements)-1].Type()
}

// Compile compiles every statement but the last without constraint and the
// last against expected. A program made only of constants folds to one.
func (n *ProgramNode) Compile(c *Compiler, expected types.Type) (Node, error) {
	if len(n.statements) == 0 {
		return c.Compile(Literal(n.span, object.NIL), expected)
	}
	last := len(n.statements) - 1
	constant := true
	for i, stmt := range n.statements {
		want := types.Unknown
		if i == last {
			want = expected
		}
		out, err := c.Compile(stmt, want)
		if err != nil {
			return nil, err
		}
		n.statements[i] = out
		_, isConst := out.(*ConstantNode)
		constant = constant && isConst
	}
	n.compiled = true
	if constant {
		return NewConstant(n.span, n.Type(), n.Evaluate(nil)), nil
	}
	return n, nil
}

// Evaluate runs every statement in order and returns the value of the last.
// Earlier results are discarded but still computed, since unfoldable calls may
// observe the order they run in.
func (n *ProgramNode) Evaluate(env Env) object.Value {
	if !n.compiled {
		panic(fmt.Errorf("%w: program at offset %d", ErrNotCompiled, n.span.Start))
	}
	var result object.Value = object.NIL
	for _, stmt := range n.statements {
		result = stmt.Evaluate(env)
	}
	return result
}

func (n *ProgramNode) Render(indent int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s program node, statements:", pad(indent), n.span)
	for _, stmt := range n.statements {
		sb.WriteString("\n")
		sb.WriteString(stmt.Render(indent + 1))
	}
	return sb.String()
}
