package ast

import (
	"errors"
	"fmt"

	"formula/internal/types"
)

var (
	// ErrNotCompiled is the panic value raised when a node is evaluated
	// before it went through Compile.
	ErrNotCompiled = errors.New("node evaluated before compile")
	ErrTooDeep     = errors.New("expression nesting limit exceeded")
)

// TypeError is the single compile-time failure: an empty type intersection or
// an argument count outside a function's arity.
type TypeError struct {
	Span     Span
	Expected types.Type
	Found    types.Type
	// Detail replaces the expected/found sentence when set (arity failures).
	Detail string
	// Node is the rendered failing node.
	Node string
}

func (e *TypeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("expression at offset %d: %s", e.Span.Start, e.Detail)
	}
	return fmt.Sprintf("expression at offset %d expected type {%s}, found {%s}",
		e.Span.Start, e.Expected, e.Found)
}

func typeMismatch(n Node, expected, found types.Type) *TypeError {
	return &TypeError{
		Span:     n.Span(),
		Expected: expected,
		Found:    found,
		Node:     n.Render(0),
	}
}
