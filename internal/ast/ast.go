package ast

import (
	"fmt"
	"log/slog"
	"strings"

	"formula/internal/object"
	"formula/internal/types"
)

// DefaultMaxDepth bounds how deeply Compile descends before giving up.
const DefaultMaxDepth = 256

// Span is the [Start, End) byte range of the source a node was parsed from.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string { return fmt.Sprintf("[%d:%d]", s.Start, s.End) }

// Env gives evaluation access to host data. A nil Env has no bindings.
type Env interface {
	Lookup(name string) (object.Value, bool)
}

// Node is one vertex of an expression tree. A node owns its children; Compile
// may hand back a different node that takes its place in the parent.
//
// Compile is called once per node, through a Compiler. Evaluate may only be
// called on the node Compile returned; calling it on a node that was never
// compiled panics with ErrNotCompiled. Compiled trees are read-only and may be
// evaluated from any number of goroutines at once.
type Node interface {
	// Type is the set of kinds Evaluate may return. It is only final after Compile.
	Type() types.Type
	Span() Span
	Compile(c *Compiler, expected types.Type) (Node, error)
	Evaluate(env Env) object.Value
	// Render is a human readable, indented dump for debugging. Its format is
	// not stable.
	Render(indent int) string
}

// Compiler carries the state of one compile pass.
type Compiler struct {
	maxDepth int
	logger   *slog.Logger
	depth    int
}

type Option func(*Compiler)

func WithMaxDepth(n int) Option {
	return func(c *Compiler) { c.maxDepth = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// Compile runs type inference and constant folding over the tree rooted at
// root against the expected type and returns the optimized tree. On error the
// tree must be discarded.
func Compile(root Node, expected types.Type, opts ...Option) (Node, error) {
	c := &Compiler{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	out, err := c.Compile(root, expected)
	if err != nil {
		c.logger.Debug("compile failed", slog.Any("error", err))
		return nil, err
	}
	return out, nil
}

// Compile compiles a child node one level deeper than its parent.
func (c *Compiler) Compile(n Node, expected types.Type) (Node, error) {
	if c.depth >= c.maxDepth {
		return nil, fmt.Errorf("%w: expression at offset %d nests deeper than %d",
			ErrTooDeep, n.Span().Start, c.maxDepth)
	}
	c.depth++
	defer func() { c.depth-- }()
	return n.Compile(c, expected)
}

// Dump renders a whole tree.
func Dump(n Node) string {
	return n.Render(0)
}

func pad(indent int) string {
	return strings.Repeat("  ", indent)
}
