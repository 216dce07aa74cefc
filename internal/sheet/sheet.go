package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"formula/internal/ast"
	"formula/internal/object"
	"formula/internal/parser"
	"formula/internal/types"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Sheet is a named list of formulas over declared input variables. Each field
// may refer to the fields before it by name.
type Sheet struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
	Fields    []Field           `yaml:"fields"`
}

type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Expr string `yaml:"expr"`
}

var ErrInvalidSheet = errors.New("invalid sheet")

// Load reads a sheet from a YAML file.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return Parse(data)
}

// Parse decodes a sheet from YAML.
func Parse(data []byte) (*Sheet, error) {
	var s Sheet
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidSheet)
	}
	return &s, nil
}

type options struct {
	maxDepth int
	logger   *slog.Logger
	scope    map[string]types.Type
}

type Option func(*options)

func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScope declares extra row variables, such as query columns. The sheet's
// own variables take precedence.
func WithScope(scope map[string]types.Type) Option {
	return func(o *options) { o.scope = scope }
}

// Compiled is a sheet whose fields went through parse and compile. It is
// read-only and may be evaluated from many goroutines at once.
type Compiled struct {
	name   string
	fields []compiledField
}

type compiledField struct {
	name string
	node ast.Node
}

// Compile parses and compiles every field in order. Each field is available
// to the later ones as a variable of its compiled type.
func (s *Sheet) Compile(opts ...Option) (*Compiled, error) {
	o := options{maxDepth: ast.DefaultMaxDepth, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	scope := parser.Scope{}
	for name, typ := range o.scope {
		scope[name] = typ
	}
	for name, decl := range s.Variables {
		typ, err := types.Parse(decl)
		if err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", ErrInvalidSheet, name, err)
		}
		scope[name] = typ
	}

	c := &Compiled{name: s.Name}
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field without name", ErrInvalidSheet)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field %s", ErrInvalidSheet, f.Name)
		}
		seen[f.Name] = true

		expected, err := types.Parse(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidSheet, f.Name, err)
		}
		program, err := parser.Parse(f.Expr, parser.WithScope(scope), parser.WithMaxDepth(o.maxDepth))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		node, err := ast.Compile(program, expected, ast.WithMaxDepth(o.maxDepth), ast.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		scope[f.Name] = node.Type()
		c.fields = append(c.fields, compiledField{name: f.Name, node: node})
	}

	o.logger.Debug("sheet compiled",
		slog.String("sheet", s.Name),
		slog.Int("fields", len(c.fields)))
	return c, nil
}

func (c *Compiled) Name() string { return c.name }

// FieldValue is one evaluated field.
type FieldValue struct {
	Name  string
	Value object.Value
}

// Result holds the field values of one evaluation in sheet order.
type Result []FieldValue

// Get returns the value of the named field, void when absent.
func (r Result) Get(name string) object.Value {
	for _, f := range r {
		if f.Name == name {
			return f.Value
		}
	}
	return object.NIL
}

// MarshalJSON encodes the result as an object with members in field order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(object.ToNative(f.Value))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fieldEnv resolves earlier field values before the row data.
type fieldEnv struct {
	fields *object.Environment
	row    ast.Env
}

func (e fieldEnv) Lookup(name string) (object.Value, bool) {
	if v, ok := e.fields.Lookup(name); ok {
		return v, true
	}
	if e.row == nil {
		return nil, false
	}
	return e.row.Lookup(name)
}

// Evaluate computes every field against one row of runtime data.
func (c *Compiled) Evaluate(row ast.Env) Result {
	env := fieldEnv{fields: object.NewEnvironment(), row: row}
	result := make(Result, len(c.fields))
	for i, f := range c.fields {
		v := f.node.Evaluate(env)
		env.fields.Define(f.name, v)
		result[i] = FieldValue{Name: f.name, Value: v}
	}
	return result
}

// EvaluateAll evaluates the sheet over many rows with at most limit rows in
// flight. Results keep the order of rows. A cancelled context stops rows that
// have not started yet.
func (c *Compiled) EvaluateAll(ctx context.Context, rows []ast.Env, limit int) ([]Result, error) {
	results := make([]Result, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.Evaluate(row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
