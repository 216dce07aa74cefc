package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/object"
	"formula/internal/parser"
	"formula/internal/types"
	"formula/internal/util"

	"github.com/lmorg/readline"
)

const PROMPT = ">> "

const help = `Commands:
  :type <expr>          Show the compiled type of an expression
  :ast <expr>           Show the compiled tree of an expression
  :let <name> = <expr>  Bind a value for later lines
  :vars                 List bound values
  :functions            List callable functions
  :quit                 Leave
Anything else is compiled and evaluated.
`

// Session holds the values bound with :let. Each line is compiled against
// them as declared variables.
type Session struct {
	scope    parser.Scope
	env      *object.Environment
	maxDepth int
	logger   *slog.Logger
}

func NewSession(maxDepth int, logger *slog.Logger) *Session {
	if maxDepth <= 0 {
		maxDepth = ast.DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		scope:    parser.Scope{},
		env:      object.NewEnvironment(),
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Start reads lines from in until it is exhausted or :quit is entered.
func Start(in io.Reader, out io.Writer, s *Session) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}
		if s.Execute(scanner.Text(), out) {
			return
		}
	}
}

// StartInteractive runs the session on the terminal with line editing and
// completion of function names.
func StartInteractive(out io.Writer, s *Session) {
	rline := readline.NewInstance()
	rline.SetPrompt(PROMPT)
	rline.TabCompleter = complete
	for {
		line, err := rline.Readline()
		if err != nil {
			return
		}
		if s.Execute(line, out) {
			return
		}
	}
}

func complete(line []rune, pos int, _ readline.DelayedTabContext) (string, []string, map[string]string, readline.TabDisplayType) {
	start := pos
	for start > 0 && (unicode.IsLetter(line[start-1]) || unicode.IsDigit(line[start-1])) {
		start--
	}
	prefix := string(line[start:pos])
	var suggestions []string
	for _, name := range builtins.Names() {
		if strings.HasPrefix(name, prefix) {
			suggestions = append(suggestions, name[len(prefix):])
		}
	}
	return prefix, suggestions, nil, readline.TabDisplayGrid
}

// Execute runs one line and reports whether the session should end.
func (s *Session) Execute(line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		s.evaluate(line, out)
		return false
	}

	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch command {
	case ":quit", ":q":
		return true
	case ":help":
		io.WriteString(out, help)
	case ":type":
		if node, ok := s.compile(rest, out); ok {
			fmt.Fprintln(out, node.Type())
		}
	case ":ast":
		if node, ok := s.compile(rest, out); ok {
			fmt.Fprintln(out, ast.Dump(node))
		}
	case ":let":
		s.let(rest, out)
	case ":vars":
		for _, name := range s.names() {
			v, _ := s.env.Lookup(name)
			fmt.Fprintf(out, "%s: %s = %s\n", name, s.scope[name], v.Inspect())
		}
	case ":functions":
		fmt.Fprintln(out, strings.Join(builtins.Names(), " "))
	default:
		fmt.Fprintf(out, "unknown command %s, try :help\n", command)
	}
	return false
}

func (s *Session) names() []string {
	names := make([]string, 0, len(s.scope))
	for name := range s.scope {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Session) let(rest string, out io.Writer) {
	name, expr, found := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	if !found || !isName(name) {
		io.WriteString(out, "usage: :let <name> = <expr>\n")
		return
	}
	node, ok := s.compile(strings.TrimSpace(expr), out)
	if !ok {
		return
	}
	v := node.Evaluate(s.env)
	s.scope[name] = object.TypeOf(v)
	s.env.Define(name, v)
	fmt.Fprintf(out, "%s = %s\n", name, v.Inspect())
}

func isName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if !(r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r))) {
			return false
		}
	}
	return true
}

func (s *Session) evaluate(line string, out io.Writer) {
	node, ok := s.compile(line, out)
	if !ok {
		return
	}
	fmt.Fprintln(out, node.Evaluate(s.env).Inspect())
}

func (s *Session) compile(source string, out io.Writer) (ast.Node, bool) {
	program, err := parser.Parse(source, parser.WithScope(s.scope), parser.WithMaxDepth(s.maxDepth))
	if err != nil {
		printParserErrors(out, err)
		return nil, false
	}
	node, err := ast.Compile(program, types.Unknown, ast.WithMaxDepth(s.maxDepth), ast.WithLogger(s.logger))
	if err != nil {
		printCompileError(out, source, err)
		return nil, false
	}
	return node, true
}

func printParserErrors(out io.Writer, err error) {
	io.WriteString(out, " parser errors:\n")
	var pe *parser.Error
	if !errors.As(err, &pe) {
		io.WriteString(out, "\t"+err.Error()+"\n")
		return
	}
	for _, msg := range pe.Messages {
		io.WriteString(out, "\t"+msg+"\n")
	}
}

func printCompileError(out io.Writer, source string, err error) {
	var te *ast.TypeError
	if errors.As(err, &te) {
		io.WriteString(out, util.FormatError(source, te.Span.Start, err.Error())+"\n")
		return
	}
	fmt.Fprintf(out, "%v\n", err)
}
