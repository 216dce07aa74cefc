package parser

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/function"
	"formula/internal/lexer"
	"formula/internal/object"
	"formula/internal/token"
	"formula/internal/types"
	"formula/internal/util"
)

const (
	_           int = iota
	LOWEST          // statement
	CONDITIONAL     // c ? a : b
	NULLISH         // a ?? b
	LOGICAL_OR      // logical or
	LOGICAL_AND     // logical and
	EQUALS          // == != ~ !~
	COMPARISON      // > or <
	SUM             // +
	PRODUCT         // *
	POWER           // ^
	PREFIX          // -X or !X or #X
	CALL            // x.f(X), x.name
	INDEX           // array[index]
)

var precedences = map[token.TokenType]int{
	token.QUESTION:    CONDITIONAL,
	token.NULLISH:     NULLISH,
	token.LOGICAL_OR:  LOGICAL_OR,
	token.LOGICAL_AND: LOGICAL_AND,
	token.EQ:          EQUALS,
	token.NOT_EQ:      EQUALS,
	token.LIKE:        EQUALS,
	token.NOT_LIKE:    EQUALS,
	token.LT:          COMPARISON,
	token.LT_EQ:       COMPARISON,
	token.GT:          COMPARISON,
	token.GT_EQ:       COMPARISON,
	token.PLUS:        SUM,
	token.MINUS:       SUM,
	token.SLASH:       PRODUCT,
	token.ASTERISK:    PRODUCT,
	token.PERCENT:     PRODUCT,
	token.CARET:       POWER,
	token.PERIOD:      CALL,
	token.LBRACKET:    INDEX,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

// Scope declares the variables an expression may reference and their types.
type Scope map[string]types.Type

type Parser struct {
	l      *lexer.Lexer
	src    string // source code here
	errors []string

	curToken  token.Token
	peekToken token.Token

	functions map[string]*function.Definition
	scope     Scope
	maxDepth  int
	depth     int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

type Option func(*Parser)

// WithScope makes the given variables available to the expression.
func WithScope(scope Scope) Option {
	return func(p *Parser) { p.scope = scope }
}

// WithFunctions replaces the callable function table.
func WithFunctions(functions map[string]*function.Definition) Option {
	return func(p *Parser) { p.functions = functions }
}

// WithMaxDepth bounds expression nesting.
func WithMaxDepth(n int) Option {
	return func(p *Parser) { p.maxDepth = n }
}

func New(l *lexer.Lexer, source string, opts ...Option) *Parser {
	p := &Parser{
		l:         l,
		src:       source,
		errors:    []string{},
		functions: builtins.Functions,
		scope:     Scope{},
		maxDepth:  ast.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.NIL, p.parseNil)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.BYTES, p.parseBytesLiteral)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.HASH, p.parsePrefixExpression)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseHashLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.SLASH, token.ASTERISK, token.PERCENT, token.CARET,
		token.EQ, token.NOT_EQ, token.LIKE, token.NOT_LIKE,
		token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.LOGICAL_AND, token.LOGICAL_OR, token.NULLISH,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.QUESTION, p.parseConditionalExpression)
	p.registerInfix(token.PERIOD, p.parseFunctionFirstCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse reads source into a program node, or returns an *Error listing every
// problem found.
func Parse(source string, opts ...Option) (*ast.ProgramNode, error) {
	p := New(lexer.New(source), source, opts...)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &Error{Messages: errs}
	}
	return program, nil
}

// Error collects the messages of a failed parse.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "\n")
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) addError(message string, args ...interface{}) {
	p.addErrorAt(p.curToken.Position, message, args...)
}

func (p *Parser) addErrorAt(pos int, message string, args ...interface{}) {
	line, col := util.GetLineAndColumn(p.src, pos)
	m := fmt.Sprintf(message, args...)
	msg := fmt.Sprintf("[%3d:%2d] %s", line, col, m)
	p.errors = append(p.errors, msg)
}

func (p *Parser) peekError(t token.TokenType) {
	p.addErrorAt(p.peekToken.Position, "expected next token to be %s, got %s instead", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	p.addError("unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.ILLEGAL:
		return fmt.Sprintf("ILLEGAL (%s)", tok.Literal)
	}
	return string(tok.Type)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) Errors() []string {
	return p.errors
}

// span covers from start to the end of the current token.
func (p *Parser) span(start int) ast.Span {
	return ast.Span{Start: start, End: p.curToken.End}
}

// ParseProgram reads ';' separated statements up to the end of input.
func (p *Parser) ParseProgram() *ast.ProgramNode {
	statements := []ast.Node{}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseExpression(LOWEST)
		if stmt != nil {
			statements = append(statements, stmt)
		}
		if !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.EOF) {
			p.addErrorAt(p.peekToken.Position, "expected ; or end of input, got %s", describe(p.peekToken))
			for !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.EOF) {
				p.nextToken()
			}
		}
		p.nextToken()
	}

	return ast.NewProgram(ast.Span{Start: 0, End: len(p.src)}, statements...)
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.addError("expression nesting exceeds %d levels", p.maxDepth)
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

// parseIdentifier resolves a name: a call when followed by '(', otherwise a
// declared variable.
func (p *Parser) parseIdentifier() ast.Node {
	ident := p.curToken

	if p.peekTokenIs(token.LPAREN) {
		fn, ok := p.functions[ident.Literal]
		if !ok {
			p.addError("unknown function %s", ident.Literal)
			return nil
		}
		p.nextToken()
		args, ok := p.parseExpressionList(token.RPAREN)
		if !ok {
			return nil
		}
		return ast.NewFunction(p.span(ident.Position), ident.Literal, fn, args...)
	}

	typ, ok := p.scope[ident.Literal]
	if !ok {
		p.addError("unknown identifier %s", ident.Literal)
		return nil
	}
	return ast.NewVariable(p.span(ident.Position), ident.Literal, typ)
}

func (p *Parser) literal(v object.Value) ast.Node {
	return ast.Literal(p.span(p.curToken.Position), v)
}

func (p *Parser) parseNumberLiteral() ast.Node {
	lit := p.curToken.Literal
	if strings.HasPrefix(lit, "0x") {
		value, err := strconv.ParseUint(lit[2:], 16, 64)
		if err != nil {
			p.addError("could not parse %q as number", lit)
			return nil
		}
		return p.literal(object.Number{Value: float64(value)})
	}

	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.addError("could not parse %q as number", lit)
		return nil
	}
	return p.literal(object.Number{Value: value})
}

func (p *Parser) parseStringLiteral() ast.Node {
	return p.literal(object.String{Value: p.curToken.Literal})
}

func (p *Parser) parseBytesLiteral() ast.Node {
	value, err := hex.DecodeString(p.curToken.Literal)
	if err != nil {
		p.addError("could not parse %q as bytes", p.curToken.Literal)
		return nil
	}
	return p.literal(object.Buffer{Value: value})
}

func (p *Parser) parseNil() ast.Node {
	return p.literal(object.NIL)
}

func (p *Parser) parseBoolean() ast.Node {
	return p.literal(object.NativeBoolToBooleanObject(p.curTokenIs(token.TRUE)))
}

func (p *Parser) parsePrefixExpression() ast.Node {
	start := p.curToken
	op := builtins.Prefix[start.Literal]

	p.nextToken()

	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}
	return ast.NewFunction(p.span(start.Position), op.Name, op.Fn, right)
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	op := builtins.Infix[p.curToken.Literal]

	precedence := p.curPrecedence()
	p.nextToken()

	var right ast.Node
	if precedence == POWER {
		// power is right-associative
		right = p.parseExpression(precedence - 1)
	} else {
		right = p.parseExpression(precedence)
	}
	if right == nil {
		return nil
	}

	return ast.NewFunction(p.span(left.Span().Start), op.Name, op.Fn, left, right)
}

// parseConditionalExpression reads c ? a : b, right-associative.
func (p *Parser) parseConditionalExpression(condition ast.Node) ast.Node {
	p.nextToken()
	consequence := p.parseExpression(LOWEST)
	if consequence == nil || !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	alternative := p.parseExpression(CONDITIONAL - 1)
	if alternative == nil {
		return nil
	}
	return ast.NewFunction(p.span(condition.Span().Start), "if", builtins.OperIfThenElse,
		condition, consequence, alternative)
}

func (p *Parser) parseGroupedExpression() ast.Node {
	p.nextToken()

	exp := p.parseExpression(LOWEST)

	if exp == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

// parseFunctionFirstCallExpression reads x.f(args) as f(x, args) and x.name as
// a member lookup.
func (p *Parser) parseFunctionFirstCallExpression(left ast.Node) ast.Node {
	if !p.expectPeek(token.IDENT) {
		return nil
	}

	name := p.curToken

	if p.peekTokenIs(token.LPAREN) {
		fn, ok := p.functions[name.Literal]
		if !ok {
			p.addError("unknown function %s", name.Literal)
			return nil
		}
		p.nextToken()
		args, ok := p.parseExpressionList(token.RPAREN)
		if !ok {
			return nil
		}
		args = append([]ast.Node{left}, args...)
		return ast.NewFunction(p.span(left.Span().Start), name.Literal, fn, args...)
	}

	key := ast.Literal(ast.Span{Start: name.Position, End: name.End}, object.String{Value: name.Literal})
	return ast.NewFunction(p.span(left.Span().Start), "by", builtins.OperBy, left, key)
}

// parseExpressionList reads comma separated expressions up to end, allowing a
// trailing comma.
func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Node, bool) {
	list := []ast.Node{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if !p.expectPeek(end) {
		return nil, false
	}

	for _, n := range list {
		if n == nil {
			return nil, false
		}
	}
	return list, true
}

func (p *Parser) parseArrayLiteral() ast.Node {
	start := p.curToken.Position

	elements, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}

	return ast.NewFunction(p.span(start), "array", builtins.OperArray, elements...)
}

func (p *Parser) parseIndexExpression(left ast.Node) ast.Node {
	p.nextToken() // consume '['

	index := p.parseExpression(LOWEST)

	if index == nil || !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return ast.NewFunction(p.span(left.Span().Start), "at", builtins.OperAt, left, index)
}

// parseHashLiteral reads {key: value, ...}. Keys are identifiers, strings,
// numbers or a bracketed expression.
func (p *Parser) parseHashLiteral() ast.Node {
	start := p.curToken.Position
	args := []ast.Node{}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()

		var key ast.Node
		switch p.curToken.Type {
		case token.IDENT, token.STRING, token.NUMBER, token.TRUE, token.FALSE, token.NIL:
			key = p.literal(object.String{Value: p.curToken.Literal})
		case token.LBRACKET:
			open := p.curToken.Position
			p.nextToken() // consume the '['
			expr := p.parseExpression(LOWEST)
			if expr == nil || !p.expectPeek(token.RBRACKET) {
				return nil
			}
			key = ast.NewFunction(p.span(open), "key", builtins.OperKey, expr)
		default:
			p.addError("expected object key, got %s", describe(p.curToken))
			return nil
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}

		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}

		args = append(args, key, value)

		if !p.peekTokenIs(token.RBRACE) && !p.expectPeek(token.COMMA) {
			return nil
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return ast.NewFunction(p.span(start), "object", builtins.OperObject, args...)
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
