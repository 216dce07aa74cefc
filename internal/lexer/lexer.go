package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"formula/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// NextToken returns the next token, EOF once the input is exhausted.
func (l *Lexer) NextToken() token.Token {
	tok := l.nextToken()
	tok.End = l.position
	return tok
}

// Tokenize reads every token up to, but excluding, EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	tokens := make([]token.Token, 0)
	for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
		tokens = append(tokens, tok)
	}
	return tokens
}

func (l *Lexer) nextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	startPosition := l.position

	switch l.ch {
	case '+':
		tok = newToken(token.PLUS, l.ch, startPosition)
	case '-':
		tok = newToken(token.MINUS, l.ch, startPosition)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, startPosition)
	case '/':
		tok = newToken(token.SLASH, l.ch, startPosition)
	case '%':
		tok = newToken(token.PERCENT, l.ch, startPosition)
	case '^':
		tok = newToken(token.CARET, l.ch, startPosition)
	case '#':
		tok = newToken(token.HASH, l.ch, startPosition)
	case '~':
		tok = newToken(token.LIKE, l.ch, startPosition)
	case '!':
		tok = l.handleCompoundToken2(token.BANG, '=', token.NOT_EQ, '~', token.NOT_LIKE)
	case '=':
		tok = l.handleCompoundToken(token.ILLEGAL, '=', token.EQ)
	case '<':
		tok = l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '&':
		tok = l.handleCompoundToken(token.ILLEGAL, '&', token.LOGICAL_AND)
	case '|':
		tok = l.handleCompoundToken(token.ILLEGAL, '|', token.LOGICAL_OR)
	case '?':
		tok = l.handleCompoundToken(token.QUESTION, '?', token.NULLISH)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumberToken(startPosition)
		}
		tok = newToken(token.PERIOD, l.ch, startPosition)
	case ',':
		tok = newToken(token.COMMA, l.ch, startPosition)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, startPosition)
	case ':':
		tok = newToken(token.COLON, l.ch, startPosition)
	case '(':
		tok = newToken(token.LPAREN, l.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, l.ch, startPosition)
	case '{':
		tok = newToken(token.LBRACE, l.ch, startPosition)
	case '}':
		tok = newToken(token.RBRACE, l.ch, startPosition)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, startPosition)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, startPosition)
	case '"', '\'':
		return l.readString(startPosition)
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Position = startPosition
		return tok
	default:
		if l.ch == '0' && l.peekChar() == 'x' {
			if l.peekTwoChars() == '"' {
				return l.readByteArrayLiteral(startPosition)
			}
			return l.readHexLiteral(startPosition)
		}
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Position = startPosition
			return tok
		}
		if isDigit(l.ch) {
			return l.readNumberToken(startPosition)
		}
		tok = newToken(token.ILLEGAL, l.ch, startPosition)
	}

	l.readChar()
	return tok
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	}
	return newToken(t, l.ch, startPosition)
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	startPosition := l.position
	peek := l.peekChar()
	if peek == ch1 {
		return l.handleCompoundToken(t, ch1, t1)
	}
	if peek == ch2 {
		return l.handleCompoundToken(t, ch2, t2)
	}
	return newToken(t, l.ch, startPosition)
}

// skipWhitespace also skips // line comments.
func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '/':
			if l.peekChar() == '/' {
				l.skipToLineEnd()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// peekTwoChars returns the rune after next without advancing; returns 0 if unavailable
func (l *Lexer) peekTwoChars() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	idx := l.readPosition + size
	if idx >= len(l.input) {
		return 0
	}
	r2, _ := utf8.DecodeRuneInString(l.input[idx:])
	return r2
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumberToken(start int) token.Token {
	literal, err := l.readNumber()
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Literal: err.Error(), Position: start}
	}
	return token.Token{Type: token.NUMBER, Literal: literal, Position: start}
}

// readNumber reads digits with optional fraction and exponent. Underscores may
// separate digits and are dropped from the literal.
func (l *Lexer) readNumber() (string, error) {
	numStr := ""
	readDigits := func() error {
		for isDigit(l.ch) || l.ch == '_' {
			if l.ch == '_' {
				prev, _ := utf8.DecodeLastRuneInString(l.input[:l.position])
				if !isDigit(prev) || !isDigit(l.peekChar()) {
					return fmt.Errorf("underscore must be between digits in number literal")
				}
			} else {
				numStr += string(l.ch)
			}
			l.readChar()
		}
		return nil
	}
	if err := readDigits(); err != nil {
		return "", err
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		numStr += string(l.ch)
		l.readChar()
		if err := readDigits(); err != nil {
			return "", err
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		numStr += string(l.ch)
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			numStr += string(l.ch)
			l.readChar()
		}
		if !isDigit(l.ch) {
			return "", fmt.Errorf("expected digit in number exponent")
		}
		for isDigit(l.ch) {
			numStr += string(l.ch)
			l.readChar()
		}
	}
	return numStr, nil
}

// readHexLiteral reads 0x followed by hex digits, keeping the prefix.
func (l *Lexer) readHexLiteral(start int) token.Token {
	hexStr := "0x"
	l.readChar() // consume '0'
	l.readChar() // consume 'x'
	if !isHexDigit(l.ch) {
		return token.Token{Type: token.ILLEGAL, Literal: "expected hex digit after '0x'", Position: start}
	}
	for isHexDigit(l.ch) || l.ch == '_' {
		if l.ch == '_' {
			if !isHexDigit(l.peekChar()) {
				break
			}
		} else {
			hexStr += string(l.ch)
		}
		l.readChar()
	}
	return token.Token{Type: token.NUMBER, Literal: hexStr, Position: start}
}

// readByteArrayLiteral reads 0x"..." and yields the hex digits between the
// quotes.
func (l *Lexer) readByteArrayLiteral(start int) token.Token {
	l.readChar() // consume 0
	l.readChar() // consume x
	l.readChar() // consume opening "
	from := l.position
	for isHexDigit(l.ch) {
		l.readChar()
	}
	if l.ch != '"' {
		return token.Token{Type: token.ILLEGAL, Literal: "unterminated byte literal", Position: start}
	}
	hexStr := l.input[from:l.position]
	l.readChar() // consume closing "
	if len(hexStr)%2 != 0 {
		return token.Token{Type: token.ILLEGAL, Literal: "byte literal must have even length", Position: start}
	}
	return token.Token{Type: token.BYTES, Literal: hexStr, Position: start}
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
