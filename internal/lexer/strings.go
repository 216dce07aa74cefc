package lexer

import (
	"strconv"
	"strings"

	"formula/internal/token"
)

// readString reads a string delimited by the current quote rune, resolving
// escape sequences. The token literal is the decoded content.
func (l *Lexer) readString(start int) token.Token {
	var result strings.Builder
	quote := l.ch
	l.readChar() // consume the opening quote

	for l.ch != quote {
		switch l.ch {
		case 0, '\n':
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Position: start}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case 'r':
				result.WriteRune('\r')
			case '0':
				result.WriteRune(0)
			case 'u':
				r, ok := l.readUnicodeEscape()
				if !ok {
					return token.Token{Type: token.ILLEGAL, Literal: "invalid unicode escape", Position: start}
				}
				result.WriteRune(r)
			case '\\', '"', '\'':
				result.WriteRune(l.ch)
			case 0:
				return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Position: start}
			default:
				return token.Token{Type: token.ILLEGAL, Literal: "invalid escape \\" + string(l.ch), Position: start}
			}
		default:
			result.WriteRune(l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume the closing quote

	return token.Token{Type: token.STRING, Literal: result.String(), Position: start}
}

// readUnicodeEscape reads the four hex digits after \u. It leaves the lexer on
// the last digit.
func (l *Lexer) readUnicodeEscape() (rune, bool) {
	if l.readPosition+4 > len(l.input) {
		return 0, false
	}
	digits := l.input[l.readPosition : l.readPosition+4]
	code, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		l.readChar()
	}
	return rune(code), true
}
