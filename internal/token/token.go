package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // add, foobar, x, y, ...
	NUMBER = "NUMBER" // 1343456, 1.5e3, 0xff
	STRING = "STRING" // "foobar", 'foobar'
	BYTES  = "BYTES"  // 0x"414243"

	// Operators
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	CARET    = "^"
	HASH     = "#"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ       = "=="
	NOT_EQ   = "!="
	LIKE     = "~"
	NOT_LIKE = "!~"

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"
	NULLISH     = "??"
	QUESTION    = "?"

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	TRUE  = "TRUE"
	FALSE = "FALSE"
	NIL   = "NIL"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
	End      int // the src index just past the token
}

var keywords = map[string]TokenType{
	"null":  NIL,
	"true":  TRUE,
	"false": FALSE,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
