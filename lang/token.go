package lang

import (
	"strconv"
)

// Position identifies a location in source text.
// Line and Column are 1-based; Column counts runes, not bytes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p refers to an actual source location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}

	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenVariable
	TokenKeyword
	TokenOperator
	TokenNumber
	TokenString
	TokenPunct
)

func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenVariable:
		return "variable"
	case TokenKeyword:
		return "keyword"
	case TokenOperator:
		return "operator"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenPunct:
		return "punctuation"
	default:
		return "unknown"
	}
}

// Token is a single lexical unit with its source position.
//
// Text holds the lexeme for identifiers, keywords, operators and
// punctuation, the name without its sigil for variables, and the decoded
// contents for strings. Num holds the value of number tokens.
type Token struct {
	Kind TokenKind
	Text string
	Num  float64
	Pos  Position
}

// String describes the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return t.Kind.String()
	case TokenVariable:
		return "@" + t.Text
	case TokenString:
		return strconv.Quote(t.Text)
	case TokenNumber:
		return t.Text
	default:
		return "'" + t.Text + "'"
	}
}

func (t Token) is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) isPunct(text string) bool { return t.is(TokenPunct, text) }

func (t Token) isKeyword(text string) bool { return t.is(TokenKeyword, text) }

var keywords = map[string]struct{}{
	"if":     {},
	"else":   {},
	"for":    {},
	"in":     {},
	"while":  {},
	"return": {},
	"true":   {},
	"false":  {},
	"none":   {},
}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	_, ok := keywords[s]

	return ok
}
