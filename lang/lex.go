package lang

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer holds the scanning state over one source text.
type lexer struct {
	src  string
	off  int
	line int
	col  int
	toks []Token
}

// Lex splits source into tokens, terminated by a single [TokenEOF].
// Comments and whitespace are discarded. The first malformed token aborts
// lexing with an [ErrLex] error and no tokens are returned.
func Lex(source string) ([]Token, error) {
	l := &lexer{src: source, line: 1, col: 1}

	for {
		err := l.skipWhitespaceAndComments()
		if err != nil {
			return nil, err
		}

		if l.eof() {
			l.toks = append(l.toks, Token{Kind: TokenEOF, Pos: l.position()})

			return l.toks, nil
		}

		tok, err := l.next()
		if err != nil {
			return nil, err
		}

		l.toks = append(l.toks, tok)
	}
}

func (l *lexer) eof() bool { return l.off >= len(l.src) }

func (l *lexer) position() Position {
	return Position{Offset: l.off, Line: l.line, Column: l.col}
}

// peek returns the rune at the current offset without consuming it.
func (l *lexer) peek() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n runes past the current offset.
func (l *lexer) peekAt(n int) rune {
	off := l.off

	for ; n > 0 && off < len(l.src); n-- {
		_, size := utf8.DecodeRuneInString(l.src[off:])
		off += size
	}

	if off >= len(l.src) {
		return utf8.RuneError
	}

	r, _ := utf8.DecodeRuneInString(l.src[off:])

	return r
}

// advance consumes one rune, tracking line and column.
func (l *lexer) advance() rune {
	if l.eof() {
		return utf8.RuneError
	}

	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func (l *lexer) errorf(pos Position, format string, args ...any) error {
	return ErrLex.WithPosition(pos).Detailf(format, args...)
}

// skipWhitespaceAndComments skips whitespace, "//" and "#" line comments,
// and "/* */" block comments.
func (l *lexer) skipWhitespaceAndComments() error {
	for !l.eof() {
		r := l.peek()

		switch {
		case unicode.IsSpace(r):
			l.advance()

		case r == '#' || (r == '/' && l.peekAt(1) == '/'):
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}

		case r == '/' && l.peekAt(1) == '*':
			pos := l.position()

			l.advance()
			l.advance()

			for {
				if l.eof() {
					return l.errorf(pos, "unterminated block comment")
				}

				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()

					break
				}

				l.advance()
			}

		default:
			return nil
		}
	}

	return nil
}

// next scans one token starting at a non-space, non-comment rune.
func (l *lexer) next() (Token, error) {
	pos := l.position()
	r := l.peek()

	switch {
	case r == '"':
		return l.scanString()

	case isDigit(r):
		return l.scanNumber()

	case r == '@':
		l.advance()

		if !isIdentifierStart(l.peek()) {
			return Token{}, l.errorf(pos, "expected variable name after '@'")
		}

		name := l.scanIdentifier(false)

		return Token{Kind: TokenVariable, Text: name, Pos: pos}, nil

	case isIdentifierStart(r):
		name := l.scanIdentifier(true)

		kind := TokenIdent
		if IsKeyword(name) {
			kind = TokenKeyword
		}

		return Token{Kind: kind, Text: name, Pos: pos}, nil
	}

	// Two-rune operators and punctuation take precedence.
	if pair := string([]rune{r, l.peekAt(1)}); isPair(pair) {
		l.advance()
		l.advance()

		kind := TokenOperator
		if pair == "::" {
			kind = TokenPunct
		}

		return Token{Kind: kind, Text: pair, Pos: pos}, nil
	}

	switch r {
	case '{', '}', '[', ']', '(', ')', ',', ':', ';', '.':
		l.advance()

		return Token{Kind: TokenPunct, Text: string(r), Pos: pos}, nil

	case '+', '-', '*', '/', '%', '<', '>', '!', '=':
		l.advance()

		return Token{Kind: TokenOperator, Text: string(r), Pos: pos}, nil
	}

	return Token{}, l.errorf(pos, "unexpected character %q", r)
}

func isPair(s string) bool {
	switch s {
	case "::", "==", "!=", "<=", ">=", "&&", "||":
		return true
	}

	return false
}

// scanIdentifier consumes an identifier. When hyphens is set, a '-'
// directly followed by a letter continues the identifier, so that tag names
// and attribute keys like data-id lex as one token.
func (l *lexer) scanIdentifier(hyphens bool) string {
	start := l.off

	for !l.eof() {
		r := l.peek()

		switch {
		case isIdentifierContinue(r):
			l.advance()

		case hyphens && r == '-' && unicode.IsLetter(l.peekAt(1)):
			l.advance()

		default:
			return l.src[start:l.off]
		}
	}

	return l.src[start:l.off]
}

func (l *lexer) scanNumber() (Token, error) {
	pos := l.position()
	start := l.off

	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()

		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if r := l.peek(); r == 'e' || r == 'E' {
		n := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			n = 2
		}

		if isDigit(l.peekAt(n)) {
			for ; n > 0; n-- {
				l.advance()
			}

			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	text := l.src[start:l.off]

	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, ErrLex.WithPosition(pos).
			Detailf("invalid number %q", text).
			Wrap(err)
	}

	return Token{Kind: TokenNumber, Text: text, Num: num, Pos: pos}, nil
}

func (l *lexer) scanString() (Token, error) {
	pos := l.position()

	l.advance() // opening quote

	var sb strings.Builder

	for {
		if l.eof() {
			return Token{}, l.errorf(pos, "unterminated string")
		}

		r := l.advance()

		switch r {
		case '"':
			return Token{Kind: TokenString, Text: sb.String(), Pos: pos}, nil

		case '\\':
			err := l.scanEscape(&sb)
			if err != nil {
				return Token{}, err
			}

		default:
			sb.WriteRune(r)
		}
	}
}

// scanEscape decodes the escape sequence following a backslash.
func (l *lexer) scanEscape(sb *strings.Builder) error {
	pos := l.position()

	if l.eof() {
		return l.errorf(pos, "unterminated escape sequence")
	}

	r := l.advance()

	switch r {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case '0':
		sb.WriteByte(0)
	case '\\', '"', '\'':
		sb.WriteRune(r)
	case 'u':
		code, err := l.scanUnicodeEscape(pos)
		if err != nil {
			return err
		}

		sb.WriteRune(code)
	default:
		return l.errorf(pos, "invalid escape sequence '\\%c'", r)
	}

	return nil
}

// scanUnicodeEscape decodes either \uXXXX or \u{X...} (1 to 6 hex digits).
func (l *lexer) scanUnicodeEscape(pos Position) (rune, error) {
	var digits strings.Builder

	if l.peek() == '{' {
		l.advance()

		for l.peek() != '}' {
			if l.eof() || !isHexDigit(l.peek()) || digits.Len() == 6 {
				return 0, l.errorf(pos, "invalid unicode escape")
			}

			digits.WriteRune(l.advance())
		}

		l.advance()
	} else {
		for range 4 {
			if !isHexDigit(l.peek()) {
				return 0, l.errorf(pos, "invalid unicode escape")
			}

			digits.WriteRune(l.advance())
		}
	}

	code, err := strconv.ParseUint(digits.String(), 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, l.errorf(pos, "invalid unicode code point %q", digits.String())
	}

	return rune(code), nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentifierStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentifierContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s lexes as a single non-keyword identifier.
func IsIdentifier(s string) bool {
	if s == "" || IsKeyword(s) {
		return false
	}

	prev := rune(0)

	for i, r := range s {
		var ok bool

		switch {
		case i == 0:
			ok = isIdentifierStart(r)
		case prev == '-':
			ok = unicode.IsLetter(r)
		default:
			ok = r == '-' || isIdentifierContinue(r)
		}

		if !ok {
			return false
		}

		prev = r
	}

	return prev != '-'
}
