package lang

import (
	"context"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"
)

// ParseReader parses a script read from r.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*AST, error) {
	source, err := readSource(r)
	if err != nil {
		return nil, err
	}

	return ParseString(ctx, source, opts...)
}

// readSource drains r through a read-ahead buffer so the next chunk is
// fetched while the previous one is copied.
func readSource(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err)
	}

	return string(data), nil
}

// ParseString parses a script. Lexing completes before parsing begins, and
// the first error of either phase is returned with its position.
func ParseString(ctx context.Context, source string, opts ...Option) (*AST, error) {
	cfg := makeConfig(opts...)

	toks, err := Lex(source)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, maxDepth: cfg.maxDepth}

	root, err := p.parseScript()
	if err != nil {
		return nil, err
	}

	cfg.logger.TraceContext(ctx, "parse complete",
		slog.Int("tokens", len(toks)),
		slog.Int("statements", len(root.Statements)))

	return &AST{Root: root, Source: source}, nil
}

// parser is a recursive-descent parser over a complete token slice.
type parser struct {
	toks     []Token
	pos      int
	depth    int
	maxDepth int
}

// binaryLevels lists binary operators from lowest to highest precedence.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.pos+n]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if tok.Kind != TokenEOF {
		p.pos++
	}

	return tok
}

func (p *parser) errorExpected(what string) error {
	tok := p.peek()

	return ErrSyntax.WithPosition(tok.Pos).
		Detailf("expected %s, found %s", what, tok).
		With(slog.String("expected", what), slog.String("found", tok.String()))
}

func (p *parser) expectPunct(text string) (Token, error) {
	if !p.peek().isPunct(text) {
		return Token{}, p.errorExpected("'" + text + "'")
	}

	return p.advance(), nil
}

// enter guards recursion depth; every call must be paired with leave.
func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return ErrSyntax.WithPosition(p.peek().Pos).
			Detailf("nesting exceeds maximum depth %d", p.maxDepth)
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

// parseScript parses statements up to end of input.
func (p *parser) parseScript() (*Block, error) {
	block := &Block{At: p.peek().Pos}

	for p.peek().Kind != TokenEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		block.Statements = append(block.Statements, stmt)
	}

	return block, nil
}

// parseBlock parses '{' Statement* '}'.
func (p *parser) parseBlock() (*Block, error) {
	open, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	block := &Block{At: open.Pos}

	for !p.peek().isPunct("}") {
		if p.peek().Kind == TokenEOF {
			return nil, p.errorExpected("'}'")
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		block.Statements = append(block.Statements, stmt)
	}

	p.advance()

	return block, nil
}

// parseStatement parses one statement and its terminator. The ';' may be
// omitted after a statement ending in a block and before '}' or end of
// input.
func (p *parser) parseStatement() (Node, error) {
	var (
		stmt Node
		err  error
	)

	if tok := p.peek(); tok.isKeyword("return") {
		stmt, err = p.parseReturn()
	} else {
		stmt, err = p.parseExpression()
	}

	if err != nil {
		return nil, err
	}

	switch next := p.peek(); {
	case next.isPunct(";"):
		p.advance()
	case next.isPunct("}"), next.Kind == TokenEOF:
	default:
		switch stmt.(type) {
		case *If, *ForIn, *While:
		default:
			return nil, p.errorExpected("';'")
		}
	}

	return stmt, nil
}

func (p *parser) parseReturn() (Node, error) {
	tok := p.advance()

	if next := p.peek(); next.isPunct(";") || next.isPunct("}") ||
		next.Kind == TokenEOF {
		return &Return{At: tok.Pos}, nil
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Return{Value: value, At: tok.Pos}, nil
}

// parseExpression parses an assignment or a binary expression.
func (p *parser) parseExpression() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if tok := p.peek(); tok.Kind == TokenVariable &&
		p.peekAt(1).is(TokenOperator, "=") {
		p.advance()
		p.advance()

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		return &Assignment{Name: tok.Text, Value: value, At: tok.Pos}, nil
	}

	return p.parseBinary(0)
}

// parseBinary parses left-associative operators of binaryLevels[level] and
// above.
func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != TokenOperator || !hasOperator(binaryLevels[level], tok.Text) {
			return left, nil
		}

		p.advance()

		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}

		left = &BinaryOp{Op: tok.Text, Left: left, Right: right, At: tok.Pos}
	}
}

func hasOperator(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}

	return false
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.is(TokenOperator, "!") || tok.is(TokenOperator, "-") {
		p.advance()

		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &UnaryOp{Op: tok.Text, Operand: operand, At: tok.Pos}, nil
	}

	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any index, field
// or method suffixes.
func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch tok := p.peek(); {
		case tok.isPunct("["):
			open := p.advance()

			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}

			node = &Index{Target: node, Index: index, At: open.Pos}

		case tok.isPunct("."):
			dot := p.advance()

			name := p.peek()
			if name.Kind != TokenIdent {
				return nil, p.errorExpected("field or method name")
			}

			p.advance()

			if !p.peek().isPunct("(") {
				node = &Field{Target: node, Name: name.Text, At: dot.Pos}

				continue
			}

			args, err := p.parseSequence("(", ")")
			if err != nil {
				return nil, err
			}

			node = &MethodCall{Receiver: node, Method: name.Text, Args: args, At: dot.Pos}

		default:
			return node, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenNumber:
		p.advance()

		return &Literal{Value: NumberValue(tok.Num), At: tok.Pos}, nil

	case TokenString:
		p.advance()

		return &Literal{Value: StringValue(tok.Text), At: tok.Pos}, nil

	case TokenVariable:
		p.advance()

		return &Reference{Name: tok.Text, At: tok.Pos}, nil

	case TokenKeyword:
		switch tok.Text {
		case "true", "false":
			p.advance()

			return &Literal{Value: BoolValue(tok.Text == "true"), At: tok.Pos}, nil
		case "none":
			p.advance()

			return &Literal{Value: None, At: tok.Pos}, nil
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		}

	case TokenIdent:
		return p.parseIdentifierExpr()

	case TokenPunct:
		switch tok.Text {
		case "(":
			p.advance()

			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}

			return inner, nil
		case "[":
			return p.parseList()
		case "{":
			return p.parseMap()
		}
	}

	return nil, p.errorExpected("expression")
}

// parseIdentifierExpr parses the constructs introduced by a bare
// identifier: an element "tag { ... }", a root call "fn(...)", a module
// call "mod::fn(...)" or a function handle "mod::fn".
func (p *parser) parseIdentifierExpr() (Node, error) {
	ident := p.advance()

	switch next := p.peek(); {
	case next.isPunct("{"):
		return p.parseElement(ident)

	case next.isPunct("("):
		return p.parseCall(ident, "", ident.Text)

	case next.isPunct("::"):
		p.advance()

		fn := p.peek()
		if fn.Kind != TokenIdent {
			return nil, p.errorExpected("function name")
		}

		p.advance()

		if p.peek().isPunct("(") {
			return p.parseCall(ident, ident.Text, fn.Text)
		}

		return &FuncRef{Module: ident.Text, Function: fn.Text, At: ident.Pos}, nil
	}

	return nil, p.errorExpected("'{', '(' or '::' after " + ident.String())
}

func (p *parser) parseCall(start Token, module, function string) (Node, error) {
	args, err := p.parseSequence("(", ")")
	if err != nil {
		return nil, err
	}

	return &Call{Module: module, Function: function, Args: args, At: start.Pos}, nil
}

func (p *parser) parseList() (Node, error) {
	open := p.peek()

	items, err := p.parseSequence("[", "]")
	if err != nil {
		return nil, err
	}

	return &ListLiteral{Items: items, At: open.Pos}, nil
}

// parseSequence parses open (Expression (',' Expression)* ','?)? closing.
func (p *parser) parseSequence(open, closing string) ([]Node, error) {
	if _, err := p.expectPunct(open); err != nil {
		return nil, err
	}

	items := []Node{}

	for !p.peek().isPunct(closing) {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		items = append(items, item)

		if !p.peek().isPunct(",") {
			break
		}

		p.advance()
	}

	if _, err := p.expectPunct(closing); err != nil {
		return nil, err
	}

	return items, nil
}

// parseKey parses an entry key: a string or an identifier.
func (p *parser) parseKey() (Token, bool) {
	tok := p.peek()
	if (tok.Kind == TokenString || tok.Kind == TokenIdent) &&
		p.peekAt(1).isPunct(":") {
		p.advance()
		p.advance()

		return tok, true
	}

	return tok, false
}

func (p *parser) parseMap() (Node, error) {
	open := p.advance()
	m := &MapLiteral{At: open.Pos}

	for !p.peek().isPunct("}") {
		key, ok := p.parseKey()
		if !ok {
			return nil, p.errorExpected("map key")
		}

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		m.Entries = append(m.Entries, Attribute{Key: key.Text, Value: value, At: key.Pos})

		if !p.peek().isPunct(",") {
			break
		}

		p.advance()
	}

	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	return m, nil
}

// parseElement parses the body of "tag { entry, ... }". An entry "key: expr"
// is an attribute; any other expression is a child. Commas between entries
// are optional.
func (p *parser) parseElement(tag Token) (Node, error) {
	p.advance() // '{'

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	el := &ElementConstruct{Tag: tag.Text, At: tag.Pos}

	for !p.peek().isPunct("}") {
		if p.peek().Kind == TokenEOF {
			return nil, p.errorExpected("'}'")
		}

		if key, ok := p.parseKey(); ok {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			el.Attrs = append(el.Attrs, Attribute{Key: key.Text, Value: value, At: key.Pos})
		} else {
			child, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			el.Children = append(el.Children, child)
		}

		if p.peek().isPunct(",") {
			p.advance()
		}
	}

	p.advance()

	return el, nil
}

// parseIf parses "if Cond Block (else (If | Block))?".
func (p *parser) parseIf() (Node, error) {
	tok := p.advance()

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	n := &If{Cond: cond, Then: then, At: tok.Pos}

	if !p.peek().isKeyword("else") {
		return n, nil
	}

	p.advance()

	if next := p.peek(); next.isKeyword("if") {
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}

		n.Else = &Block{Statements: []Node{nested}, At: next.Pos}

		return n, nil
	}

	n.Else, err = p.parseBlock()
	if err != nil {
		return nil, err
	}

	return n, nil
}

// parseFor parses "for @var in Expr Block".
func (p *parser) parseFor() (Node, error) {
	tok := p.advance()

	v := p.peek()
	if v.Kind != TokenVariable {
		return nil, p.errorExpected("loop variable")
	}

	p.advance()

	if !p.peek().isKeyword("in") {
		return nil, p.errorExpected("'in'")
	}

	p.advance()

	iter, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ForIn{Var: v.Text, Iter: iter, Body: body, At: tok.Pos}, nil
}

func (p *parser) parseWhile() (Node, error) {
	tok := p.advance()

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &While{Cond: cond, Body: body, At: tok.Pos}, nil
}
