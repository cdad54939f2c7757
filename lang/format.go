package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

// FormatValue returns v in single-line DioScript literal syntax.
func FormatValue(v Value) string {
	f := &formatter{}
	f.value(v, 0)

	return f.String()
}

// Format writes v to w in DioScript literal syntax. With indent > 0, maps
// and elements span multiple lines indented by that many spaces per level.
func Format(w io.Writer, v Value, indent int) error {
	f := &formatter{indent: max(indent, 0)}
	f.value(v, 0)
	f.WriteByte('\n')

	_, err := io.WriteString(w, f.String())

	return err
}

// FormatHTML writes v as HTML. Elements render as markup and every other
// value as escaped text.
func FormatHTML(w io.Writer, v Value) error {
	var sb strings.Builder

	writeHTMLValue(&sb, v)
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())

	return err
}

// FormatJSON writes v as JSON, preserving map and attribute order.
func FormatJSON(w io.Writer, v Value, indent int) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}

	if indent > 0 {
		var buf bytes.Buffer

		err = json.Indent(&buf, data, "", strings.Repeat(" ", indent))
		if err != nil {
			return err
		}

		data = buf.Bytes()
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// FormatYAML writes v as YAML, preserving map and attribute order. An
// indent of 0 selects flow style.
func FormatYAML(ctx context.Context, w io.Writer, v Value, indent int) error {
	opts := []yaml.EncodeOption{yaml.Indent(max(indent, 2))}
	if indent <= 0 {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v.yamlValue(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	return strconv.FormatFloat(n, 'g', -1, 64)
}

// formatKey renders a map or attribute key, bare when it is an identifier.
func formatKey(k string, bare bool) string {
	if bare && IsIdentifier(k) {
		return k
	}

	return quote(k)
}

// quote renders s as a string literal using only the escapes the lexer
// understands.
func quote(s string) string {
	var sb strings.Builder

	sb.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				sb.WriteRune(r)
			} else {
				fmt.Fprintf(&sb, `\u{%X}`, r)
			}
		}
	}

	sb.WriteByte('"')

	return sb.String()
}

// formatter renders values and syntax trees as DioScript source.
type formatter struct {
	strings.Builder

	indent int
}

func (f *formatter) newline(depth int) {
	if f.indent == 0 {
		return
	}

	f.WriteByte('\n')
	f.WriteString(strings.Repeat(" ", depth*f.indent))
}

// separator is written between entries of a braced body.
func (f *formatter) separator(depth int) {
	f.WriteByte(',')

	if f.indent == 0 {
		f.WriteByte(' ')
	} else {
		f.newline(depth)
	}
}

// open starts a braced body with at least one entry.
func (f *formatter) open(depth int) {
	f.WriteByte('{')

	if f.indent == 0 {
		f.WriteByte(' ')
	} else {
		f.newline(depth + 1)
	}
}

func (f *formatter) close(depth int) {
	if f.indent == 0 {
		f.WriteString(" }")
	} else {
		f.newline(depth)
		f.WriteByte('}')
	}
}

func (f *formatter) value(v Value, depth int) {
	switch v.Kind() {
	case KindNone:
		f.WriteString("none")

	case KindBool:
		b, _ := v.AsBool()
		f.WriteString(strconv.FormatBool(b))

	case KindNumber:
		n, _ := v.AsNumber()
		f.WriteString(formatNumber(n))

	case KindString:
		s, _ := v.AsString()
		f.WriteString(quote(s))

	case KindList:
		items, _ := v.AsList()

		f.WriteByte('[')

		for i, item := range items {
			if i > 0 {
				f.WriteString(", ")
			}

			f.value(item, depth)
		}

		f.WriteByte(']')

	case KindMap:
		m, _ := v.AsMap()
		if m.Len() == 0 {
			f.WriteString("{}")

			return
		}

		f.open(depth)

		i := 0

		for k, item := range m.All() {
			if i > 0 {
				f.separator(depth + 1)
			}

			f.WriteString(formatKey(k, false))
			f.WriteString(": ")
			f.value(item, depth+1)

			i++
		}

		f.close(depth)

	case KindElement:
		el, _ := v.AsElement()

		f.WriteString(el.Tag)
		f.WriteByte(' ')

		if el.Attrs.Len() == 0 && len(el.Children) == 0 {
			f.WriteString("{}")

			return
		}

		f.open(depth)

		i := 0

		for k, item := range el.Attrs.All() {
			if i > 0 {
				f.separator(depth + 1)
			}

			f.WriteString(formatKey(k, true))
			f.WriteString(": ")
			f.value(item, depth+1)

			i++
		}

		for _, child := range el.Children {
			if i > 0 {
				f.separator(depth + 1)
			}

			f.value(child, depth+1)

			i++
		}

		f.close(depth)

	case KindFunction:
		fn, _ := v.AsFunction()
		f.WriteString(fn.String())
	}
}

// Format writes the AST to w as DioScript source, one statement per line,
// indenting blocks by indent spaces per level.
func (ast *AST) Format(w io.Writer, indent int) error {
	f := &formatter{indent: max(indent, 1)}

	for _, stmt := range ast.Root.Statements {
		f.statement(stmt, 0)
		f.WriteByte('\n')
	}

	_, err := io.WriteString(w, f.String())

	return err
}

func (f *formatter) statement(n Node, depth int) {
	f.node(n, depth)

	switch n.(type) {
	case *If, *ForIn, *While:
	default:
		f.WriteByte(';')
	}
}

func (f *formatter) block(b *Block, depth int) {
	if len(b.Statements) == 0 {
		f.WriteString("{}")

		return
	}

	f.WriteByte('{')

	for _, stmt := range b.Statements {
		f.newline(depth + 1)
		f.statement(stmt, depth+1)
	}

	f.newline(depth)
	f.WriteByte('}')
}

// precedence returns the binding strength of n; higher binds tighter.
func precedence(n Node) int {
	switch n := n.(type) {
	case *Assignment:
		return 0
	case *BinaryOp:
		for i, level := range binaryLevels {
			if hasOperator(level, n.Op) {
				return i + 1
			}
		}
	case *UnaryOp:
		return len(binaryLevels) + 1
	}

	return len(binaryLevels) + 2
}

// operand renders n, parenthesized when it binds looser than min.
func (f *formatter) operand(n Node, minPrec, depth int) {
	if precedence(n) < minPrec {
		f.WriteByte('(')
		f.node(n, depth)
		f.WriteByte(')')

		return
	}

	f.node(n, depth)
}

func (f *formatter) node(n Node, depth int) {
	switch n := n.(type) {
	case *Literal:
		f.value(n.Value, depth)

	case *Reference:
		f.WriteString("@" + n.Name)

	case *Assignment:
		f.WriteString("@" + n.Name + " = ")
		f.node(n.Value, depth)

	case *BinaryOp:
		prec := precedence(n)
		f.operand(n.Left, prec, depth)
		f.WriteString(" " + n.Op + " ")
		f.operand(n.Right, prec+1, depth)

	case *UnaryOp:
		f.WriteString(n.Op)
		f.operand(n.Operand, precedence(n), depth)

	case *Block:
		f.block(n, depth)

	case *If:
		f.WriteString("if ")
		f.node(n.Cond, depth)
		f.WriteByte(' ')
		f.block(n.Then, depth)

		if n.Else == nil {
			return
		}

		f.WriteString(" else ")

		if len(n.Else.Statements) == 1 {
			if nested, ok := n.Else.Statements[0].(*If); ok {
				f.node(nested, depth)

				return
			}
		}

		f.block(n.Else, depth)

	case *ForIn:
		f.WriteString("for @" + n.Var + " in ")
		f.node(n.Iter, depth)
		f.WriteByte(' ')
		f.block(n.Body, depth)

	case *While:
		f.WriteString("while ")
		f.node(n.Cond, depth)
		f.WriteByte(' ')
		f.block(n.Body, depth)

	case *Return:
		f.WriteString("return")

		if n.Value != nil {
			f.WriteByte(' ')
			f.node(n.Value, depth)
		}

	case *ElementConstruct:
		f.WriteString(n.Tag + " ")

		if len(n.Attrs) == 0 && len(n.Children) == 0 {
			f.WriteString("{}")

			return
		}

		f.open(depth)

		for i, a := range n.Attrs {
			if i > 0 {
				f.separator(depth + 1)
			}

			f.WriteString(formatKey(a.Key, true) + ": ")
			f.node(a.Value, depth+1)
		}

		for i, c := range n.Children {
			if i > 0 || len(n.Attrs) > 0 {
				f.separator(depth + 1)
			}

			f.node(c, depth+1)
		}

		f.close(depth)

	case *ListLiteral:
		f.WriteByte('[')

		for i, item := range n.Items {
			if i > 0 {
				f.WriteString(", ")
			}

			f.node(item, depth)
		}

		f.WriteByte(']')

	case *MapLiteral:
		if len(n.Entries) == 0 {
			f.WriteString("{}")

			return
		}

		f.open(depth)

		for i, e := range n.Entries {
			if i > 0 {
				f.separator(depth + 1)
			}

			f.WriteString(formatKey(e.Key, false) + ": ")
			f.node(e.Value, depth+1)
		}

		f.close(depth)

	case *Call:
		f.WriteString(qualified(n.Module, n.Function) + "(")

		for i, a := range n.Args {
			if i > 0 {
				f.WriteString(", ")
			}

			f.node(a, depth)
		}

		f.WriteByte(')')

	case *Index:
		f.operand(n.Target, len(binaryLevels)+2, depth)
		f.WriteByte('[')
		f.node(n.Index, depth)
		f.WriteByte(']')

	case *FuncRef:
		f.WriteString(qualified(n.Module, n.Function))

	case *Field:
		f.operand(n.Target, len(binaryLevels)+2, depth)
		f.WriteString("." + n.Name)

	case *MethodCall:
		f.operand(n.Receiver, len(binaryLevels)+2, depth)
		f.WriteString("." + n.Method + "(")

		for i, a := range n.Args {
			if i > 0 {
				f.WriteString(", ")
			}

			f.node(a, depth)
		}

		f.WriteByte(')')
	}
}
