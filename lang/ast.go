package lang

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AST is a parsed script. It is immutable once built and may be evaluated
// any number of times, concurrently, by runtimes sharing a [Cache].
type AST struct {
	Root   *Block
	Source string
}

// Node is an element of the syntax tree.
// The set of implementations is closed; consumers switch on the concrete
// type.
type Node interface {
	Pos() Position
	node()
}

type (
	// Literal is a constant None, Bool, Number or String.
	Literal struct {
		Value Value
		At    Position
	}

	// Reference reads the variable @Name.
	Reference struct {
		Name string
		At   Position
	}

	// Assignment binds @Name to Value, declaring it in the current scope if
	// no enclosing scope already holds it.
	Assignment struct {
		Name  string
		Value Node
		At    Position
	}

	BinaryOp struct {
		Op    string
		Left  Node
		Right Node
		At    Position
	}

	UnaryOp struct {
		Op      string
		Operand Node
		At      Position
	}

	// Block is an ordered statement sequence with its own scope.
	Block struct {
		Statements []Node
		At         Position
	}

	// If is a conditional. Else is nil when there is no else branch; an
	// "else if" chain nests an If inside a single-statement Else block.
	If struct {
		Cond Node
		Then *Block
		Else *Block
		At   Position
	}

	// ForIn iterates a List, binding @Var in each iteration's scope.
	ForIn struct {
		Var  string
		Iter Node
		Body *Block
		At   Position
	}

	While struct {
		Cond Node
		Body *Block
		At   Position
	}

	// Return ends the enclosing block. Value is nil for a bare return.
	Return struct {
		Value Node
		At    Position
	}

	// ElementConstruct builds an element: tag { key: value, child, ... }.
	ElementConstruct struct {
		Tag      string
		Attrs    []Attribute
		Children []Node
		At       Position
	}

	Attribute struct {
		Key   string
		Value Node
		At    Position
	}

	ListLiteral struct {
		Items []Node
		At    Position
	}

	MapLiteral struct {
		Entries []Attribute
		At      Position
	}

	// Call invokes Module::Function with Args. Module is empty for an
	// unqualified call, which resolves in [RootModule].
	Call struct {
		Module   string
		Function string
		Args     []Node
		At       Position
	}

	// Index reads Target[Index] from a List, Map or String.
	Index struct {
		Target Node
		Index  Node
		At     Position
	}

	// FuncRef is a function handle Module::Function without a call.
	FuncRef struct {
		Module   string
		Function string
		At       Position
	}

	// Field reads a named field of an Element: Target.Name.
	Field struct {
		Target Node
		Name   string
		At     Position
	}

	// MethodCall is Receiver.Method(Args). It calls the function Method of
	// the module named after the receiver's kind, with the receiver as the
	// first argument.
	MethodCall struct {
		Receiver Node
		Method   string
		Args     []Node
		At       Position
	}
)

func (n *Literal) Pos() Position          { return n.At }
func (n *Reference) Pos() Position        { return n.At }
func (n *Assignment) Pos() Position       { return n.At }
func (n *BinaryOp) Pos() Position         { return n.At }
func (n *UnaryOp) Pos() Position          { return n.At }
func (n *Block) Pos() Position            { return n.At }
func (n *If) Pos() Position               { return n.At }
func (n *ForIn) Pos() Position            { return n.At }
func (n *While) Pos() Position            { return n.At }
func (n *Return) Pos() Position           { return n.At }
func (n *ElementConstruct) Pos() Position { return n.At }
func (n *ListLiteral) Pos() Position      { return n.At }
func (n *MapLiteral) Pos() Position       { return n.At }
func (n *Call) Pos() Position             { return n.At }
func (n *Index) Pos() Position            { return n.At }
func (n *FuncRef) Pos() Position          { return n.At }
func (n *Field) Pos() Position            { return n.At }
func (n *MethodCall) Pos() Position       { return n.At }

func (*Literal) node()          {}
func (*Reference) node()        {}
func (*Assignment) node()       {}
func (*BinaryOp) node()         {}
func (*UnaryOp) node()          {}
func (*Block) node()            {}
func (*If) node()               {}
func (*ForIn) node()            {}
func (*While) node()            {}
func (*Return) node()           {}
func (*ElementConstruct) node() {}
func (*ListLiteral) node()      {}
func (*MapLiteral) node()       {}
func (*Call) node()             {}
func (*Index) node()            {}
func (*FuncRef) node()          {}
func (*Field) node()            {}
func (*MethodCall) node()       {}

// qualified returns "module::function", or just the function name when
// module is empty.
func qualified(module, function string) string {
	if module == "" {
		return function
	}

	return module + "::" + function
}

// Print writes an indented tree representation of the AST to w.
func (ast *AST) Print(w io.Writer, indent int) error {
	p := &printer{w: w, indent: max(indent, 1)}
	p.node(ast.Root, 0)

	return p.err
}

type printer struct {
	w      io.Writer
	indent int
	err    error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}

	pad := strings.Repeat(" ", depth*p.indent)
	_, p.err = fmt.Fprintf(p.w, pad+format+"\n", args...)
}

func (p *printer) node(n Node, depth int) {
	switch n := n.(type) {
	case nil:
		p.line(depth, "<nil>")

	case *Literal:
		p.line(depth, "Literal %s", FormatValue(n.Value))

	case *Reference:
		p.line(depth, "Reference @%s", n.Name)

	case *Assignment:
		p.line(depth, "Assignment @%s", n.Name)
		p.node(n.Value, depth+1)

	case *BinaryOp:
		p.line(depth, "BinaryOp %s", n.Op)
		p.node(n.Left, depth+1)
		p.node(n.Right, depth+1)

	case *UnaryOp:
		p.line(depth, "UnaryOp %s", n.Op)
		p.node(n.Operand, depth+1)

	case *Block:
		p.line(depth, "Block")

		for _, s := range n.Statements {
			p.node(s, depth+1)
		}

	case *If:
		p.line(depth, "If")
		p.node(n.Cond, depth+1)
		p.node(n.Then, depth+1)

		if n.Else != nil {
			p.line(depth+1, "Else")
			p.node(n.Else, depth+2)
		}

	case *ForIn:
		p.line(depth, "ForIn @%s", n.Var)
		p.node(n.Iter, depth+1)
		p.node(n.Body, depth+1)

	case *While:
		p.line(depth, "While")
		p.node(n.Cond, depth+1)
		p.node(n.Body, depth+1)

	case *Return:
		p.line(depth, "Return")

		if n.Value != nil {
			p.node(n.Value, depth+1)
		}

	case *ElementConstruct:
		p.line(depth, "Element %s", n.Tag)

		for _, a := range n.Attrs {
			p.line(depth+1, "Attribute %s", strconv.Quote(a.Key))
			p.node(a.Value, depth+2)
		}

		for _, c := range n.Children {
			p.node(c, depth+1)
		}

	case *ListLiteral:
		p.line(depth, "List")

		for _, item := range n.Items {
			p.node(item, depth+1)
		}

	case *MapLiteral:
		p.line(depth, "Map")

		for _, e := range n.Entries {
			p.line(depth+1, "Entry %s", strconv.Quote(e.Key))
			p.node(e.Value, depth+2)
		}

	case *Call:
		p.line(depth, "Call %s", qualified(n.Module, n.Function))

		for _, a := range n.Args {
			p.node(a, depth+1)
		}

	case *Index:
		p.line(depth, "Index")
		p.node(n.Target, depth+1)
		p.node(n.Index, depth+1)

	case *FuncRef:
		p.line(depth, "FuncRef %s", qualified(n.Module, n.Function))

	case *Field:
		p.line(depth, "Field %s", n.Name)
		p.node(n.Target, depth+1)

	case *MethodCall:
		p.line(depth, "MethodCall %s", n.Method)
		p.node(n.Receiver, depth+1)

		for _, a := range n.Args {
			p.node(a, depth+1)
		}
	}
}
