package lang

// Builder provides a programmatic API for constructing AST nodes without
// parsing source text. This is useful for generating scripts, such as
// configuration files, or for testing.
//
// Example:
//
//	b := lang.NewBuilder()
//	ast := b.AST(
//	    b.Return(
//	        b.Map(
//	            b.Entry("log-level", b.String("info")),
//	        ),
//	    ),
//	)
//
// Nodes built this way carry no source positions.
type Builder struct{}

// NewBuilder creates a new AST builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AST creates a script from top-level statements.
func (b *Builder) AST(stmts ...Node) *AST {
	return &AST{Root: b.Block(stmts...)}
}

func (b *Builder) Block(stmts ...Node) *Block {
	return &Block{Statements: stmts}
}

// Value creates a literal holding v.
func (b *Builder) Value(v Value) Node { return &Literal{Value: v} }

func (b *Builder) String(s string) Node { return b.Value(StringValue(s)) }

func (b *Builder) Number(n float64) Node { return b.Value(NumberValue(n)) }

func (b *Builder) Bool(v bool) Node { return b.Value(BoolValue(v)) }

func (b *Builder) None() Node { return b.Value(None) }

// Ref creates a reference to @name.
func (b *Builder) Ref(name string) Node { return &Reference{Name: name} }

// Assign creates @name = value.
func (b *Builder) Assign(name string, value Node) Node {
	return &Assignment{Name: name, Value: value}
}

func (b *Builder) Return(value Node) Node { return &Return{Value: value} }

func (b *Builder) Binary(op string, left, right Node) Node {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

func (b *Builder) If(cond Node, then, otherwise *Block) Node {
	return &If{Cond: cond, Then: then, Else: otherwise}
}

func (b *Builder) For(name string, iter Node, body *Block) Node {
	return &ForIn{Var: name, Iter: iter, Body: body}
}

func (b *Builder) List(items ...Node) Node { return &ListLiteral{Items: items} }

// Entry creates a map entry or element attribute.
func (b *Builder) Entry(key string, value Node) Attribute {
	return Attribute{Key: key, Value: value}
}

func (b *Builder) Map(entries ...Attribute) Node {
	return &MapLiteral{Entries: entries}
}

// Element creates tag { attrs..., children... }.
func (b *Builder) Element(tag string, attrs []Attribute, children ...Node) Node {
	return &ElementConstruct{Tag: tag, Attrs: attrs, Children: children}
}

// Call creates module::function(args...). An empty module calls into
// [RootModule].
func (b *Builder) Call(module, function string, args ...Node) Node {
	return &Call{Module: module, Function: function, Args: args}
}
