package lang

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"unicode/utf8"
)

// guard counts the resources used by one evaluation, including scripts
// evaluated from host functions on its behalf.
type guard struct {
	depth int
	iters int
}

// evaluator walks an AST against a scope chain and a registry.
type evaluator struct {
	rt    *Runtime
	scope *scope
	guard *guard
}

// flow is the completion of a statement: whether a return was executed
// and, if so, its value.
type flow struct {
	returned bool
	value    Value
}

// yield classifies a contribution.
type yield uint8

const (
	yieldNone yield = iota
	yieldOne
	yieldMany
)

// contribution is what one entry of a collecting context (element
// children, list literal) adds to the collection: nothing, exactly one
// value, or any number of values in order.
type contribution struct {
	kind   yield
	one    Value
	values []Value
}

func (c contribution) appendTo(dst []Value) []Value {
	switch c.kind {
	case yieldOne:
		return append(dst, c.one)
	case yieldMany:
		return append(dst, c.values...)
	}

	return dst
}

// run evaluates the script body in the root frame.
func (ev *evaluator) run(ctx context.Context, root *Block) (Value, error) {
	f, err := ev.statements(ctx, root.Statements)
	if err != nil {
		return None, err
	}

	return f.value, nil
}

// enter accounts for one level of nesting.
func (ev *evaluator) enter(pos Position) error {
	ev.guard.depth++
	if ev.guard.depth > ev.rt.cfg.maxDepth {
		return ErrRuntimeLimit.WithPosition(pos).
			Detailf("maximum depth %d exceeded", ev.rt.cfg.maxDepth).
			With(slog.String("limit", "depth"))
	}

	return nil
}

func (ev *evaluator) leave() { ev.guard.depth-- }

// tick accounts for one loop iteration and observes cancellation.
func (ev *evaluator) tick(ctx context.Context, pos Position) error {
	ev.guard.iters++
	if ev.guard.iters > ev.rt.cfg.maxIterations {
		return ErrRuntimeLimit.WithPosition(pos).
			Detailf("maximum of %d loop iterations exceeded", ev.rt.cfg.maxIterations).
			With(slog.String("limit", "iterations"))
	}

	if err := ctx.Err(); err != nil {
		return ErrCanceled.WithPosition(pos).Wrap(err)
	}

	return nil
}

// block evaluates b in a new frame. When bind is set, @bind is declared in
// that frame with value v before the first statement runs.
func (ev *evaluator) block(ctx context.Context, b *Block, bind string, v Value) (flow, error) {
	if err := ev.enter(b.At); err != nil {
		return flow{}, err
	}
	defer ev.leave()

	ev.scope.push()
	defer ev.scope.pop()

	if bind != "" {
		ev.scope.declare(bind, v)
	}

	return ev.statements(ctx, b.Statements)
}

// statements runs stmts in the current frame until one returns.
func (ev *evaluator) statements(ctx context.Context, stmts []Node) (flow, error) {
	for _, stmt := range stmts {
		f, err := ev.statement(ctx, stmt)
		if err != nil || f.returned {
			return f, err
		}
	}

	return flow{}, nil
}

// statement evaluates n in statement position, where control constructs
// propagate an inner return to the enclosing block.
func (ev *evaluator) statement(ctx context.Context, n Node) (flow, error) {
	switch n := n.(type) {
	case *Return:
		if n.Value == nil {
			return flow{returned: true}, nil
		}

		v, err := ev.eval(ctx, n.Value)
		if err != nil {
			return flow{}, err
		}

		return flow{returned: true, value: v}, nil

	case *If:
		branch, err := ev.branch(ctx, n)
		if err != nil || branch == nil {
			return flow{}, err
		}

		return ev.block(ctx, branch, "", None)

	case *ForIn:
		var result flow

		err := ev.forEach(ctx, n, func(f flow) bool {
			result = f

			return !f.returned
		})

		return result, err

	case *While:
		var result flow

		err := ev.whileLoop(ctx, n, func(f flow) bool {
			result = f

			return !f.returned
		})

		return result, err

	default:
		_, err := ev.eval(ctx, n)

		return flow{}, err
	}
}

// collect evaluates n as an entry of a collecting context.
func (ev *evaluator) collect(ctx context.Context, n Node) (contribution, error) {
	switch n := n.(type) {
	case *If:
		branch, err := ev.branch(ctx, n)
		if err != nil || branch == nil {
			return contribution{}, err
		}

		f, err := ev.block(ctx, branch, "", None)
		if err != nil || !f.returned {
			return contribution{}, err
		}

		return contribution{kind: yieldOne, one: f.value}, nil

	case *ForIn:
		values := []Value{}

		err := ev.forEach(ctx, n, func(f flow) bool {
			if f.returned {
				values = append(values, f.value)
			}

			return true
		})

		return contribution{kind: yieldMany, values: values}, err

	case *While:
		values := []Value{}

		err := ev.whileLoop(ctx, n, func(f flow) bool {
			if f.returned {
				values = append(values, f.value)
			}

			return true
		})

		return contribution{kind: yieldMany, values: values}, err

	default:
		v, err := ev.eval(ctx, n)
		if err != nil {
			return contribution{}, err
		}

		return contribution{kind: yieldOne, one: v}, nil
	}
}

// branch selects the block an If executes, or nil when none applies.
func (ev *evaluator) branch(ctx context.Context, n *If) (*Block, error) {
	cond, err := ev.condition(ctx, n.Cond, "if")
	if err != nil {
		return nil, err
	}

	if cond {
		return n.Then, nil
	}

	return n.Else, nil
}

// condition evaluates a control condition, which must be a Bool.
func (ev *evaluator) condition(ctx context.Context, n Node, construct string) (bool, error) {
	v, err := ev.eval(ctx, n)
	if err != nil {
		return false, err
	}

	b, ok := v.AsBool()
	if !ok {
		return false, ErrType.WithPosition(n.Pos()).
			Detailf("%s condition must be bool, found %s", construct, v.Kind())
	}

	return b, nil
}

// forEach runs the loop body once per List item, passing each completion
// to next until it reports false.
func (ev *evaluator) forEach(ctx context.Context, n *ForIn, next func(flow) bool) error {
	iter, err := ev.eval(ctx, n.Iter)
	if err != nil {
		return err
	}

	items, ok := iter.AsList()
	if !ok {
		return ErrType.WithPosition(n.Iter.Pos()).
			Detailf("for loop requires a list, found %s", iter.Kind())
	}

	for _, item := range items {
		if err := ev.tick(ctx, n.At); err != nil {
			return err
		}

		f, err := ev.block(ctx, n.Body, n.Var, item)
		if err != nil {
			return err
		}

		if !next(f) {
			return nil
		}
	}

	return nil
}

// whileLoop runs the loop body while its condition holds, passing each
// completion to next until it reports false.
func (ev *evaluator) whileLoop(ctx context.Context, n *While, next func(flow) bool) error {
	for {
		cond, err := ev.condition(ctx, n.Cond, "while")
		if err != nil || !cond {
			return err
		}

		if err := ev.tick(ctx, n.At); err != nil {
			return err
		}

		f, err := ev.block(ctx, n.Body, "", None)
		if err != nil {
			return err
		}

		if !next(f) {
			return nil
		}
	}
}

// eval evaluates n in expression position.
func (ev *evaluator) eval(ctx context.Context, n Node) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *Reference:
		v, ok := ev.scope.lookup(n.Name)
		if !ok {
			return None, ErrName.WithPosition(n.At).
				Detailf("undefined variable @%s", n.Name).
				With(slog.String("name", n.Name))
		}

		return v, nil

	case *Assignment:
		v, err := ev.eval(ctx, n.Value)
		if err != nil {
			return None, err
		}

		ev.scope.declareOrAssign(n.Name, v)

		return v, nil

	case *BinaryOp:
		return ev.binary(ctx, n)

	case *UnaryOp:
		return ev.unary(ctx, n)

	case *Index:
		return ev.index(ctx, n)

	case *Field:
		return ev.field(ctx, n)

	case *MethodCall:
		return ev.method(ctx, n)

	case *If, *ForIn, *While:
		c, err := ev.collect(ctx, n)
		if err != nil {
			return None, err
		}

		switch c.kind {
		case yieldOne:
			return c.one, nil
		case yieldMany:
			return ListValue(c.values...), nil
		}

		return None, nil

	case *ListLiteral:
		items := make([]Value, 0, len(n.Items))

		for _, item := range n.Items {
			c, err := ev.collect(ctx, item)
			if err != nil {
				return None, err
			}

			items = c.appendTo(items)
		}

		return ListValue(items...), nil

	case *MapLiteral:
		m := NewMap()

		for _, e := range n.Entries {
			v, err := ev.eval(ctx, e.Value)
			if err != nil {
				return None, err
			}

			m.Set(e.Key, v)
		}

		return MapValue(m), nil

	case *ElementConstruct:
		return ev.element(ctx, n)

	case *Call:
		args, err := ev.arguments(ctx, n.Args)
		if err != nil {
			return None, err
		}

		fn, err := ev.rt.registry.Lookup(n.Module, n.Function)
		if err != nil {
			return None, WrapError(err).WithPosition(n.At)
		}

		return ev.invoke(ctx, fn, args, n.At)

	case *FuncRef:
		fn, err := ev.rt.registry.Lookup(n.Module, n.Function)
		if err != nil {
			return None, WrapError(err).WithPosition(n.At)
		}

		return FunctionValue(fn), nil

	case *Block:
		f, err := ev.block(ctx, n, "", None)

		return f.value, err

	case *Return:
		return None, ErrSyntax.WithPosition(n.At).
			Detailf("return is only valid as a statement")
	}

	return None, ErrType.WithPosition(n.Pos()).Detailf("cannot evaluate %T", n)
}

// field reads a named field of an Element.
func (ev *evaluator) field(ctx context.Context, n *Field) (Value, error) {
	target, err := ev.eval(ctx, n.Target)
	if err != nil {
		return None, err
	}

	el, ok := target.AsElement()
	if !ok {
		return None, ErrType.WithPosition(n.At).
			Detailf("cannot read field %s of %s", n.Name, target.Kind()).
			With(slog.String("field", n.Name))
	}

	v, ok := el.Field(n.Name)
	if !ok {
		return None, ErrName.WithPosition(n.At).
			Detailf("unknown element field %q", n.Name).
			With(slog.String("field", n.Name))
	}

	return v, nil
}

// method calls Method of the module named after the receiver's kind, with
// the receiver prepended to the arguments.
func (ev *evaluator) method(ctx context.Context, n *MethodCall) (Value, error) {
	receiver, err := ev.eval(ctx, n.Receiver)
	if err != nil {
		return None, err
	}

	args, err := ev.arguments(ctx, n.Args)
	if err != nil {
		return None, err
	}

	fn, err := ev.rt.registry.Lookup(receiver.Kind().String(), n.Method)
	if err != nil {
		return None, WrapError(err).WithPosition(n.At)
	}

	return ev.invoke(ctx, fn, append([]Value{receiver}, args...), n.At)
}

// arguments evaluates call arguments left to right.
func (ev *evaluator) arguments(ctx context.Context, nodes []Node) ([]Value, error) {
	args := make([]Value, 0, len(nodes))

	for _, a := range nodes {
		v, err := ev.eval(ctx, a)
		if err != nil {
			return nil, err
		}

		args = append(args, v)
	}

	return args, nil
}

func (ev *evaluator) element(ctx context.Context, n *ElementConstruct) (Value, error) {
	if err := ev.enter(n.At); err != nil {
		return None, err
	}
	defer ev.leave()

	el := NewElement(n.Tag)

	for _, a := range n.Attrs {
		v, err := ev.eval(ctx, a.Value)
		if err != nil {
			return None, err
		}

		el.SetAttr(a.Key, v)
	}

	children := make([]Value, 0, len(n.Children))

	for _, child := range n.Children {
		c, err := ev.collect(ctx, child)
		if err != nil {
			return None, err
		}

		children = c.appendTo(children)
	}

	el.Children = children

	return ElementValue(el), nil
}

// invoke checks arity and calls fn. The callable never runs when the
// argument count does not match.
func (ev *evaluator) invoke(ctx context.Context, fn *Function, args []Value, pos Position) (Value, error) {
	if !fn.accepts(len(args)) {
		return None, ErrArity.WithPosition(pos).
			Detailf("%s expects %d argument(s), found %d", fn, fn.Arity, len(args)).
			With(
				slog.String("function", fn.String()),
				slog.Int("expected", fn.Arity),
				slog.Int("actual", len(args)),
			)
	}

	if err := ctx.Err(); err != nil {
		return None, ErrCanceled.WithPosition(pos).Wrap(err)
	}

	if err := ev.enter(pos); err != nil {
		return None, err
	}
	defer ev.leave()

	ev.rt.cfg.logger.TraceContext(ctx, "call",
		slog.String("function", fn.String()),
		slog.Int("args", len(args)),
		slog.Int("depth", ev.guard.depth))

	v, err := fn.call(&Invocation{Function: fn, Args: args, Pos: pos, ctx: ctx, ev: ev})
	if err == nil {
		return v, nil
	}

	var ee *Error
	if errors.As(err, &ee) && ee.Kind() != nil {
		return None, ee.at(pos)
	}

	return None, ErrHost.WithPosition(pos).
		With(slog.String("function", fn.String())).
		Wrap(err)
}

// nested evaluates source on behalf of a host function, sharing this
// evaluation's guard. Nested sources are generated at run time, so they
// bypass the runtime's cache.
func (ev *evaluator) nested(ctx context.Context, source string, bindings map[string]Value, pos Position) (Value, error) {
	ast, err := ParseString(ctx, source, ev.rt.options()...)
	if err != nil {
		return None, err
	}

	if err := ev.enter(pos); err != nil {
		return None, err
	}
	defer ev.leave()

	child := &evaluator{rt: ev.rt, scope: newScope(bindings), guard: ev.guard}

	return child.run(ctx, ast.Root)
}

func (ev *evaluator) unary(ctx context.Context, n *UnaryOp) (Value, error) {
	v, err := ev.eval(ctx, n.Operand)
	if err != nil {
		return None, err
	}

	switch n.Op {
	case "!":
		if b, ok := v.AsBool(); ok {
			return BoolValue(!b), nil
		}
	case "-":
		if x, ok := v.AsNumber(); ok {
			return NumberValue(-x), nil
		}
	}

	return None, ErrType.WithPosition(n.At).
		Detailf("operator %s cannot be applied to %s", n.Op, v.Kind())
}

func (ev *evaluator) binary(ctx context.Context, n *BinaryOp) (Value, error) {
	left, err := ev.eval(ctx, n.Left)
	if err != nil {
		return None, err
	}

	if n.Op == "&&" || n.Op == "||" {
		return ev.logical(ctx, n, left)
	}

	right, err := ev.eval(ctx, n.Right)
	if err != nil {
		return None, err
	}

	switch n.Op {
	case "==":
		return BoolValue(Equal(left, right)), nil
	case "!=":
		return BoolValue(!Equal(left, right)), nil
	}

	if ls, ok := left.AsString(); ok {
		if rs, ok := right.AsString(); ok {
			if n.Op == "+" {
				return StringValue(ls + rs), nil
			}
		}
	}

	a, aok := left.AsNumber()
	b, bok := right.AsNumber()

	if !aok || !bok {
		return None, ErrType.WithPosition(n.At).
			Detailf("operator %s cannot be applied to %s and %s",
				n.Op, left.Kind(), right.Kind()).
			With(slog.String("operator", n.Op))
	}

	switch n.Op {
	case "+", "-", "*", "/", "%":
		return arithmetic(n, a, b)
	case "<":
		return BoolValue(a < b), nil
	case ">":
		return BoolValue(a > b), nil
	case "<=":
		return BoolValue(a <= b), nil
	case ">=":
		return BoolValue(a >= b), nil
	}

	return None, ErrSyntax.WithPosition(n.At).Detailf("unknown operator %s", n.Op)
}

// arithmetic applies a numeric operator. Results that are not finite
// numbers have no literal form and fail with ErrType.
func arithmetic(n *BinaryOp, a, b float64) (Value, error) {
	if b == 0 && (n.Op == "/" || n.Op == "%") {
		return None, ErrType.WithPosition(n.At).
			Detailf("division by zero").
			With(slog.String("operator", n.Op))
	}

	var r float64

	switch n.Op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		r = a / b
	case "%":
		r = math.Mod(a, b)
	}

	if math.IsInf(r, 0) || math.IsNaN(r) {
		return None, ErrType.WithPosition(n.At).
			Detailf("numeric overflow").
			With(slog.String("operator", n.Op))
	}

	return NumberValue(r), nil
}

// logical evaluates && and || with short-circuiting. Both operands must be
// Bools.
func (ev *evaluator) logical(ctx context.Context, n *BinaryOp, left Value) (Value, error) {
	a, ok := left.AsBool()
	if !ok {
		return None, ErrType.WithPosition(n.Left.Pos()).
			Detailf("operator %s requires bool operands, found %s", n.Op, left.Kind())
	}

	if (n.Op == "&&" && !a) || (n.Op == "||" && a) {
		return BoolValue(a), nil
	}

	right, err := ev.eval(ctx, n.Right)
	if err != nil {
		return None, err
	}

	b, ok := right.AsBool()
	if !ok {
		return None, ErrType.WithPosition(n.Right.Pos()).
			Detailf("operator %s requires bool operands, found %s", n.Op, right.Kind())
	}

	return BoolValue(b), nil
}

func (ev *evaluator) index(ctx context.Context, n *Index) (Value, error) {
	target, err := ev.eval(ctx, n.Target)
	if err != nil {
		return None, err
	}

	idx, err := ev.eval(ctx, n.Index)
	if err != nil {
		return None, err
	}

	switch target.Kind() {
	case KindMap:
		key, ok := idx.AsString()
		if !ok {
			return None, ErrType.WithPosition(n.At).
				Detailf("map index must be a string, found %s", idx.Kind())
		}

		m, _ := target.AsMap()
		v, _ := m.Get(key)

		return v, nil

	case KindList:
		items, _ := target.AsList()

		i, err := position(idx, len(items), n.At)
		if err != nil {
			return None, err
		}

		return items[i], nil

	case KindString:
		s, _ := target.AsString()
		runes := []rune(s)

		i, err := position(idx, utf8.RuneCountInString(s), n.At)
		if err != nil {
			return None, err
		}

		return StringValue(string(runes[i])), nil
	}

	return None, ErrType.WithPosition(n.At).
		Detailf("cannot index a %s", target.Kind())
}

// position resolves a sequence index; negative indices count from the end.
func position(idx Value, length int, pos Position) (int, error) {
	x, ok := idx.AsNumber()
	if !ok || x != math.Trunc(x) {
		return 0, ErrType.WithPosition(pos).
			Detailf("index must be an integer, found %s", FormatValue(idx))
	}

	i := int(x)
	if i < 0 {
		i += length
	}

	if i < 0 || i >= length {
		return 0, ErrType.WithPosition(pos).
			Detailf("index %s out of range for length %d", FormatValue(idx), length)
	}

	return i, nil
}
