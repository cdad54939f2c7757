package lang

import (
	"context"
	"log/slog"
	"math"
	"slices"
)

// RootModule is the module unqualified calls such as len(@x) resolve in.
const RootModule = "std"

// Variadic is the arity of a function accepting any number of arguments.
const Variadic = -1

// Callable is a host function. It receives the evaluated arguments through
// inv and returns exactly one Value. A returned error aborts evaluation.
type Callable func(inv *Invocation) (Value, error)

// Function is a registered host function: a capability bound to a fixed
// arity at registration time.
type Function struct {
	Module string
	Name   string
	Arity  int
	call   Callable
}

// String returns the qualified name "module::name".
func (f *Function) String() string { return f.Module + "::" + f.Name }

// accepts reports whether n arguments satisfy the arity.
func (f *Function) accepts(n int) bool {
	return f.Arity == Variadic || f.Arity == n
}

// Registry maps module names to their host functions.
//
// A registry is populated by the host before evaluation and only read
// while a script runs. It is owned by the [Runtime] it is given to;
// separate runtimes should use separate registries.
type Registry struct {
	modules map[string]map[string]*Function
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]*Function)}
}

// Register adds fn to module under name, replacing any existing function
// with the same name. Arity is the exact argument count, or [Variadic].
func (r *Registry) Register(module, name string, arity int, fn Callable) {
	if arity < Variadic {
		arity = Variadic
	}

	funcs, ok := r.modules[module]
	if !ok {
		funcs = make(map[string]*Function)
		r.modules[module] = funcs
	}

	funcs[name] = &Function{Module: module, Name: name, Arity: arity, call: fn}
}

// Lookup resolves module::name. An empty module means [RootModule].
// It fails with [ErrName] when either name is unknown.
func (r *Registry) Lookup(module, name string) (*Function, error) {
	if module == "" {
		module = RootModule
	}

	funcs, ok := r.modules[module]
	if !ok {
		return nil, ErrName.Detailf("unknown module %q", module).
			With(slog.String("module", module))
	}

	fn, ok := funcs[name]
	if !ok {
		return nil, ErrName.Detailf("unknown function %q in module %q", name, module).
			With(slog.String("module", module), slog.String("function", name))
	}

	return fn, nil
}

// Modules returns the registered module names in sorted order.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Functions returns the function names of module in sorted order.
func (r *Registry) Functions(module string) []string {
	names := make([]string, 0, len(r.modules[module]))
	for name := range r.modules[module] {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Invocation is the context of one host function call.
type Invocation struct {
	Function *Function
	Args     []Value
	Pos      Position

	ctx context.Context
	ev  *evaluator
}

// Context returns the context of the evaluation making the call.
func (inv *Invocation) Context() context.Context { return inv.ctx }

// Invoke calls the function handle fn with args, subject to the same arity
// check and execution limits as a call written in the script.
func (inv *Invocation) Invoke(fn Value, args ...Value) (Value, error) {
	f, ok := fn.AsFunction()
	if !ok {
		return None, ErrType.WithPosition(inv.Pos).
			Detailf("cannot call a %s", fn.Kind())
	}

	return inv.ev.invoke(inv.ctx, f, args, inv.Pos)
}

// Evaluate runs source as a nested script in a fresh root scope holding
// bindings. The nested script shares the registry and execution limits of
// the calling evaluation.
func (inv *Invocation) Evaluate(source string, bindings map[string]Value) (Value, error) {
	return inv.ev.nested(inv.ctx, source, bindings, inv.Pos)
}

// argError reports an argument of the wrong kind.
func (inv *Invocation) argError(i int, want string) error {
	return ErrType.WithPosition(inv.Pos).
		Detailf("argument %d of %s: expected %s, found %s",
			i+1, inv.Function, want, inv.Args[i].Kind()).
		With(slog.String("function", inv.Function.String()))
}

// Number returns argument i as a Number.
func (inv *Invocation) Number(i int) (float64, error) {
	n, ok := inv.Args[i].AsNumber()
	if !ok {
		return 0, inv.argError(i, "number")
	}

	return n, nil
}

// Int returns argument i as an integral Number.
func (inv *Invocation) Int(i int) (int, error) {
	n, err := inv.Number(i)
	if err != nil {
		return 0, err
	}

	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, inv.argError(i, "integer")
	}

	return int(n), nil
}

// String returns argument i as a String.
func (inv *Invocation) String(i int) (string, error) {
	s, ok := inv.Args[i].AsString()
	if !ok {
		return "", inv.argError(i, "string")
	}

	return s, nil
}

// Bool returns argument i as a Bool.
func (inv *Invocation) Bool(i int) (bool, error) {
	b, ok := inv.Args[i].AsBool()
	if !ok {
		return false, inv.argError(i, "bool")
	}

	return b, nil
}

// List returns argument i as a List.
func (inv *Invocation) List(i int) ([]Value, error) {
	l, ok := inv.Args[i].AsList()
	if !ok {
		return nil, inv.argError(i, "list")
	}

	return l, nil
}

// Map returns argument i as a Map.
func (inv *Invocation) Map(i int) (*Map, error) {
	m, ok := inv.Args[i].AsMap()
	if !ok {
		return nil, inv.argError(i, "map")
	}

	return m, nil
}

// Element returns argument i as an Element.
func (inv *Invocation) Element(i int) (*Element, error) {
	e, ok := inv.Args[i].AsElement()
	if !ok {
		return nil, inv.argError(i, "element")
	}

	return e, nil
}
