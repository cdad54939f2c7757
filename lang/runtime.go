package lang

import (
	"context"
	"io"
	"log/slog"
)

// Runtime evaluates scripts against one registry.
//
// A Runtime is not safe for concurrent use while its registry is being
// populated. Once populated, separate goroutines may each call Evaluate;
// every evaluation gets its own scope chain and execution limits.
type Runtime struct {
	registry *Registry
	cfg      config
}

// New returns a runtime evaluating scripts with the functions in reg. A nil
// reg is replaced by an empty registry. Unless [WithCache] says otherwise,
// the runtime caches parsed scripts in a cache it owns.
func New(reg *Registry, opts ...Option) *Runtime {
	if reg == nil {
		reg = NewRegistry()
	}

	cfg := makeConfig(opts...)
	if cfg.cache == nil && !cfg.noCache {
		cfg.cache = NewCache()
	}

	return &Runtime{registry: reg, cfg: cfg}
}

// Registry returns the registry the runtime calls into.
func (rt *Runtime) Registry() *Registry { return rt.registry }

// Register is shorthand for rt.Registry().Register.
func (rt *Runtime) Register(module, name string, arity int, fn Callable) {
	rt.registry.Register(module, name, arity, fn)
}

// options returns the parse options derived from the runtime config.
func (rt *Runtime) options() []Option {
	return []Option{WithMaxDepth(rt.cfg.maxDepth), WithLogger(rt.cfg.logger)}
}

// Parse parses source, through the runtime's cache when it has one.
func (rt *Runtime) Parse(ctx context.Context, source string) (*AST, error) {
	if rt.cfg.cache != nil {
		return rt.cfg.cache.Parse(ctx, source, rt.options()...)
	}

	return ParseString(ctx, source, rt.options()...)
}

// Evaluate parses and runs source in a fresh root scope holding bindings,
// returning the value of the script's top-level return, or None when the
// script finishes without one.
func (rt *Runtime) Evaluate(ctx context.Context, source string, bindings map[string]Value) (Value, error) {
	ast, err := rt.Parse(ctx, source)
	if err != nil {
		return None, err
	}

	return rt.Run(ctx, ast, bindings)
}

// EvaluateReader reads a script from r and evaluates it.
func (rt *Runtime) EvaluateReader(ctx context.Context, r io.Reader, bindings map[string]Value) (Value, error) {
	source, err := readSource(r)
	if err != nil {
		return None, err
	}

	return rt.Evaluate(ctx, source, bindings)
}

// Run evaluates an already parsed script.
func (rt *Runtime) Run(ctx context.Context, ast *AST, bindings map[string]Value) (Value, error) {
	ev := &evaluator{rt: rt, scope: newScope(bindings), guard: &guard{}}

	v, err := ev.run(ctx, ast.Root)
	if err != nil {
		rt.cfg.logger.DebugContext(ctx, "evaluation failed", slog.Any("error", err))

		return None, err
	}

	rt.cfg.logger.TraceContext(ctx, "evaluation complete",
		slog.String("kind", v.Kind().String()),
		slog.Int("iterations", ev.guard.iters))

	return v, nil
}

// Evaluate runs source with a new runtime over reg. It is the one-shot form
// of [Runtime.Evaluate].
func Evaluate(ctx context.Context, source string, reg *Registry, bindings map[string]Value, opts ...Option) (Value, error) {
	return New(reg, append(opts, WithCache(nil))...).Evaluate(ctx, source, bindings)
}
