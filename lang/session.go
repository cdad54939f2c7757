package lang

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
)

// Session evaluates a sequence of scripts that share their top-level
// variables, as an interactive prompt does. Each script runs with the
// variables left by the scripts before it; a script that fails leaves them
// untouched. Execution limits apply to each script separately.
//
// A Session is not safe for concurrent use.
type Session struct {
	rt   *Runtime
	vars map[string]Value
}

// NewSession returns a session whose first script sees bindings.
func (rt *Runtime) NewSession(bindings map[string]Value) *Session {
	return &Session{rt: rt, vars: maps.Clone(bindings)}
}

// Runtime returns the runtime the session evaluates with.
func (s *Session) Runtime() *Runtime { return s.rt }

// Evaluate parses and runs source with the session's variables.
func (s *Session) Evaluate(ctx context.Context, source string) (Value, error) {
	ast, err := s.rt.Parse(ctx, source)
	if err != nil {
		return None, err
	}

	return s.Run(ctx, ast)
}

// Run evaluates an already parsed script with the session's variables and
// keeps the top-level variables it leaves behind.
func (s *Session) Run(ctx context.Context, ast *AST) (Value, error) {
	ev := &evaluator{rt: s.rt, scope: newScope(s.vars), guard: &guard{}}

	v, err := ev.run(ctx, ast.Root)
	if err != nil {
		return None, err
	}

	s.vars = ev.scope.frames[0].vars

	s.rt.cfg.logger.TraceContext(ctx, "session updated",
		slog.Int("variables", len(s.vars)),
		slog.Int("iterations", ev.guard.iters))

	return v, nil
}

// Lookup returns the value of a session variable.
func (s *Session) Lookup(name string) (Value, bool) {
	v, ok := s.vars[name]

	return v, ok
}

// Variables yields the session variables ordered by name.
func (s *Session) Variables() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, name := range slices.Sorted(maps.Keys(s.vars)) {
			if !yield(name, s.vars[name]) {
				return
			}
		}
	}
}

// Len returns the number of session variables.
func (s *Session) Len() int { return len(s.vars) }

// Reset discards every session variable.
func (s *Session) Reset() { clear(s.vars) }
