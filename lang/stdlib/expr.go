package stdlib

import (
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/dioscript/lang"
)

func registerExpr(reg *lang.Registry) {
	register(reg, "expr", []function{
		{"eval", 2, evalExpr},
	})
}

// evalExpr evaluates an expr-lang expression. The Map argument is the
// expression environment; its values are converted to native Go values
// and the result is converted back.
func evalExpr(inv *lang.Invocation) (lang.Value, error) {
	source, err := inv.String(0)
	if err != nil {
		return lang.None, err
	}

	if strings.TrimSpace(source) == "" {
		return lang.None, typeError(inv, 0, "non-empty expression")
	}

	var env map[string]any

	switch arg := inv.Args[1]; arg.Kind() {
	case lang.KindNone:
		env = map[string]any{}
	case lang.KindMap:
		env, _ = arg.ToNative().(map[string]any)
	default:
		return lang.None, typeError(inv, 1, "map or none")
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return lang.None, lang.ErrHost.WithPosition(inv.Pos).
			Detailf("compile expression").
			With(slog.String("source", source)).
			Wrap(err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return lang.None, lang.ErrHost.WithPosition(inv.Pos).
			Detailf("run expression").
			With(slog.String("source", source)).
			Wrap(err)
	}

	return lang.FromNative(out)
}
