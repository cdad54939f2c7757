// Package stdlib provides the standard host modules for DioScript.
//
// [Register] installs the modules std (the root module, so its functions
// may be called unqualified), string, number, list, map, element and expr
// into a [lang.Registry]:
//
//	reg := lang.NewRegistry()
//	stdlib.Register(reg, stdlib.WithOutput(os.Stderr))
//	rt := lang.New(reg)
//
// Every function treats its arguments as immutable: functions that
// "modify" a list, map or element return a new value.
package stdlib

import (
	"io"
	"os"

	"github.com/ardnew/dioscript/lang"
)

type config struct {
	output io.Writer
}

// Option configures the standard modules.
type Option func(*config)

// WithOutput sets the writer std::print writes to. The default is
// [os.Stdout]; a nil writer discards output.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	}
}

// Register adds the standard modules to reg, replacing any functions
// already registered under the same names.
func Register(reg *lang.Registry, opts ...Option) {
	cfg := config{output: os.Stdout}

	for _, opt := range opts {
		opt(&cfg)
	}

	registerStd(reg, cfg)
	registerString(reg)
	registerNumber(reg)
	registerList(reg)
	registerMap(reg)
	registerElement(reg)
	registerExpr(reg)
}

// NewRegistry returns a registry holding only the standard modules.
func NewRegistry(opts ...Option) *lang.Registry {
	reg := lang.NewRegistry()
	Register(reg, opts...)

	return reg
}

// function is the registration record of one host function.
type function struct {
	name  string
	arity int
	call  lang.Callable
}

func register(reg *lang.Registry, module string, funcs []function) {
	for _, fn := range funcs {
		reg.Register(module, fn.name, fn.arity, fn.call)
	}
}

// arityError reports a variadic call outside its accepted range.
func arityError(inv *lang.Invocation, want string) error {
	return lang.ErrArity.WithPosition(inv.Pos).
		Detailf("%s expects %s argument(s), found %d", inv.Function, want, len(inv.Args))
}

// typeError reports argument i having an unsupported kind.
func typeError(inv *lang.Invocation, i int, want string) error {
	return lang.ErrType.WithPosition(inv.Pos).
		Detailf("argument %d of %s: expected %s, found %s",
			i+1, inv.Function, want, inv.Args[i].Kind())
}
