package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ardnew/dioscript/lang"
	"github.com/ardnew/dioscript/lang/stdlib"
	"github.com/ardnew/dioscript/log"
)

// Eval evaluates a script and writes the value it returns.
type Eval struct {
	Output string            `default:"native" enum:"native,html,json,yaml" help:"Output format (${enum})."                                              short:"o"`
	Indent int               `default:"2"                                   help:"Indent width; 0 selects compact output."                                  short:"i"`
	Vars   map[string]string `help:"Bind @NAME to VALUE. VALUE is a DioScript literal, or else a plain string." mapsep:"none" name:"var" placeholder:"NAME=VALUE" short:"D"`

	Files []string `arg:"" help:"Script file(s) or '-' for stdin." name:"file" optional:"" type:"existingfile"`
}

// stdio holds the streams a command reads and writes.
type stdio struct {
	in       io.Reader
	out, err io.Writer
}

func osStdio() stdio { return stdio{os.Stdin, os.Stdout, os.Stderr} }

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) error {
	return e.run(ctx, osStdio())
}

func (e *Eval) run(ctx context.Context, std stdio) error {
	bindings, err := parseBindings(e.Vars)
	if err != nil {
		return err
	}

	s, err := readScript(std.in, e.Files)
	if err != nil {
		return err
	}

	rt := lang.New(
		stdlib.NewRegistry(stdlib.WithOutput(std.out)),
		optionsFrom(ctx)...,
	)

	v, err := rt.Evaluate(ctx, s.text, bindings)
	if err != nil {
		diagnose(std.err, s, err)

		return ErrEvaluate.With(slog.String("script", s.name)).Wrap(err)
	}

	log.DebugContext(ctx, "evaluated script",
		slog.String("script", s.name),
		slog.String("kind", v.Kind().String()),
		slog.String("output", e.Output),
	)

	err = writeValue(ctx, std.out, v, e.Output, e.Indent)
	if err != nil {
		return ErrWriteOutput.With(slog.String("format", e.Output)).Wrap(err)
	}

	return nil
}

// writeValue encodes v in the named output format.
func writeValue(ctx context.Context, w io.Writer, v lang.Value, format string, indent int) error {
	switch format {
	case "html":
		return lang.FormatHTML(w, v)
	case "json":
		return lang.FormatJSON(w, v, indent)
	case "yaml":
		return lang.FormatYAML(ctx, w, v, indent)
	default:
		return lang.Format(w, v, indent)
	}
}

// parseBindings converts NAME=VALUE flags to root-scope bindings. A value
// that is not a DioScript literal binds as a string.
func parseBindings(vars map[string]string) (map[string]lang.Value, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	bindings := make(map[string]lang.Value, len(vars))

	for _, name := range slices.Sorted(maps.Keys(vars)) {
		raw := vars[name]
		key := strings.TrimPrefix(name, "@")

		if !lang.IsIdentifier(key) {
			return nil, ErrBinding.With(slog.String("name", name))
		}

		v, err := lang.ParseValue(raw)
		if err != nil {
			v = lang.StringValue(raw)
		}

		bindings[key] = v
	}

	return bindings, nil
}

// diagnose writes err to w with an excerpt of the script locating it.
func diagnose(w io.Writer, s script, err error) {
	msg := strings.TrimRight(lang.FormatError(s.text, err), "\n")
	_, _ = io.WriteString(w, msg+"\n")
}
