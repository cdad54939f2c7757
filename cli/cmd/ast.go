package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/dioscript/lang"
)

// AST prints the syntax tree of a script.
type AST struct {
	Indent int `default:"2" help:"Indent width per tree level." short:"i"`

	Files []string `arg:"" help:"Script file(s) or '-' for stdin." name:"file" optional:"" type:"existingfile"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) error {
	return a.run(ctx, osStdio())
}

func (a *AST) run(ctx context.Context, std stdio) error {
	ast, err := parseScript(ctx, std, a.Files)
	if err != nil {
		return err
	}

	err = ast.Print(std.out, a.Indent)
	if err != nil {
		return ErrWriteOutput.With(slog.String("format", "ast")).Wrap(err)
	}

	return nil
}

// Fmt rewrites a script in canonical layout. Comments are not preserved.
type Fmt struct {
	Indent int `default:"2" help:"Indent width per block level." short:"i"`

	Files []string `arg:"" help:"Script file(s) or '-' for stdin." name:"file" optional:"" type:"existingfile"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) error {
	return f.run(ctx, osStdio())
}

func (f *Fmt) run(ctx context.Context, std stdio) error {
	ast, err := parseScript(ctx, std, f.Files)
	if err != nil {
		return err
	}

	err = ast.Format(std.out, f.Indent)
	if err != nil {
		return ErrWriteOutput.With(slog.String("format", "native")).Wrap(err)
	}

	return nil
}

// parseScript reads and parses the named files, reporting syntax errors
// with a source excerpt on std.err.
func parseScript(ctx context.Context, std stdio, files []string) (*lang.AST, error) {
	s, err := readScript(std.in, files)
	if err != nil {
		return nil, err
	}

	ast, err := lang.ParseString(ctx, s.text, optionsFrom(ctx)...)
	if err != nil {
		diagnose(std.err, s, err)

		return nil, ErrParseScript.With(slog.String("script", s.name)).Wrap(err)
	}

	return ast, nil
}
