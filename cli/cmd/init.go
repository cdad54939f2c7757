package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/dioscript/lang"
	"github.com/ardnew/dioscript/log"
	"github.com/ardnew/dioscript/profile"
)

// defaultConfigIndent is the indent width of generated configuration files.
const defaultConfigIndent = 2

// ignoredFlags are flag name prefixes never written to configuration files.
var ignoredFlags = []string{"help", "version", profile.Tag}

// Init writes a configuration script that returns the current value of
// every global flag.
type Init struct {
	Force  bool `help:"Overwrite an existing configuration file." short:"f"`
	Stdout bool `help:"Write the configuration to stdout instead."`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	return i.run(ctx, osStdio())
}

func (i *Init) run(ctx context.Context, std stdio) (err error) {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrNoKongConfig
	}

	ast := configScript(ktx)

	if i.Stdout {
		return ast.Format(std.out, defaultConfigIndent)
	}

	path := ktx.Model.Vars()[ConfigIdentifier]

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if i.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return ErrWriteConfig.With(slogPath(path)).Wrap(err)
	}

	file, err := os.OpenFile(path, flags, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return ErrWriteConfig.With(slogPath(path)).Wrap(ErrFileExists)
	}

	if err != nil {
		return ErrWriteConfig.With(slogPath(path)).Wrap(err)
	}

	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = ErrWriteConfig.With(slogPath(path)).Wrap(cerr)
		}
	}()

	err = ast.Format(file, defaultConfigIndent)
	if err != nil {
		return ErrWriteConfig.With(slogPath(path)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file", slog.String("path", path))

	return nil
}

// configScript builds `return { "flag-name": value, ... };` from the
// application-level flags of ktx. Unset strings and empty lists are left
// out so that their defaults continue to apply.
func configScript(ktx *kong.Context) *lang.AST {
	b := lang.NewBuilder()

	var entries []lang.Attribute

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoredFlags, func(prefix string) bool {
			return strings.HasPrefix(flag.Name, prefix)
		}) {
			continue
		}

		v, err := lang.FromNative(ktx.FlagValue(flag))
		if err != nil || isUnset(v) {
			continue
		}

		entries = append(entries, b.Entry(flag.Name, b.Value(v)))
	}

	return b.AST(b.Return(b.Map(entries...)))
}

func isUnset(v lang.Value) bool {
	switch v.Kind() {
	case lang.KindNone:
		return true
	case lang.KindString:
		s, _ := v.AsString()

		return s == ""
	case lang.KindList:
		items, _ := v.AsList()

		return len(items) == 0
	case lang.KindMap:
		m, _ := v.AsMap()

		return m.Len() == 0
	default:
		return false
	}
}
