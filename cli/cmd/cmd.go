package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/ardnew/dioscript/lang"
)

type (
	contextKey struct{}
	optionsKey struct{}
)

// WithContext returns a copy of ctx carrying the parsed command line.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// WithOptions returns a copy of ctx carrying interpreter options. Every
// command that parses or evaluates a script applies them, after any
// options already in ctx.
func WithOptions(ctx context.Context, opts ...lang.Option) context.Context {
	prev := optionsFrom(ctx)

	return context.WithValue(ctx, optionsKey{}, append(prev[:len(prev):len(prev)], opts...))
}

func optionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(optionsKey{}).([]lang.Option)

	return opts
}

// stdinSource names standard input in a list of script files.
const stdinSource = "-"

// script is program text assembled from one or more inputs.
type script struct {
	name string
	text string
}

// readScript reads the named files in order and joins them into one script,
// separated by newlines. Standard input is read at most once and always
// last, whether named by "-" or by a path to the same file. Other files
// reached through more than one path are also read once. With no files,
// the script is read from stdin.
func readScript(stdin io.Reader, files []string) (script, error) {
	if len(files) == 0 {
		files = []string{stdinSource}
	}

	var (
		names    []string
		parts    []string
		seen     []os.FileInfo
		useStdin bool
	)

	stdinInfo, _ := os.Stdin.Stat()

	for _, path := range files {
		if path == stdinSource {
			useStdin = true

			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return script{}, ErrReadScript.With(slogPath(path)).Wrap(err)
		}

		if stdinInfo != nil && os.SameFile(info, stdinInfo) {
			useStdin = true

			continue
		}

		if sameFileSeen(seen, info) {
			continue
		}

		seen = append(seen, info)

		text, err := readFile(path)
		if err != nil {
			return script{}, ErrReadScript.With(slogPath(path)).Wrap(err)
		}

		names = append(names, filepath.Base(path))
		parts = append(parts, text)
	}

	if useStdin {
		text, err := readAll(stdin)
		if err != nil {
			return script{}, ErrReadScript.With(slogPath(stdinSource)).Wrap(err)
		}

		names = append(names, "<stdin>")
		parts = append(parts, text)
	}

	return script{
		name: strings.Join(names, ","),
		text: strings.Join(parts, "\n"),
	}, nil
}

func sameFileSeen(seen []os.FileInfo, info os.FileInfo) bool {
	for _, s := range seen {
		if os.SameFile(s, info) {
			return true
		}
	}

	return false
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readAll(f)
}

func readAll(r io.Reader) (string, error) {
	ra, err := readahead.NewReaderSize(r, 4, 64<<10)
	if err != nil {
		return "", err
	}
	defer ra.Close()

	data, err := io.ReadAll(ra)

	return string(data), err
}
