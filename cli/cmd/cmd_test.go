package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/dioscript/lang"
)

// testStdio returns streams reading in and capturing output.
func testStdio(in string) (stdio, *strings.Builder, *strings.Builder) {
	var out, errOut strings.Builder

	return stdio{in: strings.NewReader(in), out: &out, err: &errOut}, &out, &errOut
}

// writeFiles creates the named files in a temporary directory and returns
// their paths in order.
func writeFiles(t *testing.T, files ...[2]string) []string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, len(files))

	for i, f := range files {
		paths[i] = filepath.Join(dir, f[0])

		err := os.WriteFile(paths[i], []byte(f[1]), 0o600)
		if err != nil {
			t.Fatal(err)
		}
	}

	return paths
}

func TestReadScript(t *testing.T) {
	paths := writeFiles(t,
		[2]string{"a.dio", "@a = 1;"},
		[2]string{"b.dio", "@b = 2;"},
	)

	link := filepath.Join(t.TempDir(), "alias.dio")
	if err := os.Symlink(paths[0], link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	tests := []struct {
		name     string
		files    []string
		stdin    string
		wantName string
		wantText string
	}{
		{"stdin_default", nil, "return 1;", "<stdin>", "return 1;"},
		{"files", paths, "", "a.dio,b.dio", "@a = 1;\n@b = 2;"},
		{"stdin_last", []string{"-", paths[1]}, "return @b;", "b.dio,<stdin>", "@b = 2;\nreturn @b;"},
		{"stdin_once", []string{"-", "-"}, "x", "<stdin>", "x"},
		{"duplicate_path", []string{paths[0], paths[0]}, "", "a.dio", "@a = 1;"},
		{"symlink", []string{paths[0], link}, "", "a.dio", "@a = 1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := readScript(strings.NewReader(tt.stdin), tt.files)
			if err != nil {
				t.Fatal(err)
			}

			if s.name != tt.wantName || s.text != tt.wantText {
				t.Errorf("readScript = (%q, %q), want (%q, %q)",
					s.name, s.text, tt.wantName, tt.wantText)
			}
		})
	}
}

func TestReadScriptMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.dio")

	_, err := readScript(strings.NewReader(""), []string{missing})
	if !errors.Is(err, ErrReadScript) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrReadScript wrapping ErrNotExist", err)
	}
}

func TestWithOptions(t *testing.T) {
	ctx := WithOptions(t.Context(), lang.WithMaxDepth(4))
	first := WithOptions(ctx, lang.WithMaxIterations(10))
	second := WithOptions(ctx, lang.WithMaxIterations(20))

	if n := len(optionsFrom(ctx)); n != 1 {
		t.Errorf("base context holds %d options, want 1", n)
	}

	if len(optionsFrom(first)) != 2 || len(optionsFrom(second)) != 2 {
		t.Error("derived contexts do not hold 2 options each")
	}

	if kongContextFrom(ctx) != nil {
		t.Error("unexpected kong context")
	}
}

func TestParseBindings(t *testing.T) {
	bindings, err := parseBindings(map[string]string{
		"n":     "2",
		"@list": "[1, true]",
		"text":  "hello world",
		"quote": `"quoted"`,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"n":     "2",
		"list":  "[1, true]",
		"text":  `"hello world"`,
		"quote": `"quoted"`,
	}

	for name, text := range want {
		if got := lang.FormatValue(bindings[name]); got != text {
			t.Errorf("@%s = %s, want %s", name, got, text)
		}
	}

	if b, err := parseBindings(nil); b != nil || err != nil {
		t.Errorf("parseBindings(nil) = %v, %v", b, err)
	}

	for _, name := range []string{"", "1x", "if", "a b"} {
		_, err := parseBindings(map[string]string{name: "1"})
		if !errors.Is(err, ErrBinding) {
			t.Errorf("parseBindings(%q) error = %v, want ErrBinding", name, err)
		}
	}
}

func TestError(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrWriteOutput.With(slog.String("format", "json")).Wrap(cause)

	if got := err.Error(); got != "write output: disk full" {
		t.Errorf("Error() = %q", got)
	}

	if !errors.Is(err, ErrWriteOutput) || !errors.Is(err, cause) {
		t.Error("error chain broken")
	}

	if errors.Is(err, ErrEvaluate) {
		t.Error("matched unrelated sentinel")
	}

	if errors.Is(ErrWriteOutput, err) {
		t.Error("sentinel matched a derived error as target")
	}

	attrs := err.LogValue().Group()

	var keys []string
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}

	if got := strings.Join(keys, ","); got != "error,cause,format" {
		t.Errorf("LogValue keys = %s", got)
	}
}
