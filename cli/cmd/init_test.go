package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
)

type initCLI struct {
	Level    string   `default:"info"`
	MaxDepth int      `default:"8"`
	Pretty   bool     `default:"true"  negatable:""`
	Tags     []string `help:"unset lists are left out"`
	Secret   string   `default:"s"     hidden:""`
	Pprof    string   `default:"cpu"   name:"pprof-mode"`

	Init Init `cmd:""`
}

// parseInit parses args with a configuration path in a temporary directory.
func parseInit(t *testing.T, args ...string) (context.Context, *initCLI, string) {
	t.Helper()

	var cli initCLI

	path := filepath.Join(t.TempDir(), "nested", "config")

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: path})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx), &cli, path
}

const wantConfig = `return {
  "level": "info",
  "max-depth": 8,
  "pretty": true
};
`

func TestInitStdout(t *testing.T) {
	ctx, cli, path := parseInit(t, "init", "--stdout")
	std, out, _ := testStdio("")

	if err := cli.Init.run(ctx, std); err != nil {
		t.Fatal(err)
	}

	if out.String() != wantConfig {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), wantConfig)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("--stdout created %s", path)
	}
}

func TestInitFile(t *testing.T) {
	ctx, cli, path := parseInit(t, "--level=debug", "init")
	std, _, _ := testStdio("")

	if err := cli.Init.run(ctx, std); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := `return {
  "level": "debug",
  "max-depth": 8,
  "pretty": true
};
`
	if string(data) != want {
		t.Errorf("config file:\n%s\nwant:\n%s", data, want)
	}

	err = cli.Init.run(ctx, std)
	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Errorf("second run error = %v, want ErrFileExists", err)
	}

	cli.Init.Force = true
	if err := cli.Init.run(ctx, std); err != nil {
		t.Errorf("forced run: %v", err)
	}
}

func TestInitWithoutCommandLine(t *testing.T) {
	std, _, _ := testStdio("")

	var i Init
	if err := i.run(t.Context(), std); !errors.Is(err, ErrNoKongConfig) {
		t.Errorf("error = %v, want ErrNoKongConfig", err)
	}
}
