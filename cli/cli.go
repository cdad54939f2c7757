package cli

import (
	"context"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/dioscript/cli/cmd"
	"github.com/ardnew/dioscript/lang"
	"github.com/ardnew/dioscript/log"
	"github.com/ardnew/dioscript/pkg"
)

// CLI is the top-level command-line interface for dioscript.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	MaxDepth      int `default:"${maxDepth}"      help:"Maximum nesting depth of blocks, elements and calls." name:"max-depth"`
	MaxIterations int `default:"${maxIterations}" help:"Maximum loop iterations per evaluation."              name:"max-iterations"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate scripts (default)."`
	AST  cmd.AST  `cmd:""                    help:"Print the syntax tree of scripts."`
	Fmt  cmd.Fmt  `cmd:""                    help:"Rewrite scripts in canonical layout."`
	Init cmd.Init `cmd:""                    help:"Write a configuration file holding the current flag values."`
	REPL cmd.REPL `cmd:""                    help:"Evaluate lines at an interactive prompt."                         name:"repl"`
}

// Run executes the dioscript CLI with the given context and arguments.
// The exit function is called with the exit code when kong terminates
// early, as for --help or a usage error.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Apply logger flags before kong parses, so that messages logged while
	// loading configuration already use them.
	cli.Log.scan(args)

	parser, err := newParser(&ctx, &cli, exit, configPath(baseConfig))
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithOptions(ctx, cli.options()...)

	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}

// newParser builds the kong parser for cli. Commands receive the context
// *ctx holds when they run, so callers may replace it after parsing.
func newParser(
	ctx *context.Context,
	cli *CLI,
	exit func(code int),
	configFile string,
) (*kong.Kong, error) {
	vars := kong.Vars{
		cmd.ConfigIdentifier: configFile,
		"version":            pkg.Name + " " + pkg.Version,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"maxIterations":      strconv.Itoa(lang.DefaultMaxIterations),
		"history":            cachePath(baseHistory),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	return kong.New(cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return *ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFile+".json"),
		kong.Configuration(resolve(*ctx), configFile),
		vars,
	)
}

// options returns the interpreter options selected by the global flags.
func (c *CLI) options() []lang.Option {
	return []lang.Option{
		lang.WithMaxDepth(c.MaxDepth),
		lang.WithMaxIterations(c.MaxIterations),
		lang.WithLogger(log.Default()),
	}
}
