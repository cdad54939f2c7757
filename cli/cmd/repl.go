package cmd

import (
	"context"

	"github.com/ardnew/dioscript/cli/cmd/repl"
)

// REPL evaluates lines typed at an interactive prompt.
type REPL struct {
	Output  string            `default:"native"     enum:"native,html,json,yaml"                           help:"Result format (${enum})."                    short:"o"`
	Indent  int               `default:"2"          help:"Indent width; 0 selects compact output."         short:"i"`
	Vars    map[string]string `help:"Bind @NAME to VALUE when the session starts." mapsep:"none"          name:"var"                                         placeholder:"NAME=VALUE" short:"D"`
	History string            `default:"${history}" help:"History file; empty keeps history in memory."`
}

// Run executes the repl command.
func (r *REPL) Run(ctx context.Context) error {
	bindings, err := parseBindings(r.Vars)
	if err != nil {
		return err
	}

	return repl.Run(ctx, repl.Config{
		Options:  optionsFrom(ctx),
		Bindings: bindings,
		History:  r.History,
		Output:   r.Output,
		Indent:   r.Indent,
	})
}
