// Package cli contains the command line interface of dioscript.
//
// # Usage
//
//	dioscript [flags] [eval] [file ...]
//	dioscript ast [file ...]
//	dioscript fmt [file ...]
//	dioscript init [--force | --stdout]
//	dioscript repl
//
// Scripts are read from the named files in order, or from standard input.
// The eval command is the default, so `dioscript page.dio` evaluates
// page.dio and prints the value it returns:
//
//	dioscript --output=html page.dio > page.html
//	echo 'return p { @who };' | dioscript -D who=world
//
// The repl command starts an interactive prompt whose variables persist
// from line to line. Its history is kept in the user cache directory.
//
// # Configuration
//
// Flag defaults are read from a DioScript configuration script in the user
// configuration directory (for example ~/.config/dioscript/config). The
// script returns a Map of flag values; see [resolve]. A JSON file of the
// same name with a .json extension is also read. The init command writes a
// configuration script holding the current value of every global flag.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: record encoding (json, text)
//   - --log-time-layout: timestamp layout, or "none"
//   - --[no-]log-caller: include the source location of log calls
//   - --[no-]log-pretty: colorize records on terminals
//
// Logger flags take effect before any other flag is parsed.
//
// # Profiling Options
//
// Profiling is available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: enable a profiler (allocs, block, clock, cpu, ...)
//   - --pprof-dir: profile output directory (default ~/.cache/dioscript/pprof)
package cli
