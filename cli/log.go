package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/dioscript/log"
)

// logFormat configures the package logger as kong decodes --log-format, so
// that errors reported during parsing already use the requested format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the package logger as kong decodes --log-level.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"text"    enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"kitchen"                         help:"Set timestamp layout (named or Go reference layout; 'none' omits it)."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies every logger flag, including those without a decoding
// side effect.
func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies logger flags found in args before kong parses them, so that
// the logger is configured regardless of flag position. Scanning stops at
// "--".
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, value, assigned := strings.Cut(arg, "=")

		negated := strings.HasPrefix(name, "--no-log-")
		if negated {
			name = "--" + strings.TrimPrefix(name, "--no-")
		}

		// next consumes the following argument as the value of a flag
		// written without "=".
		next := func() bool {
			if assigned {
				return true
			}

			if i+1 < len(args) && args[i+1] != "" && args[i+1][0] != '-' {
				i++
				value = args[i]

				return true
			}

			return false
		}

		switch name {
		case "--log-level":
			if !negated && next() {
				_ = f.Level.UnmarshalText([]byte(value))
			}

		case "--log-format":
			if !negated && next() {
				_ = f.Format.UnmarshalText([]byte(value))
			}

		case "--log-time-layout":
			if !negated && next() {
				f.TimeLayout = value
				log.Config(log.WithTimeLayout(value))
			}

		case "--log-pretty":
			if enable, ok := scanBool(value, assigned, negated); ok {
				f.Pretty = enable
				log.Config(log.WithPretty(enable))
			}

		case "--log-caller":
			if enable, ok := scanBool(value, assigned, negated); ok {
				f.Caller = enable
				log.Config(log.WithCaller(enable))
			}
		}
	}
}

// scanBool interprets a boolean flag. A bare flag is true and a negated
// flag inverts its value.
func scanBool(value string, assigned, negated bool) (enable, ok bool) {
	enable = true

	if assigned {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return false, false
		}

		enable = v
	}

	return enable != negated, true
}
