package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/dioscript/lang"
	"github.com/ardnew/dioscript/lang/stdlib"
	"github.com/ardnew/dioscript/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in DioScript. The file is a script evaluated with the standard
// library; the Map it returns supplies flag values:
//
//	@level = "debug";
//	return {
//	  log: { level: @level, pretty: false },
//	  "max-depth": 64,
//	};
//
// Nested maps join their keys with hyphens, so the script above sets
// --log-level, --log-pretty and --max-depth. Keys may use underscores in
// place of hyphens. Lists become comma-separated values. A script that
// fails, or returns something other than a Map, is logged and ignored.
// Command-line flags override configuration values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		rt := lang.New(
			stdlib.NewRegistry(stdlib.WithOutput(io.Discard)),
			lang.WithCache(nil),
		)

		v, err := rt.EvaluateReader(ctx, r, nil)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration", slog.Any("error", err))

			return config{}, nil
		}

		m, ok := v.AsMap()
		if !ok {
			if !v.IsNone() {
				log.WarnContext(ctx, "ignoring configuration",
					slog.String("reason", "script must return a map"),
					slog.String("kind", v.Kind().String()))
			}

			return config{}, nil
		}

		return makeConfig(m), nil
	}
}

// config implements [kong.Resolver] over flattened configuration values.
type config map[string]any

func makeConfig(m *lang.Map) config {
	c := config{}
	c.add("", m)

	return c
}

// add flattens m into c. Kong decodes numbers and lists from strings, so
// only booleans keep their type.
func (c config) add(prefix string, m *lang.Map) {
	for k, v := range m.All() {
		key := prefix + k

		switch v.Kind() {
		case lang.KindNone:

		case lang.KindMap:
			sub, _ := v.AsMap()
			c.add(key+"-", sub)

		case lang.KindBool:
			b, _ := v.AsBool()
			c[key] = b

		case lang.KindNumber:
			n, _ := v.AsNumber()
			c[key] = strconv.FormatFloat(n, 'f', -1, 64)

		case lang.KindList:
			items, _ := v.AsList()

			text := make([]string, len(items))
			for i, item := range items {
				text[i] = item.Text()
			}

			c[key] = strings.Join(text, ",")

		default:
			c[key] = v.Text()
		}
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	if v, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}
