package stdlib

import (
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/dioscript/lang"
)

// maxRange bounds the length of lists built by std::range.
const maxRange = 1 << 20

func registerStd(reg *lang.Registry, cfg config) {
	register(reg, lang.RootModule, []function{
		{"type", 1, typeOf},
		{"len", 1, length},
		{"str", 1, str},
		{"num", 1, num},
		{"print", lang.Variadic, printer(cfg.output)},
		{"range", lang.Variadic, rangeOf},
		{"execute", 1, execute},
		{"call", lang.Variadic, call},
		{"html", 1, html},
	})
}

func typeOf(inv *lang.Invocation) (lang.Value, error) {
	return lang.StringValue(inv.Args[0].Kind().String()), nil
}

func length(inv *lang.Invocation) (lang.Value, error) {
	v := inv.Args[0]

	var n int

	switch v.Kind() {
	case lang.KindString:
		s, _ := v.AsString()
		n = utf8.RuneCountInString(s)
	case lang.KindList:
		l, _ := v.AsList()
		n = len(l)
	case lang.KindMap:
		m, _ := v.AsMap()
		n = m.Len()
	case lang.KindElement:
		el, _ := v.AsElement()
		n = len(el.Children)
	default:
		return lang.None, typeError(inv, 0, "string, list, map or element")
	}

	return lang.NumberValue(float64(n)), nil
}

func str(inv *lang.Invocation) (lang.Value, error) {
	if s, ok := inv.Args[0].AsString(); ok {
		return lang.StringValue(s), nil
	}

	return lang.StringValue(inv.Args[0].String()), nil
}

func num(inv *lang.Invocation) (lang.Value, error) {
	v := inv.Args[0]

	switch v.Kind() {
	case lang.KindNumber:
		return v, nil
	case lang.KindBool:
		if b, _ := v.AsBool(); b {
			return lang.NumberValue(1), nil
		}

		return lang.NumberValue(0), nil
	case lang.KindString:
		s, _ := v.AsString()

		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
			return lang.None, lang.ErrType.WithPosition(inv.Pos).
				Detailf("cannot convert %q to a number", s)
		}

		return lang.NumberValue(n), nil
	}

	return lang.None, typeError(inv, 0, "number, bool or string")
}

// printer returns std::print, which writes its arguments as text separated
// by spaces and followed by a newline.
func printer(w io.Writer) lang.Callable {
	return func(inv *lang.Invocation) (lang.Value, error) {
		var sb strings.Builder

		for i, arg := range inv.Args {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(arg.Text())
		}

		sb.WriteByte('\n')

		_, err := io.WriteString(w, sb.String())

		return lang.None, err
	}
}

// rangeOf implements range(n), counting 0 to n-1, and range(a, b), counting
// a to b-1.
func rangeOf(inv *lang.Invocation) (lang.Value, error) {
	var lo, hi int

	switch len(inv.Args) {
	case 1:
		n, err := inv.Int(0)
		if err != nil {
			return lang.None, err
		}

		hi = n
	case 2:
		a, err := inv.Int(0)
		if err != nil {
			return lang.None, err
		}

		b, err := inv.Int(1)
		if err != nil {
			return lang.None, err
		}

		lo, hi = a, b
	default:
		return lang.None, arityError(inv, "1 or 2")
	}

	if hi-lo > maxRange {
		return lang.None, lang.ErrRuntimeLimit.WithPosition(inv.Pos).
			Detailf("range of %d items exceeds %d", hi-lo, maxRange)
	}

	items := make([]lang.Value, 0, max(hi-lo, 0))
	for i := lo; i < hi; i++ {
		items = append(items, lang.NumberValue(float64(i)))
	}

	return lang.ListValue(items...), nil
}

func execute(inv *lang.Invocation) (lang.Value, error) {
	src, err := inv.String(0)
	if err != nil {
		return lang.None, err
	}

	return inv.Evaluate(src, nil)
}

func call(inv *lang.Invocation) (lang.Value, error) {
	if len(inv.Args) == 0 {
		return lang.None, arityError(inv, "at least 1")
	}

	return inv.Invoke(inv.Args[0], inv.Args[1:]...)
}

func html(inv *lang.Invocation) (lang.Value, error) {
	var sb strings.Builder

	if err := lang.FormatHTML(&sb, inv.Args[0]); err != nil {
		return lang.None, err
	}

	return lang.StringValue(strings.TrimSuffix(sb.String(), "\n")), nil
}
