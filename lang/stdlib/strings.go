package stdlib

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ardnew/dioscript/lang"
)

// maxRepeat bounds the length of strings built by string::repeat.
const maxRepeat = 1 << 24

func registerString(reg *lang.Registry) {
	register(reg, "string", []function{
		{"upper", 1, caser(func() cases.Caser { return cases.Upper(language.Und) })},
		{"lower", 1, caser(func() cases.Caser { return cases.Lower(language.Und) })},
		{"title", 1, caser(func() cases.Caser { return cases.Title(language.Und) })},
		{"trim", 1, stringFunc(strings.TrimSpace)},
		{"split", 2, split},
		{"join", 2, join},
		{"contains", 2, containsString},
		{"replace", 3, replace},
		{"repeat", 2, repeat},
	})
}

// caser adapts a Unicode case mapping. A Caser holds state, so a new one is
// made for every call.
func caser(newCaser func() cases.Caser) lang.Callable {
	return func(inv *lang.Invocation) (lang.Value, error) {
		s, err := inv.String(0)
		if err != nil {
			return lang.None, err
		}

		c := newCaser()

		return lang.StringValue(c.String(s)), nil
	}
}

func stringFunc(fn func(string) string) lang.Callable {
	return func(inv *lang.Invocation) (lang.Value, error) {
		s, err := inv.String(0)
		if err != nil {
			return lang.None, err
		}

		return lang.StringValue(fn(s)), nil
	}
}

// strings2 returns the first two arguments as strings.
func strings2(inv *lang.Invocation) (string, string, error) {
	a, err := inv.String(0)
	if err != nil {
		return "", "", err
	}

	b, err := inv.String(1)
	if err != nil {
		return "", "", err
	}

	return a, b, nil
}

func split(inv *lang.Invocation) (lang.Value, error) {
	s, sep, err := strings2(inv)
	if err != nil {
		return lang.None, err
	}

	parts := strings.Split(s, sep)
	items := make([]lang.Value, len(parts))

	for i, p := range parts {
		items[i] = lang.StringValue(p)
	}

	return lang.ListValue(items...), nil
}

// join concatenates the text of each list item.
func join(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	sep, err := inv.String(1)
	if err != nil {
		return lang.None, err
	}

	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Text()
	}

	return lang.StringValue(strings.Join(parts, sep)), nil
}

func containsString(inv *lang.Invocation) (lang.Value, error) {
	s, sub, err := strings2(inv)
	if err != nil {
		return lang.None, err
	}

	return lang.BoolValue(strings.Contains(s, sub)), nil
}

func replace(inv *lang.Invocation) (lang.Value, error) {
	s, old, err := strings2(inv)
	if err != nil {
		return lang.None, err
	}

	repl, err := inv.String(2)
	if err != nil {
		return lang.None, err
	}

	return lang.StringValue(strings.ReplaceAll(s, old, repl)), nil
}

func repeat(inv *lang.Invocation) (lang.Value, error) {
	s, err := inv.String(0)
	if err != nil {
		return lang.None, err
	}

	n, err := inv.Int(1)
	if err != nil {
		return lang.None, err
	}

	if n < 0 {
		return lang.None, typeError(inv, 1, "non-negative count")
	}

	if n > 0 && len(s) > maxRepeat/n {
		return lang.None, lang.ErrRuntimeLimit.WithPosition(inv.Pos).
			Detailf("repeated string exceeds %d bytes", maxRepeat)
	}

	return lang.StringValue(strings.Repeat(s, n)), nil
}
