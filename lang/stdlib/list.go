package stdlib

import (
	"slices"

	"github.com/ardnew/dioscript/lang"
)

func registerList(reg *lang.Registry) {
	register(reg, "list", []function{
		{"push", 2, push},
		{"concat", 2, concat},
		{"reverse", 1, reverse},
		{"slice", 3, slice},
		{"map", 2, mapList},
		{"filter", 2, filter},
		{"contains", 2, containsItem},
	})
}

func push(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	out := make([]lang.Value, 0, len(items)+1)

	return lang.ListValue(append(append(out, items...), inv.Args[1])...), nil
}

func concat(inv *lang.Invocation) (lang.Value, error) {
	a, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	b, err := inv.List(1)
	if err != nil {
		return lang.None, err
	}

	return lang.ListValue(slices.Concat(a, b)...), nil
}

func reverse(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	out := slices.Clone(items)
	slices.Reverse(out)

	return lang.ListValue(out...), nil
}

// slice returns items start through end-1. Negative bounds count from the
// end, and bounds outside the list are clamped.
func slice(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	start, err := inv.Int(1)
	if err != nil {
		return lang.None, err
	}

	end, err := inv.Int(2)
	if err != nil {
		return lang.None, err
	}

	start, end = clamp(start, len(items)), clamp(end, len(items))
	if start >= end {
		return lang.ListValue(), nil
	}

	return lang.ListValue(slices.Clone(items[start:end])...), nil
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}

	return min(max(i, 0), n)
}

// mapList calls fn with each item and collects the results.
func mapList(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	out := make([]lang.Value, len(items))

	for i, item := range items {
		v, err := inv.Invoke(inv.Args[1], item)
		if err != nil {
			return lang.None, err
		}

		out[i] = v
	}

	return lang.ListValue(out...), nil
}

// filter keeps the items for which fn returns true.
func filter(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	out := []lang.Value{}

	for _, item := range items {
		v, err := inv.Invoke(inv.Args[1], item)
		if err != nil {
			return lang.None, err
		}

		keep, ok := v.AsBool()
		if !ok {
			return lang.None, lang.ErrType.WithPosition(inv.Pos).
				Detailf("filter function must return bool, found %s", v.Kind())
		}

		if keep {
			out = append(out, item)
		}
	}

	return lang.ListValue(out...), nil
}

func containsItem(inv *lang.Invocation) (lang.Value, error) {
	items, err := inv.List(0)
	if err != nil {
		return lang.None, err
	}

	return lang.BoolValue(slices.ContainsFunc(items, func(v lang.Value) bool {
		return lang.Equal(v, inv.Args[1])
	})), nil
}
