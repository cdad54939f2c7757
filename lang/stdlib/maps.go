package stdlib

import (
	"github.com/ardnew/dioscript/lang"
)

func registerMap(reg *lang.Registry) {
	register(reg, "map", []function{
		{"keys", 1, keys},
		{"values", 1, values},
		{"get", 2, get},
		{"set", 3, set},
		{"has", 2, has},
	})
}

// mapKey returns the map and key arguments of get, set and has.
func mapKey(inv *lang.Invocation) (*lang.Map, string, error) {
	m, err := inv.Map(0)
	if err != nil {
		return nil, "", err
	}

	key, err := inv.String(1)
	if err != nil {
		return nil, "", err
	}

	return m, key, nil
}

func keys(inv *lang.Invocation) (lang.Value, error) {
	m, err := inv.Map(0)
	if err != nil {
		return lang.None, err
	}

	out := make([]lang.Value, 0, m.Len())
	for _, k := range m.Keys() {
		out = append(out, lang.StringValue(k))
	}

	return lang.ListValue(out...), nil
}

func values(inv *lang.Invocation) (lang.Value, error) {
	m, err := inv.Map(0)
	if err != nil {
		return lang.None, err
	}

	out := make([]lang.Value, 0, m.Len())
	for _, v := range m.All() {
		out = append(out, v)
	}

	return lang.ListValue(out...), nil
}

// get returns the value under key, or none.
func get(inv *lang.Invocation) (lang.Value, error) {
	m, key, err := mapKey(inv)
	if err != nil {
		return lang.None, err
	}

	v, _ := m.Get(key)

	return v, nil
}

// set returns a copy of the map with key bound to the third argument.
func set(inv *lang.Invocation) (lang.Value, error) {
	m, key, err := mapKey(inv)
	if err != nil {
		return lang.None, err
	}

	out := m.Clone()
	out.Set(key, inv.Args[2])

	return lang.MapValue(out), nil
}

func has(inv *lang.Invocation) (lang.Value, error) {
	m, key, err := mapKey(inv)
	if err != nil {
		return lang.None, err
	}

	_, ok := m.Get(key)

	return lang.BoolValue(ok), nil
}
