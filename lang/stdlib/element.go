package stdlib

import "github.com/ardnew/dioscript/lang"

func registerElement(reg *lang.Registry) {
	register(reg, "element", []function{
		{"tag", 1, field("tag")},
		{"attrs", 1, field("attrs")},
		{"children", 1, field("children")},
		{"attr", 2, attr},
		{"new", 3, newElement},
	})
}

// field returns a function reading the named field of its Element argument.
func field(name string) lang.Callable {
	return func(inv *lang.Invocation) (lang.Value, error) {
		el, err := inv.Element(0)
		if err != nil {
			return lang.None, err
		}

		v, _ := el.Field(name)

		return v, nil
	}
}

// attr returns the named attribute, or none.
func attr(inv *lang.Invocation) (lang.Value, error) {
	el, err := inv.Element(0)
	if err != nil {
		return lang.None, err
	}

	key, err := inv.String(1)
	if err != nil {
		return lang.None, err
	}

	v, _ := el.Attr(key)

	return v, nil
}

// newElement builds an element from a tag, an attribute map (or none) and
// a child list (or none).
func newElement(inv *lang.Invocation) (lang.Value, error) {
	name, err := inv.String(0)
	if err != nil {
		return lang.None, err
	}

	if !lang.IsIdentifier(name) {
		return lang.None, typeError(inv, 0, "tag name")
	}

	el := lang.NewElement(name)

	if !inv.Args[1].IsNone() {
		m, err := inv.Map(1)
		if err != nil {
			return lang.None, err
		}

		el.Attrs = m.Clone()
	}

	if !inv.Args[2].IsNone() {
		items, err := inv.List(2)
		if err != nil {
			return lang.None, err
		}

		el.Append(items...)
	}

	return lang.ElementValue(el), nil
}
