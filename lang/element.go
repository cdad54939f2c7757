package lang

import (
	"html"
	"io"
	"slices"
	"strings"
)

// Element is a node of the output tree: a tag with ordered attributes and
// ordered children. Children are typically Strings, Numbers or Elements.
type Element struct {
	Tag      string
	Attrs    *Map
	Children []Value
}

// NewElement returns an element with no attributes or children.
func NewElement(tag string) *Element {
	return &Element{Tag: tag, Attrs: NewMap()}
}

// SetAttr binds an attribute; a later write to the same key wins.
func (e *Element) SetAttr(key string, v Value) {
	if e.Attrs == nil {
		e.Attrs = NewMap()
	}

	e.Attrs.Set(key, v)
}

// Attr returns the attribute bound to key.
func (e *Element) Attr(key string) (Value, bool) { return e.Attrs.Get(key) }

// Field returns the named field of e: "name" or "tag" is the tag,
// "attributes" or "attrs" a copy of the attributes, and "content" or
// "children" a copy of the children.
func (e *Element) Field(name string) (Value, bool) {
	switch name {
	case "name", "tag":
		return StringValue(e.Tag), true
	case "attributes", "attrs":
		if e.Attrs == nil {
			return MapValue(NewMap()), true
		}

		return MapValue(e.Attrs.Clone()), true
	case "content", "children":
		return ListValue(slices.Clone(e.Children)...), true
	}

	return None, false
}

// Append adds children in order.
func (e *Element) Append(children ...Value) {
	e.Children = append(e.Children, children...)
}

// Equal reports whether e and o have the same tag, attributes and children.
func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}

	return e.Tag == o.Tag &&
		e.Attrs.Equal(o.Attrs) &&
		slices.EqualFunc(e.Children, o.Children, Equal)
}

// voidTags never have children or closing tags in HTML.
var voidTags = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {},
	"img": {}, "input": {}, "link": {}, "meta": {}, "source": {},
	"track": {}, "wbr": {},
}

// HTML renders the element as HTML markup.
func (e *Element) HTML() string {
	var sb strings.Builder

	_ = e.WriteHTML(&sb)

	return sb.String()
}

// WriteHTML writes the element as HTML markup to w.
//
// Attributes render as name="value". A Bool attribute renders as a bare
// name when true and is omitted when false; None attributes are omitted.
// Text children are escaped, List children render each item in order and
// None children render nothing.
func (e *Element) WriteHTML(w io.Writer) error {
	var sb strings.Builder

	e.writeHTML(&sb)

	_, err := io.WriteString(w, sb.String())

	return err
}

func (e *Element) writeHTML(sb *strings.Builder) {
	sb.WriteByte('<')
	sb.WriteString(e.Tag)

	for k, v := range e.Attrs.All() {
		switch v.Kind() {
		case KindNone:
			continue
		case KindBool:
			if b, _ := v.AsBool(); !b {
				continue
			}

			sb.WriteByte(' ')
			sb.WriteString(k)

			continue
		}

		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(v.Text()))
		sb.WriteByte('"')
	}

	sb.WriteByte('>')

	if _, void := voidTags[strings.ToLower(e.Tag)]; void && len(e.Children) == 0 {
		return
	}

	for _, child := range e.Children {
		writeHTMLValue(sb, child)
	}

	sb.WriteString("</")
	sb.WriteString(e.Tag)
	sb.WriteByte('>')
}

func writeHTMLValue(sb *strings.Builder, v Value) {
	switch v.Kind() {
	case KindNone:
	case KindElement:
		el, _ := v.AsElement()
		el.writeHTML(sb)
	case KindList:
		items, _ := v.AsList()
		for _, item := range items {
			writeHTMLValue(sb, item)
		}
	default:
		sb.WriteString(html.EscapeString(v.Text()))
	}
}
