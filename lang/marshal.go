package lang

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// ToNative converts v to plain Go values: nil, bool, float64, string,
// []any and map[string]any. Elements become maps with "tag", "attrs" and
// "children" keys; function handles become their qualified name.
func (v Value) ToNative() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.ToNative()
		}

		return out
	case KindMap:
		return v.m.toNative()
	case KindElement:
		children := make([]any, len(v.el.Children))
		for i, child := range v.el.Children {
			children[i] = child.ToNative()
		}

		return map[string]any{
			"tag":      v.el.Tag,
			"attrs":    v.el.Attrs.toNative(),
			"children": children,
		}
	case KindFunction:
		return v.fn.String()
	}

	return nil
}

func (m *Map) toNative() map[string]any {
	out := make(map[string]any, m.Len())
	for k, item := range m.All() {
		out[k] = item.ToNative()
	}

	return out
}

// finiteNumber rejects infinities and NaN, which have no literal form.
func finiteNumber(f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return None, ErrType.Detailf("number %v is not finite", f)
	}

	return NumberValue(f), nil
}

// FromNative converts a Go value to a Value. It accepts the types produced
// by [Value.ToNative], every integer and float type, and arbitrary slices
// and string-keyed maps of convertible values. Native maps have no order,
// so their keys are sorted.
func FromNative(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return None, nil
	case Value:
		return x, nil
	case *Element:
		return ElementValue(x), nil
	case *Map:
		return MapValue(x), nil
	case bool:
		return BoolValue(x), nil
	case string:
		return StringValue(x), nil
	case float64:
		return finiteNumber(x)
	case float32:
		return finiteNumber(float64(x))
	case int:
		return NumberValue(float64(x)), nil
	case int64:
		return NumberValue(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return None, ErrType.Detailf("invalid number %q", x.String()).Wrap(err)
		}

		return finiteNumber(f)
	case yaml.MapSlice:
		m := NewMap()

		for _, item := range x {
			k, ok := item.Key.(string)
			if !ok {
				return None, ErrType.Detailf("map key must be a string, found %T", item.Key)
			}

			v, err := FromNative(item.Value)
			if err != nil {
				return None, err
			}

			m.Set(k, v)
		}

		return MapValue(m), nil
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberValue(float64(rv.Int())), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NumberValue(float64(rv.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return finiteNumber(rv.Float())

	case reflect.Bool:
		return BoolValue(rv.Bool()), nil

	case reflect.String:
		return StringValue(rv.String()), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return None, nil
		}

		return FromNative(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())

		for i := range items {
			v, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return None, err
			}

			items[i] = v
		}

		return ListValue(items...), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return None, ErrType.Detailf("map key must be a string, found %s", rv.Type().Key())
		}

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		slices.Sort(keys)

		m := NewMap()

		for _, k := range keys {
			v, err := FromNative(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return None, err
			}

			m.Set(k, v)
		}

		return MapValue(m), nil
	}

	if !rv.IsValid() {
		return None, nil
	}

	return None, ErrType.Detailf("cannot convert %s to a value", rv.Type())
}

// MarshalJSON implements json.Marshaler. Map and attribute order is
// preserved; elements encode as {"tag", "attrs", "children"} objects.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	err := v.writeJSON(&buf)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindList:
		buf.WriteByte('[')

		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')

		return nil

	case KindMap:
		return v.m.writeJSON(buf)

	case KindElement:
		buf.WriteString(`{"tag":`)

		if err := StringValue(v.el.Tag).writeJSON(buf); err != nil {
			return err
		}

		buf.WriteString(`,"attrs":`)

		if err := v.el.Attrs.writeJSON(buf); err != nil {
			return err
		}

		buf.WriteString(`,"children":`)

		if err := ListValue(v.el.Children...).writeJSON(buf); err != nil {
			return err
		}

		buf.WriteByte('}')

		return nil
	}

	data, err := json.Marshal(v.ToNative())
	if err != nil {
		return err
	}

	buf.Write(data)

	return nil
}

func (m *Map) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')

	i := 0

	for k, item := range m.All() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return err
		}

		buf.Write(key)
		buf.WriteByte(':')

		if err := item.writeJSON(buf); err != nil {
			return err
		}

		i++
	}

	buf.WriteByte('}')

	return nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// ParseJSON decodes one JSON document into a Value. Objects become Maps in
// document order.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return None, ErrType.Detailf("invalid JSON").Wrap(err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return None, ErrType.Detailf("invalid JSON: trailing data")
	}

	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return None, err
	}

	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '[':
			items := []Value{}

			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return None, err
				}

				items = append(items, item)
			}

			_, err := dec.Token() // ']'

			return ListValue(items...), err

		case '{':
			m := NewMap()

			for dec.More() {
				key, err := dec.Token()
				if err != nil {
					return None, err
				}

				item, err := decodeJSON(dec)
				if err != nil {
					return None, err
				}

				m.Set(key.(string), item)
			}

			_, err := dec.Token() // '}'

			return MapValue(m), err
		}

		return None, errors.New("unexpected delimiter " + tok.String())
	}

	return FromNative(tok)
}

// yamlValue converts v to values go-yaml encodes in order: maps become
// yaml.MapSlice.
func (v Value) yamlValue() any {
	switch v.Kind() {
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.yamlValue()
		}

		return out
	case KindMap:
		return v.m.yamlValue()
	case KindElement:
		return yaml.MapSlice{
			{Key: "tag", Value: v.el.Tag},
			{Key: "attrs", Value: v.el.Attrs.yamlValue()},
			{Key: "children", Value: ListValue(v.el.Children...).yamlValue()},
		}
	}

	return v.ToNative()
}

func (m *Map) yamlValue() yaml.MapSlice {
	out := make(yaml.MapSlice, 0, m.Len())
	for k, item := range m.All() {
		out = append(out, yaml.MapItem{Key: k, Value: item.yamlValue()})
	}

	return out
}

// ParseValue parses a single DioScript literal expression, such as one
// produced by [FormatValue]. Only literal syntax is accepted: no variables,
// calls or control flow.
func ParseValue(source string) (Value, error) {
	toks, err := Lex(source)
	if err != nil {
		return None, err
	}

	p := &parser{toks: toks, maxDepth: DefaultMaxDepth}

	n, err := p.parseExpression()
	if err != nil {
		return None, err
	}

	if tok := p.peek(); tok.Kind != TokenEOF {
		return None, p.errorExpected("end of input")
	}

	return literalValue(n)
}

// literalValue folds a constant expression tree into a Value.
func literalValue(n Node) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return n.Value, nil

	case *UnaryOp:
		v, err := literalValue(n.Operand)
		if err != nil {
			return None, err
		}

		if x, ok := v.AsNumber(); ok && n.Op == "-" {
			return NumberValue(-x), nil
		}

		if b, ok := v.AsBool(); ok && n.Op == "!" {
			return BoolValue(!b), nil
		}

	case *ListLiteral:
		items := make([]Value, 0, len(n.Items))

		for _, item := range n.Items {
			v, err := literalValue(item)
			if err != nil {
				return None, err
			}

			items = append(items, v)
		}

		return ListValue(items...), nil

	case *MapLiteral:
		m := NewMap()

		for _, e := range n.Entries {
			v, err := literalValue(e.Value)
			if err != nil {
				return None, err
			}

			m.Set(e.Key, v)
		}

		return MapValue(m), nil

	case *ElementConstruct:
		el := NewElement(n.Tag)

		for _, a := range n.Attrs {
			v, err := literalValue(a.Value)
			if err != nil {
				return None, err
			}

			el.SetAttr(a.Key, v)
		}

		for _, c := range n.Children {
			v, err := literalValue(c)
			if err != nil {
				return None, err
			}

			el.Append(v)
		}

		return ElementValue(el), nil
	}

	return None, ErrSyntax.WithPosition(n.Pos()).
		Detailf("expected a literal value, found %s", strings.ToLower(nodeName(n)))
}

func nodeName(n Node) string {
	name := reflect.TypeOf(n).String()

	return strings.TrimPrefix(name, "*lang.")
}
