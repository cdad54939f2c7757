package lang

import (
	"iter"
	"slices"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindElement
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindElement:
		return "element"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is a runtime value. The zero Value is None.
//
// Values are immutable from the script's point of view: no operation
// modifies a List, Map or Element in place once it has been produced, so
// values may be shared freely.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	m    *Map
	el   *Element
	fn   *Function
}

// None is the absence of a value.
var None = Value{}

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func NumberValue(n float64) Value { return Value{kind: KindNumber, n: n} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ListValue returns a List holding items. The slice is not copied.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{kind: KindList, list: items}
}

// MapValue returns a Map value. A nil m is an empty map.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}

	return Value{kind: KindMap, m: m}
}

// ElementValue returns an Element value, or None for a nil e.
func ElementValue(e *Element) Value {
	if e == nil {
		return None
	}

	return Value{kind: KindElement, el: e}
}

// FunctionValue returns a function handle, or None for a nil f.
func FunctionValue(f *Function) Value {
	if f == nil {
		return None
	}

	return Value{kind: KindFunction, fn: f}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the items of a List. Callers must not modify them.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

func (v Value) AsMap() (*Map, bool) { return v.m, v.kind == KindMap }

func (v Value) AsElement() (*Element, bool) { return v.el, v.kind == KindElement }

func (v Value) AsFunction() (*Function, bool) { return v.fn, v.kind == KindFunction }

// String returns the value in DioScript literal syntax.
func (v Value) String() string { return FormatValue(v) }

// Text returns the value as element text content: strings are returned
// verbatim and every other kind in its literal syntax.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return formatNumber(v.n)
	case KindNone:
		return ""
	default:
		return FormatValue(v)
	}
}

// Equal reports whether a and b are structurally equal.
// Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNone:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindList:
		return slices.EqualFunc(a.list, b.list, Equal)
	case KindMap:
		return a.m.Equal(b.m)
	case KindElement:
		return a.el.Equal(b.el)
	case KindFunction:
		return a.fn == b.fn
	}

	return false
}

// Map is an ordered String→Value mapping with unique keys.
// Setting an existing key replaces its value in place; the key keeps its
// original position. A nil *Map behaves as an empty map for reads.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set binds key to v (last write wins).
func (m *Map) Set(key string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}

	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.vals[key] = v
}

// Get returns the value bound to key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return None, false
	}

	v, ok := m.vals[key]

	return v, ok
}

// Delete removes key, preserving the order of the remaining keys.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}

	if _, ok := m.vals[key]; !ok {
		return
	}

	delete(m.vals, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// All returns an iterator over the entries in insertion order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}

		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	c := NewMap()

	for k, v := range m.All() {
		c.Set(k, v)
	}

	return c
}

// Equal reports whether m and o hold equal values under the same keys.
// Key order is not significant.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}

	for k, v := range m.All() {
		w, ok := o.Get(k)
		if !ok || !Equal(v, w) {
			return false
		}
	}

	return true
}
