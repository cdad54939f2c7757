package lang

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestFromNative(t *testing.T) {
	type point struct{ X int }

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, `none`},
		{"int", 3, `3`},
		{"uint8", uint8(7), `7`},
		{"float32", float32(0.5), `0.5`},
		{"string", "s", `"s"`},
		{"slice", []string{"a", "b"}, `["a", "b"]`},
		{"sorted map", map[string]int{"b": 2, "a": 1}, `{ "a": 1, "b": 2 }`},
		{"nested", map[string]any{"l": []any{true, nil}}, `{ "l": [true, none] }`},
		{"pointer", new(int), `0`},
		{"json number", json.Number("12.5"), `12.5`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromNative(tt.input)
			if err != nil {
				t.Fatalf("convert error: %v", err)
			}

			if got := FormatValue(v); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	bad := []any{
		point{X: 1},
		map[int]int{1: 1},
		make(chan int),
		math.Inf(1),
		[]float64{math.NaN()},
	}

	for _, bad := range bad {
		if _, err := FromNative(bad); !errors.Is(err, ErrType) {
			t.Errorf("%T: expected ErrType, got %v", bad, err)
		}
	}
}

func TestToNative(t *testing.T) {
	got := ElementValue(sampleElement()).ToNative()

	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}

	if m["tag"] != "div" {
		t.Errorf("expected tag div, got %v", m["tag"])
	}

	if attrs := m["attrs"].(map[string]any); attrs["id"] != "x" {
		t.Errorf("expected id attribute, got %v", attrs)
	}

	if children := m["children"].([]any); len(children) != 1 {
		t.Errorf("expected one child, got %v", children)
	}
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"z": [1, 2.5, "x"], "a": {"t": true, "n": null}}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	want := `{ "z": [1, 2.5, "x"], "a": { "t": true, "n": none } }`
	if got := FormatValue(v); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	var out Value
	if err := json.Unmarshal([]byte(`["a", {"b": 1}]`), &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if got := FormatValue(out); got != `["a", { "b": 1 }]` {
		t.Errorf("unexpected value %s", got)
	}

	for _, bad := range []string{`{`, `[1] [2]`, ``} {
		if _, err := ParseJSON([]byte(bad)); !errors.Is(err, ErrType) {
			t.Errorf("%q: expected ErrType, got %v", bad, err)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`42`, `42`},
		{`-1.5`, `-1.5`},
		{`!false`, `true`},
		{`"s"`, `"s"`},
		{`[1, [2]]`, `[1, [2]]`},
		{`{ k: none }`, `{ "k": none }`},
		{`a { href: "/", "x" }`, `a { href: "/", "x" }`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseValue(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if got := FormatValue(v); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	for _, bad := range []string{`@x`, `1 + 2`, `len([])`, `[1] 2`, `for @i in [] {}`} {
		if _, err := ParseValue(bad); !errors.Is(err, ErrSyntax) {
			t.Errorf("%q: expected ErrSyntax, got %v", bad, err)
		}
	}
}
