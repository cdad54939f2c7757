package lang

import (
	"strings"
	"testing"
)

const benchSource = `
@rows = [1, 2, 3, 4, 5, 6, 7, 8, 9, 10];
return table {
	class: "grid",
	for @r in @rows {
		return tr {
			for @c in @rows {
				if (@r * @c) % 2 == 0 { return td { @r * @c } }
			}
		}
	}
};`

func BenchmarkParse(b *testing.B) {
	for b.Loop() {
		if _, err := ParseString(b.Context(), benchSource); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	b.Run("cached", func(b *testing.B) {
		rt := New(nil)

		for b.Loop() {
			if _, err := rt.Evaluate(b.Context(), benchSource, nil); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("uncached", func(b *testing.B) {
		rt := New(nil, WithCache(nil))

		for b.Loop() {
			if _, err := rt.Evaluate(b.Context(), benchSource, nil); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkHTML(b *testing.B) {
	v, err := New(nil).Evaluate(b.Context(), benchSource, nil)
	if err != nil {
		b.Fatal(err)
	}

	el, _ := v.AsElement()

	var sb strings.Builder

	for b.Loop() {
		sb.Reset()

		if err := el.WriteHTML(&sb); err != nil {
			b.Fatal(err)
		}
	}
}
