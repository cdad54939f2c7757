package lang

import (
	"strings"
	"testing"
)

func sampleElement() *Element {
	p := NewElement("p")
	p.Append(StringValue("t"))

	el := NewElement("div")
	el.SetAttr("id", StringValue("x"))
	el.Append(ElementValue(p))

	return el
}

func TestFormatValue(t *testing.T) {
	attrs := NewElement("p")
	attrs.SetAttr("data id", NumberValue(1))
	attrs.SetAttr("if", BoolValue(true))

	m := NewMap()
	m.Set("k", NumberValue(1))
	m.Set("with space", None)

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"none", None, `none`},
		{"bool", BoolValue(false), `false`},
		{"integer", NumberValue(42), `42`},
		{"negative", NumberValue(-3), `-3`},
		{"fraction", NumberValue(0.1), `0.1`},
		{"large", NumberValue(1e21), `1e+21`},
		{"string", StringValue("a\"b\n"), `"a\"b\n"`},
		{"list", ListValue(NumberValue(1), StringValue("x")), `[1, "x"]`},
		{"empty list", ListValue(), `[]`},
		{"map", MapValue(m), `{ "k": 1, "with space": none }`},
		{"empty map", MapValue(nil), `{}`},
		{"element", ElementValue(sampleElement()), `div { id: "x", p { "t" } }`},
		{"quoted attributes", ElementValue(attrs), `p { "data id": 1, "if": true }`},
		{"empty element", ElementValue(NewElement("br")), `br {}`},
		{"function", FunctionValue(&Function{Module: "m", Name: "f"}), `m::f`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFormat_Indented(t *testing.T) {
	m := NewMap()
	m.Set("a", NumberValue(1))
	m.Set("b", ElementValue(sampleElement()))

	var sb strings.Builder

	if err := Format(&sb, MapValue(m), 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	want := `{
  "a": 1,
  "b": div {
    id: "x",
    p {
      "t"
    }
  }
}
`
	if sb.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestFormatValue_RoundTrip(t *testing.T) {
	m := NewMap()
	m.Set("list", ListValue(NumberValue(1.5), BoolValue(true), None))
	m.Set("el", ElementValue(sampleElement()))
	m.Set("neg", NumberValue(-2))

	v := MapValue(m)

	parsed, err := ParseValue(FormatValue(v))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if !Equal(v, parsed) {
		t.Errorf("expected %v, got %v", v, parsed)
	}
}

func TestFormatHTML(t *testing.T) {
	el := NewElement("div")
	el.SetAttr("class", StringValue("a<b"))
	el.SetAttr("hidden", BoolValue(true))
	el.SetAttr("off", BoolValue(false))
	el.SetAttr("skip", None)
	el.SetAttr("n", NumberValue(2))
	el.Append(
		ElementValue(NewElement("img")),
		StringValue("x & y"),
		ListValue(NumberValue(1), None, StringValue("z")),
		None,
	)

	want := `<div class="a&lt;b" hidden n="2"><img>x &amp; y1z</div>`

	if got := el.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	var sb strings.Builder

	if err := FormatHTML(&sb, StringValue("a<b")); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if sb.String() != "a&lt;b\n" {
		t.Errorf("expected escaped text, got %q", sb.String())
	}
}

func TestFormatJSON(t *testing.T) {
	m := NewMap()
	m.Set("b", NumberValue(1))
	m.Set("a", ListValue(BoolValue(true), None, StringValue("s")))
	m.Set("el", ElementValue(sampleElement()))
	m.Set("fn", FunctionValue(&Function{Module: "m", Name: "f"}))

	var sb strings.Builder

	if err := FormatJSON(&sb, MapValue(m), 0); err != nil {
		t.Fatalf("format error: %v", err)
	}

	want := `{"b":1,"a":[true,null,"s"],` +
		`"el":{"tag":"div","attrs":{"id":"x"},"children":[{"tag":"p","attrs":{},"children":["t"]}]},` +
		`"fn":"m::f"}` + "\n"

	if sb.String() != want {
		t.Errorf("expected %s, got %s", want, sb.String())
	}

	sb.Reset()

	if err := FormatJSON(&sb, ListValue(NumberValue(1)), 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if sb.String() != "[\n  1\n]\n" {
		t.Errorf("unexpected indented output %q", sb.String())
	}
}

func TestFormatYAML(t *testing.T) {
	m := NewMap()
	m.Set("zeta", StringValue("last"))
	m.Set("alpha", BoolValue(true))

	var sb strings.Builder

	if err := FormatYAML(t.Context(), &sb, MapValue(m), 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	out := sb.String()

	z, a := strings.Index(out, "zeta:"), strings.Index(out, "alpha:")
	if z < 0 || a < 0 || z > a {
		t.Errorf("expected keys in insertion order, got:\n%s", out)
	}

	sb.Reset()

	if err := FormatYAML(t.Context(), &sb, MapValue(m), 0); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if !strings.HasPrefix(sb.String(), "{") {
		t.Errorf("expected flow style, got %q", sb.String())
	}
}

func TestAST_Format(t *testing.T) {
	const source = `@a=[1,2];if @a[0]==1{return div{class:"x",for @i in @a{return p{@i}}}}` +
		`else if true{return 1}else{return (1+2)*3}`

	want := `@a = [1, 2];
if @a[0] == 1 {
  return div {
    class: "x",
    for @i in @a {
      return p {
        @i
      };
    }
  };
} else if true {
  return 1;
} else {
  return (1 + 2) * 3;
}
`

	var sb strings.Builder

	if err := mustParse(t, source).Format(&sb, 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if sb.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", sb.String(), want)
	}

	var again strings.Builder

	if err := mustParse(t, sb.String()).Format(&again, 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	if again.String() != want {
		t.Errorf("expected formatting to be stable, got:\n%s", again.String())
	}
}

func TestAST_FormatPostfix(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`return (@a+1).x.f(1,2)[0];`, "return (@a + 1).x.f(1, 2)[0];\n"},
		{`return p{"a"}.content;`, "return p {\n  \"a\"\n}.content;\n"},
		{`return [1].reverse();`, "return [1].reverse();\n"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			var sb strings.Builder

			if err := mustParse(t, tt.source).Format(&sb, 2); err != nil {
				t.Fatalf("format error: %v", err)
			}

			if sb.String() != tt.want {
				t.Fatalf("unexpected output:\n%s\nwant:\n%s", sb.String(), tt.want)
			}

			var again strings.Builder

			if err := mustParse(t, sb.String()).Format(&again, 2); err != nil {
				t.Fatalf("format error: %v", err)
			}

			if again.String() != tt.want {
				t.Errorf("expected formatting to be stable, got:\n%s", again.String())
			}
		})
	}
}

func TestBuilder_Format(t *testing.T) {
	b := NewBuilder()
	ast := b.AST(
		b.Assign("level", b.String("info")),
		b.Return(b.Map(
			b.Entry("log-level", b.Ref("level")),
			b.Entry("pretty", b.Bool(true)),
			b.Entry("items", b.List(b.Number(1), b.None())),
			b.Entry("page", b.Element("p", []Attribute{b.Entry("id", b.String("x"))},
				b.Call("", "len", b.List()))),
		)),
	)

	var sb strings.Builder

	if err := ast.Format(&sb, 2); err != nil {
		t.Fatalf("format error: %v", err)
	}

	want := `@level = "info";
return {
  "log-level": @level,
  "pretty": true,
  "items": [1, none],
  "page": p {
    id: "x",
    len([])
  }
};
`
	if sb.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", sb.String(), want)
	}

	reg := NewRegistry()
	reg.Register(RootModule, "len", 1, func(inv *Invocation) (Value, error) {
		items, err := inv.List(0)

		return NumberValue(float64(len(items))), err
	})

	v, err := Evaluate(t.Context(), sb.String(), reg, nil)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	got, _ := v.AsMap()
	if lvl, _ := got.Get("log-level"); FormatValue(lvl) != `"info"` {
		t.Errorf("expected log-level info, got %v", lvl)
	}
}
