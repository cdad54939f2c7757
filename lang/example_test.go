package lang_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ardnew/dioscript/lang"
)

func Example() {
	reg := lang.NewRegistry()
	reg.Register("string", "upper", 1, func(inv *lang.Invocation) (lang.Value, error) {
		s, err := inv.String(0)

		return lang.StringValue(strings.ToUpper(s)), err
	})

	rt := lang.New(reg)

	v, err := rt.Evaluate(context.Background(), `
		@items = ["alpha", "beta"];
		return ul {
			class: "menu",
			for @item in @items {
				return li { string::upper(@item) }
			}
		};`, nil)
	if err != nil {
		fmt.Println(err)

		return
	}

	el, _ := v.AsElement()
	fmt.Println(el.HTML())

	// Output:
	// <ul class="menu"><li>ALPHA</li><li>BETA</li></ul>
}

func ExampleRuntime_Evaluate_bindings() {
	rt := lang.New(nil)

	v, _ := rt.Evaluate(context.Background(),
		`return { greeting: "hello, " + @name, count: @n * 2 };`,
		map[string]lang.Value{
			"name": lang.StringValue("world"),
			"n":    lang.NumberValue(21),
		})

	fmt.Println(v)

	// Output:
	// { "greeting": "hello, world", "count": 42 }
}

func ExampleFormatError() {
	const source = "return div {\n  p { \"unclosed }\n};"

	_, err := lang.ParseString(context.Background(), source)

	fmt.Print(lang.FormatError(source, err))

	// Output:
	// lex error at 2:7: unterminated string
	//   2 |   p { "unclosed }
	//             ^
}

func ExampleFormatJSON() {
	v, _ := lang.ParseValue(`a { href: "/home", "Home" }`)

	_ = lang.FormatJSON(os.Stdout, v, 0)

	// Output:
	// {"tag":"a","attrs":{"href":"/home"},"children":["Home"]}
}

func ExampleBuilder() {
	b := lang.NewBuilder()

	ast := b.AST(b.Return(b.Map(
		b.Entry("log-level", b.String("info")),
		b.Entry("pretty", b.Bool(true)),
	)))

	_ = ast.Format(os.Stdout, 2)

	// Output:
	// return {
	//   "log-level": "info",
	//   "pretty": true
	// };
}
