package lang

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/dioscript/log"
)

// testRegistry returns a registry with helpers exercising the host
// function interface.
func testRegistry() *Registry {
	reg := NewRegistry()

	reg.Register(RootModule, "len", 1, func(inv *Invocation) (Value, error) {
		items, err := inv.List(0)
		if err != nil {
			return None, err
		}

		return NumberValue(float64(len(items))), nil
	})

	reg.Register("t", "inc", 1, func(inv *Invocation) (Value, error) {
		n, err := inv.Number(0)
		if err != nil {
			return None, err
		}

		return NumberValue(n + 1), nil
	})

	reg.Register("t", "count", Variadic, func(inv *Invocation) (Value, error) {
		return NumberValue(float64(len(inv.Args))), nil
	})

	reg.Register("t", "apply", 2, func(inv *Invocation) (Value, error) {
		return inv.Invoke(inv.Args[0], inv.Args[1])
	})

	reg.Register("t", "recurse", 1, func(inv *Invocation) (Value, error) {
		return inv.Invoke(inv.Args[0], inv.Args[0])
	})

	reg.Register("t", "eval", 1, func(inv *Invocation) (Value, error) {
		src, err := inv.String(0)
		if err != nil {
			return None, err
		}

		return inv.Evaluate(src, map[string]Value{"v": NumberValue(2)})
	})

	reg.Register("t", "fail", 0, func(*Invocation) (Value, error) {
		return None, errors.New("boom")
	})

	return reg
}

func evaluate(t *testing.T, source string, opts ...Option) (Value, error) {
	t.Helper()

	return New(testRegistry(), opts...).Evaluate(t.Context(), source, nil)
}

func mustEvaluate(t *testing.T, source string, opts ...Option) Value {
	t.Helper()

	v, err := evaluate(t, source, opts...)
	if err != nil {
		t.Fatalf("evaluate %q: %v", source, err)
	}

	return v
}

func TestEvaluate_ElementFromLoop(t *testing.T) {
	got := mustEvaluate(t,
		`@a = [1, 2, 3]; return div { for @i in @a { return p { @i } } };`)

	want := NewElement("div")
	for _, n := range []float64{1, 2, 3} {
		p := NewElement("p")
		p.Append(NumberValue(n))
		want.Append(ElementValue(p))
	}

	if !Equal(got, ElementValue(want)) {
		t.Fatalf("expected %v, got %v", ElementValue(want), got)
	}

	el, _ := got.AsElement()
	if el.Attrs.Len() != 0 {
		t.Errorf("expected no attributes, got %d", el.Attrs.Len())
	}

	if html := el.HTML(); html != "<div><p>1</p><p>2</p><p>3</p></div>" {
		t.Errorf("unexpected HTML %q", html)
	}
}

func TestEvaluate_Reassignment(t *testing.T) {
	got := mustEvaluate(t, `@x = 1; @x = 2; return @x;`)

	if n, ok := got.AsNumber(); !ok || n != 2 {
		t.Errorf("expected 2, got %v", got)
	}
}

func TestEvaluate_NoReturn(t *testing.T) {
	for _, src := range []string{``, `@x = 1;`, `return;`, `if false { return 1 }`} {
		if got := mustEvaluate(t, src); !got.IsNone() {
			t.Errorf("%q: expected none, got %v", src, got)
		}
	}
}

func TestEvaluate_Expressions(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`1 + 2 * 3`, `7`},
		{`(1 + 2) * 3`, `9`},
		{`10 - 4 - 3`, `3`},
		{`10 / 4`, `2.5`},
		{`7 % 3`, `1`},
		{`-(2)`, `-2`},
		{`"a" + "b"`, `"ab"`},
		{`2 >= 2`, `true`},
		{`1 == "1"`, `false`},
		{`none == none`, `true`},
		{`[1, {a: 1}] == [1, {a: 1}]`, `true`},
		{`{a: 1, b: 2} == {b: 2, a: 1}`, `true`},
		{`p { "x" } != p { "y" }`, `true`},
		{`!true`, `false`},
		{`true && false || true`, `true`},
		{`false && @undefined`, `false`},
		{`true || @undefined`, `true`},
		{`[1, 2, 3][-1]`, `3`},
		{`"héllo"[1]`, `"é"`},
		{`{a: 1}["a"]`, `1`},
		{`{a: 1}["b"]`, `none`},
		{`[if true { return 1 }, if false { return 2 }]`, `[1]`},
		{`t::count()`, `0`},
		{`t::count(1, "a", none)`, `3`},
		{`len([1, 2])`, `2`},
		{`std::len([])`, `0`},
		{`t::inc`, `t::inc`},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got := mustEvaluate(t, "return "+tt.source+";")

			if s := FormatValue(got); s != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s)
			}
		})
	}
}

func TestEvaluate_CollectingContexts(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "loop skips iterations without return",
			source: `return [for @i in [1, 2, 3] { if @i != 2 { return @i * 10 } }];`,
			want:   `[10, 30]`,
		},
		{
			name:   "if without branch contributes nothing",
			source: `return div { if false { return "x" } };`,
			want:   `div {}`,
		},
		{
			name:   "branch without return contributes nothing",
			source: `return div { if true { "x" } };`,
			want:   `div {}`,
		},
		{
			name:   "else branch",
			source: `return ul { if false { return 1 } else if true { return 2 } else { return 3 } };`,
			want:   `ul { 2 }`,
		},
		{
			name:   "while collects each returning iteration",
			source: `@n = 0; return [while @n < 3 { @n = @n + 1; return @n }];`,
			want:   `[1, 2, 3]`,
		},
		{
			name:   "mixed children keep order",
			source: `return div { id: "x", "a", for @i in [1, 2] { return @i }, "b" };`,
			want:   `div { id: "x", "a", 1, 2, "b" }`,
		},
		{
			name:   "loop in expression position is a list",
			source: `@xs = for @i in [1, 2] { return @i + 1 }; return @xs;`,
			want:   `[2, 3]`,
		},
		{
			name:   "if in expression position",
			source: `@x = if false { return 1 }; return @x;`,
			want:   `none`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := FormatValue(mustEvaluate(t, tt.source)); s != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s)
			}
		})
	}
}

func TestEvaluate_ReturnPropagation(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "return from loop",
			source: `for @i in [1, 2, 3] { if @i == 2 { return "found" } } return "missing";`,
			want:   `"found"`,
		},
		{
			name:   "return from while",
			source: `@n = 0; while true { @n = @n + 1; if @n == 5 { return @n } }`,
			want:   `5`,
		},
		{
			name:   "statements after return are skipped",
			source: `@x = 1; if true { return @x; @x = 2 } return 3;`,
			want:   `1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := FormatValue(mustEvaluate(t, tt.source)); s != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s)
			}
		})
	}
}

func TestEvaluate_Scoping(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"assignment updates enclosing binding", `@x = 1; if true { @x = 2 } return @x;`, `2`},
		{"loop variable shadows", `@i = "outer"; for @i in [1, 2] {} return @i;`, `"outer"`},
		{"while updates counter", `@n = 0; while @n < 3 { @n = @n + 1 } return @n;`, `3`},
		{"inner declaration", `if true { @y = 1; return @y }`, `1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := FormatValue(mustEvaluate(t, tt.source)); s != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s)
			}
		})
	}

	for _, src := range []string{
		`if true { @y = 1 } return @y;`,
		`for @i in [1] {} return @i;`,
	} {
		if _, err := evaluate(t, src); !errors.Is(err, ErrName) {
			t.Errorf("%q: expected ErrName once the block exits, got %v", src, err)
		}
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		source string
		kind   *Error
	}{
		{`return 1 + "a";`, ErrType},
		{`return 1 / 0;`, ErrType},
		{`return 1 % 0;`, ErrType},
		{`return "a" < "b";`, ErrType},
		{`return "b" >= "a";`, ErrType},
		{`return 1e308 * 10;`, ErrType},
		{`return -1e308 - 1e308;`, ErrType},
		{`return !1;`, ErrType},
		{`return -"a";`, ErrType},
		{`return 1 && true;`, ErrType},
		{`return true && 1;`, ErrType},
		{`return [1][5];`, ErrType},
		{`return [1][0.5];`, ErrType},
		{`return {a: 1}[0];`, ErrType},
		{`return 5[0];`, ErrType},
		{`if 1 {}`, ErrType},
		{`while "yes" {}`, ErrType},
		{`for @i in 5 {}`, ErrType},
		{`return len(5);`, ErrType},
		{`return @missing;`, ErrName},
		{`return nope::fn();`, ErrName},
		{`return t::nope();`, ErrName},
		{`return t::nope;`, ErrName},
		{`return missing();`, ErrName},
		{`return t::inc();`, ErrArity},
		{`return t::apply(t::inc, 1, 2);`, ErrArity},
		{`return t::apply(1, 2);`, ErrType},
		{`return t::fail();`, ErrHost},
		{`return 1 +;`, ErrSyntax},
		{`return "open;`, ErrLex},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := evaluate(t, tt.source)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}

			if !got.IsNone() {
				t.Errorf("expected no value on error, got %v", got)
			}
		})
	}
}

func TestEvaluate_ErrorPosition(t *testing.T) {
	_, err := evaluate(t, "@a = 1;\nreturn @b;")

	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %v", err)
	}

	if p := ee.Position(); p.Line != 2 || p.Column != 8 {
		t.Errorf("expected 2:8, got %v", p)
	}

	if !strings.Contains(err.Error(), "undefined variable @b") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestEvaluate_ArityCheckedBeforeCall(t *testing.T) {
	calls := 0

	reg := NewRegistry()
	reg.Register("m", "two", 2, func(*Invocation) (Value, error) {
		calls++

		return None, nil
	})

	_, err := Evaluate(t.Context(), `return m::two(1);`, reg, nil)
	if !errors.Is(err, ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}

	if calls != 0 {
		t.Errorf("expected function not to run, ran %d time(s)", calls)
	}

	if !strings.Contains(err.Error(), "expects 2 argument(s), found 1") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestEvaluate_HostErrors(t *testing.T) {
	_, err := evaluate(t, `return t::fail();`)

	if !errors.Is(err, ErrHost) {
		t.Fatalf("expected ErrHost, got %v", err)
	}

	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}

	_, err = evaluate(t, `return t::inc("x");`)
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType from argument check, got %v", err)
	}

	if !strings.Contains(err.Error(), "argument 1 of t::inc: expected number, found string") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestEvaluate_HostCallback(t *testing.T) {
	got := mustEvaluate(t, `return t::apply(t::inc, 41);`)

	if n, _ := got.AsNumber(); n != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestEvaluate_NestedEvaluate(t *testing.T) {
	got := mustEvaluate(t, `return t::eval("return @v * 21;");`)

	if n, _ := got.AsNumber(); n != 42 {
		t.Errorf("expected 42, got %v", got)
	}

	// The nested script cannot see the caller's variables.
	_, err := evaluate(t, `@secret = 1; return t::eval("return @secret;");`)
	if !errors.Is(err, ErrName) {
		t.Errorf("expected ErrName, got %v", err)
	}
}

func TestEvaluate_DepthLimit(t *testing.T) {
	_, err := evaluate(t, `return t::recurse(t::recurse);`, WithMaxDepth(16))
	if !errors.Is(err, ErrRuntimeLimit) {
		t.Fatalf("expected ErrRuntimeLimit, got %v", err)
	}

	source := strings.Repeat("if true { ", 30) + "return 1" + strings.Repeat(" }", 30)

	ast, err := ParseString(t.Context(), source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	_, err = New(nil, WithMaxDepth(10)).Run(t.Context(), ast, nil)
	if !errors.Is(err, ErrRuntimeLimit) {
		t.Errorf("expected ErrRuntimeLimit for nested blocks, got %v", err)
	}

	got, err := New(nil).Run(t.Context(), ast, nil)
	if err != nil {
		t.Fatalf("expected default depth to suffice: %v", err)
	}

	if n, _ := got.AsNumber(); n != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}

func TestEvaluate_IterationLimit(t *testing.T) {
	_, err := evaluate(t, `while true {}`, WithMaxIterations(100))
	if !errors.Is(err, ErrRuntimeLimit) {
		t.Fatalf("expected ErrRuntimeLimit, got %v", err)
	}

	// Nested evaluations draw from the same budget.
	_, err = evaluate(t,
		`for @i in [1, 2, 3] { t::eval("for @j in [1, 2, 3] {}") }`,
		WithMaxIterations(10))
	if !errors.Is(err, ErrRuntimeLimit) {
		t.Errorf("expected shared iteration budget to be exhausted, got %v", err)
	}

	if _, err := evaluate(t, `for @i in [1, 2, 3] {}`, WithMaxIterations(3)); err != nil {
		t.Errorf("expected exactly 3 iterations to be allowed, got %v", err)
	}
}

func TestEvaluate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(nil).Evaluate(ctx, `while true {}`, nil)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestEvaluate_Bindings(t *testing.T) {
	bindings := map[string]Value{"name": StringValue("x"), "n": NumberValue(1)}
	rt := New(nil)

	got, err := rt.Evaluate(t.Context(), `@n = 2; return @name + "!";`, bindings)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if s, _ := got.AsString(); s != "x!" {
		t.Errorf("expected x!, got %v", got)
	}

	if n, _ := bindings["n"].AsNumber(); n != 1 {
		t.Errorf("expected caller bindings to be unchanged, got %v", bindings["n"])
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	const source = `@m = {b: 1, a: 2}; return div { class: "c", for @i in [1, 2] { return @m } };`

	first := mustEvaluate(t, source)
	second := mustEvaluate(t, source)

	if !Equal(first, second) || FormatValue(first) != FormatValue(second) {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}

func TestRuntime_Concurrent(t *testing.T) {
	rt := New(testRegistry())

	var wg sync.WaitGroup

	errs := make(chan error, 16)

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := rt.Evaluate(t.Context(),
				`@s = 0; for @i in [1, 2, 3, 4] { @s = @s + @i } return @s + @k;`,
				map[string]Value{"k": NumberValue(float64(i))})
			if err != nil {
				errs <- err

				return
			}

			if n, _ := got.AsNumber(); n != float64(10+i) {
				errs <- errors.New("unexpected result " + FormatValue(got))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRuntime_Logging(t *testing.T) {
	var buf strings.Builder

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false))

	rt := New(testRegistry(), WithLogger(logger))

	if _, err := rt.Evaluate(t.Context(), `return t::inc(1);`, nil); err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	out := buf.String()

	for _, msg := range []string{"parse complete", "call", "evaluation complete"} {
		if !strings.Contains(out, `"msg":"`+msg+`"`) {
			t.Errorf("expected %q in log output:\n%s", msg, out)
		}
	}
}

func TestEvaluateReader(t *testing.T) {
	got, err := New(nil).EvaluateReader(t.Context(), strings.NewReader(`return "ok";`), nil)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if s, _ := got.AsString(); s != "ok" {
		t.Errorf("expected ok, got %v", got)
	}
}

func TestEvaluate_ArgumentsBeforeLookup(t *testing.T) {
	tests := []struct {
		source string
		kind   *Error
		calls  int
	}{
		{`return nope::f(t::side());`, ErrName, 1},
		{`return t::nope(t::side(), t::side());`, ErrName, 2},
		{`return t::inc(t::side(), t::side());`, ErrArity, 2},
		{`return nope::f(@missing, t::side());`, ErrName, 0},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			calls := 0

			reg := testRegistry()
			reg.Register("t", "side", 0, func(*Invocation) (Value, error) {
				calls++

				return None, nil
			})

			_, err := New(reg).Evaluate(t.Context(), tt.source, nil)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}

			if calls != tt.calls {
				t.Errorf("argument evaluated %d times, want %d", calls, tt.calls)
			}
		})
	}
}

func TestEvaluate_FieldsAndMethods(t *testing.T) {
	reg := testRegistry()
	reg.Register("list", "first", 1, func(inv *Invocation) (Value, error) {
		items, err := inv.List(0)
		if err != nil || len(items) == 0 {
			return None, err
		}

		return items[0], nil
	})
	reg.Register("number", "add", 2, func(inv *Invocation) (Value, error) {
		a, err := inv.Number(0)
		if err != nil {
			return None, err
		}

		b, err := inv.Number(1)

		return NumberValue(a + b), err
	})

	rt := New(reg)

	tests := []struct {
		source string
		want   string
	}{
		{`p { id: "x", "a", b {} }.name`, `"p"`},
		{`p { id: "x" }.attributes`, `{ "id": "x" }`},
		{`p { "a", b {} }.content`, `["a", b {}]`},
		{`p { "a", b {} }.content[1].tag`, `"b"`},
		{`p {}.attrs`, `{}`},
		{`[5, 6].first()`, `5`},
		{`[[7]].first().first()`, `7`},
		{`1.add(2).add(3)`, `6`},
		{`(1 + 1).add(1)`, `3`},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := rt.Evaluate(t.Context(), "return "+tt.source+";", nil)
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if s := FormatValue(got); s != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s)
			}
		})
	}

	errs := []struct {
		source string
		kind   *Error
	}{
		{`return p {}.missing;`, ErrName},
		{`return [1].name;`, ErrType},
		{`return "s".nope();`, ErrName},
		{`return [1].first(2);`, ErrArity},
		{`return @missing.first();`, ErrName},
	}

	for _, tt := range errs {
		t.Run(tt.source, func(t *testing.T) {
			if _, err := rt.Evaluate(t.Context(), tt.source, nil); !errors.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}
