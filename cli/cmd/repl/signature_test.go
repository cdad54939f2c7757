package repl

import (
	"testing"

	"github.com/ardnew/dioscript/lang"
	"github.com/ardnew/dioscript/lang/stdlib"
)

func TestEnclosingCall(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   call
		wantOK bool
	}{
		{"no_call", "@x + 1", 6, call{}, false},
		{"open_paren", "len(", 4, call{"len", 0}, true},
		{"first_arg", "len(@x", 6, call{"len", 0}, true},
		{"second_arg", "string::repeat(@s, ", 19, call{"string::repeat", 1}, true},
		{"nested_call", "string::join(list::map(@a, ", 27, call{"list::map", 1}, true},
		{"after_nested", "string::join(len(@a), ", 22, call{"string::join", 1}, true},
		{"comma_in_list", "string::join([1, 2, 3", 21, call{"string::join", 0}, true},
		{"comma_in_string", `string::split("a,b", `, 21, call{"string::split", 1}, true},
		{"escaped_quote", `len("a\",`, 9, call{"len", 0}, true},
		{"closed", "len(@x) + 1", 11, call{}, false},
		{"grouping", "(1 + 2", 6, call{}, false},
		{"keyword", "if (", 4, call{}, false},
		{"cursor_mid", "len(@x)", 5, call{"len", 0}, true},
		{"comment", "len( # a, b\n", 12, call{"len", 0}, true},
		{"method", "@s.len(", 7, call{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := enclosingCall(tt.input, tt.cursor)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("enclosingCall(%q, %d) = %+v, %v; want %+v, %v",
					tt.input, tt.cursor, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLookupCall(t *testing.T) {
	reg := stdlib.NewRegistry()

	tests := []struct {
		name  string
		want  string
		arity int
		ok    bool
	}{
		{"len", "std::len", 1, true},
		{"string::replace", "string::replace", 3, true},
		{"print", "std::print", lang.Variadic, true},
		{"nope", "", 0, false},
		{"string::nope", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := lookupCall(reg, call{name: tt.name})
			if ok != tt.ok {
				t.Fatalf("lookupCall(%q) ok = %v", tt.name, ok)
			}

			if ok && (fn.String() != tt.want || fn.Arity != tt.arity) {
				t.Errorf("lookupCall(%q) = %s/%d, want %s/%d",
					tt.name, fn, fn.Arity, tt.want, tt.arity)
			}
		})
	}
}

func TestRenderSignature(t *testing.T) {
	replace := &lang.Function{Module: "string", Name: "replace", Arity: 3}
	printFn := &lang.Function{Module: lang.RootModule, Name: "print", Arity: lang.Variadic}

	tests := []struct {
		fn   *lang.Function
		arg  int
		want string
	}{
		{replace, 1, "string::replace(arg1, arg2, arg3)"},
		{replace, 3, "string::replace(arg1, arg2, arg3)  too many arguments"},
		{printFn, 4, "std::print(args...)"},
	}

	for _, tt := range tests {
		if got := renderSignature(tt.fn, tt.arg); got != tt.want {
			t.Errorf("renderSignature(%s, %d) = %q, want %q", tt.fn, tt.arg, got, tt.want)
		}
	}
}
