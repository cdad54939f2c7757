package repl

import (
	"strconv"
	"strings"

	"github.com/ardnew/dioscript/lang"
)

// call describes the innermost function call enclosing the cursor.
type call struct {
	name string // as written: "len" or "string::upper"
	arg  int    // zero-based index of the argument under the cursor
}

// nesting is an open bracket seen while scanning for the enclosing call.
type nesting struct {
	open  byte
	start int
	args  int
}

// enclosingCall finds the call whose argument list contains cursor. String
// literals and comments are skipped. Commas nested in lists, maps or blocks
// do not advance the argument index.
func enclosingCall(input string, cursor int) (call, bool) {
	cursor = min(max(cursor, 0), len(input))

	var stack []nesting

	for i := 0; i < cursor; i++ {
		switch c := input[i]; c {
		case '"':
			i = skipString(input, i, cursor)

		case '#', '/':
			if c == '/' && !strings.HasPrefix(input[i:], "//") {
				continue
			}

			for i < cursor && input[i] != '\n' {
				i++
			}

		case '(', '[', '{':
			stack = append(stack, nesting{open: c, start: i})

		case ')', ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].args++
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i]
		if n.open != '(' {
			continue
		}

		name, start, _ := wordBounds(input, n.start)
		if name == "" || strings.HasPrefix(name, "@") || lang.IsKeyword(name) ||
			(start > 0 && input[start-1] == '.') {
			return call{}, false
		}

		return call{name: name, arg: n.args}, true
	}

	return call{}, false
}

// skipString returns the index of the quote closing the string literal
// opened at input[open], or limit when it is not closed before limit.
func skipString(input string, open, limit int) int {
	for i := open + 1; i < limit; i++ {
		switch input[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}

	return limit
}

// lookupCall resolves the function named by c.
func lookupCall(reg *lang.Registry, c call) (*lang.Function, bool) {
	module, name, qualified := strings.Cut(c.name, "::")
	if !qualified {
		module, name = lang.RootModule, c.name
	}

	fn, err := reg.Lookup(module, name)

	return fn, err == nil
}

// renderSignature renders fn with its parameters numbered, highlighting the
// parameter at index arg.
func renderSignature(fn *lang.Function, arg int) string {
	var params []string

	switch {
	case fn.Arity == lang.Variadic:
		params = []string{"args..."}
		arg = 0

	default:
		for i := range fn.Arity {
			params = append(params, "arg"+strconv.Itoa(i+1))
		}
	}

	var b strings.Builder

	b.WriteString(hintStyle.Render(fn.String() + "("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(hintStyle.Render(", "))
		}

		if i == arg {
			b.WriteString(paramStyle.Render(p))
		} else {
			b.WriteString(hintStyle.Render(p))
		}
	}

	b.WriteString(hintStyle.Render(")"))

	if fn.Arity != lang.Variadic && arg >= fn.Arity {
		b.WriteString(errorStyle.Render("  too many arguments"))
	}

	return b.String()
}
