package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every error returned by this package is derived from one of these, so
// errors.Is(err, ErrName) identifies the kind regardless of the position,
// detail or attributes attached to it.
var (
	ErrLex          = NewError("lex error")
	ErrSyntax       = NewError("syntax error")
	ErrName         = NewError("name error")
	ErrType         = NewError("type error")
	ErrArity        = NewError("arity error")
	ErrRuntimeLimit = NewError("runtime limit exceeded")
	ErrHost         = NewError("host function failed")
	ErrReadInput    = NewError("failed to read input")
	ErrCanceled     = NewError("evaluation canceled")
)

// Error represents an error with a kind, an optional source position and
// optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind   *Error
	msg    string
	detail string
	err    error       // Wrapped error (for errors.Unwrap)
	pos    Position    // Best-available source position
	attrs  []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error kind with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message is built from the parts that are set, in order:
//
//	"<msg> at <line>:<col>: <detail>: <cause>"
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	head := e.msg
	if e.pos.IsValid() {
		if head == "" {
			head = "at " + e.pos.String()
		} else {
			head += " at " + e.pos.String()
		}
	}

	if head != "" {
		part = append(part, head)
	}

	if e.detail != "" {
		part = append(part, e.detail)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.kind == nil {
		return false
	}

	return e.kind == t.kind
}

// Kind returns the sentinel this error was derived from, or nil for errors
// created with [WrapError] from a foreign error.
func (e *Error) Kind() *Error { return e.kind }

// Position returns the source position attached to the error.
func (e *Error) Position() Position { return e.pos }

// Detail returns the human-readable detail attached with [Error.Detailf].
func (e *Error) Detail() string { return e.detail }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.pos.IsValid() {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

func (e *Error) clone() *Error {
	c := *e
	c.attrs = slices.Clip(e.attrs)

	return &c
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = append(c.attrs, attrs...)

	return c
}

// WithPosition returns a copy of the error located at pos.
func (e *Error) WithPosition(pos Position) *Error {
	c := e.clone()
	c.pos = pos

	return c
}

// Detailf returns a copy of the error carrying a formatted detail message.
func (e *Error) Detailf(format string, args ...any) *Error {
	c := e.clone()
	c.detail = fmt.Sprintf(format, args...)

	return c
}

// at attaches pos only when the error has no position yet.
func (e *Error) at(pos Position) *Error {
	if e.pos.IsValid() {
		return e
	}

	return e.WithPosition(pos)
}

// FormatError renders err with an excerpt of source pointing at the
// error position, when err carries one:
//
//	syntax error at 2:7: expected '}', found end of input
//	  2 | div { p {
//	            ^
func FormatError(source string, err error) string {
	var ee *Error
	if !errors.As(err, &ee) || !ee.pos.IsValid() {
		return err.Error()
	}

	var buf strings.Builder

	buf.WriteString(err.Error())
	buf.WriteByte('\n')

	lines := strings.Split(source, "\n")
	if ee.pos.Line > len(lines) {
		return buf.String()
	}

	num := strconv.Itoa(ee.pos.Line)

	buf.WriteString("  ")
	buf.WriteString(num)
	buf.WriteString(" | ")
	buf.WriteString(lines[ee.pos.Line-1])
	buf.WriteByte('\n')

	// 2 leading spaces + " | " (3 chars)
	buf.WriteString(strings.Repeat(" ", len(num)+5+max(ee.pos.Column-1, 0)))
	buf.WriteString("^\n")

	return buf.String()
}
