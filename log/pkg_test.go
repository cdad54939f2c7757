package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

// useDefault replaces the package logger for the duration of a test.
func useDefault(t *testing.T, l Logger) {
	t.Helper()

	defaultMu.Lock()
	saved := defaultLog
	defaultLog = l
	defaultMu.Unlock()

	t.Cleanup(func() {
		defaultMu.Lock()
		defaultLog = saved
		defaultMu.Unlock()
	})
}

func TestPackage_Functions(t *testing.T) {
	var buf bytes.Buffer

	useDefault(t, Make(&buf, plain(FormatText)...))

	tests := []struct {
		name string
		fn   func(string, ...slog.Attr)
		want string
	}{
		{"Trace", Trace, "level=TRACE msg=m k=v\n"},
		{"Debug", Debug, "level=DEBUG msg=m k=v\n"},
		{"Info", Info, "level=INFO msg=m k=v\n"},
		{"Warn", Warn, "level=WARN msg=m k=v\n"},
		{"Error", Error, "level=ERROR msg=m k=v\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("m", slog.String("k", "v"))

			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestPackage_ContextFunctions(t *testing.T) {
	var buf bytes.Buffer

	useDefault(t, Make(&buf, plain(FormatText)...))

	fns := []func(context.Context, string, ...slog.Attr){
		TraceContext, DebugContext, InfoContext, WarnContext, ErrorContext,
	}

	for _, fn := range fns {
		fn(t.Context(), "m")
	}

	want := "level=TRACE msg=m\nlevel=DEBUG msg=m\nlevel=INFO msg=m\n" +
		"level=WARN msg=m\nlevel=ERROR msg=m\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestPackage_Config(t *testing.T) {
	var buf bytes.Buffer

	useDefault(t, Make(&buf, plain(FormatJSON)...))

	Config(WithFormat(FormatText), WithLevel(LevelError))

	Warn("dropped")
	With(slog.Int("n", 1)).Error("kept")

	if buf.String() != "level=ERROR msg=kept n=1\n" {
		t.Errorf("unexpected output %q", buf.String())
	}

	if Default().Format() != FormatText {
		t.Errorf("expected text format, got %v", Default().Format())
	}
}
