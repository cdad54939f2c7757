// Package log is a thin leveled layer over [log/slog].
//
// A [Logger] is built once from functional options and never changes
// afterwards; [Logger.Wrap] and [Logger.With] return new loggers. The zero
// Logger discards every record, so it can be embedded in option structs
// without initialization.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Info("rendered", slog.Int("bytes", n))
//
// # Levels
//
// The levels of [log/slog] are extended with [LevelTrace] for high-volume
// diagnostics such as per-call interpreter events.
//
// # Pretty output
//
// With [WithPretty] enabled (the default), records are styled with
// lipgloss. Colors are only emitted when the output is a terminal, so
// pretty records written to files or buffers are plain text.
//
// # Package logger
//
// The package-level functions log through a shared Logger that writes to
// standard error. [Config] reconfigures it.
package log
