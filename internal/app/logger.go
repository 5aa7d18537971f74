package app

import (
	"io"
	"log/slog"
)

// logLevels maps the CLI's validated level names onto slog levels. A
// name outside the map yields the zero slog.Level, which is info.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the engine's logger instance. It never touches the
// process-global default, so tests and embedders keep isolated loggers.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevels[level]}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
