package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the application logger and sets it as the slog default.
// format is "text" (development, with source locations) or "json".
func New(format, level string) *slog.Logger {
	logger := NewWithWriter(os.Stdout, format, level)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter is New without touching the default logger.
func NewWithWriter(w io.Writer, format, level string) *slog.Logger {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     ParseLevel(level),
			AddSource: true,
		})
	}
	return slog.New(handler)
}

// ParseLevel maps debug/info/warn/error to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
