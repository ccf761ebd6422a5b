package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a logger writing to stdout.
func New(lvl string, addSource bool, mode string) *slog.Logger {
	return NewWithWriter(os.Stdout, lvl, addSource, mode)
}

// NewWithWriter returns a logger writing to w. Development mode gets the
// text handler; every other mode is assumed to feed a log collector and
// gets JSON.
func NewWithWriter(w io.Writer, lvl string, addSource bool, mode string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(lvl),
		AddSource: addSource,
	}

	var handler slog.Handler
	if strings.ToLower(mode) == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("mode", mode),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
