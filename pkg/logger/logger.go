// Package logger configures log/slog for the command-line tools.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type runIDKey struct{}

// Setup installs the default logger on stderr. Stdout is left to command
// output such as the path of a results file.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter installs the default logger on w. format "json" selects the
// JSON handler, anything else the text handler. Debug level also records
// source positions.
func SetupWriter(w io.Writer, level, format string) {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithRunID tags ctx with the id of one indexing or ranking run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// FromContext returns the default logger, carrying run_id when ctx has one.
func FromContext(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		l = l.With("run_id", id)
	}
	return l
}

func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
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
