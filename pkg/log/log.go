// Package log configures the process-wide structured logger shared by the
// api, worker and scheduler binaries.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default slog logger. Level matching is case-insensitive
// and unknown levels fall back to info. Setting LOG_FORMAT=json switches the
// handler to JSON for log collectors; the default is text for terminals.
func Setup(logLevel string) {
	level := ParseLevel(logLevel)
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, options)
	} else {
		handler = slog.NewTextHandler(os.Stderr, options)
	}

	slog.SetDefault(slog.New(handler).With("service", "stratagem"))
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
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

// WithModule returns the default logger tagged with the subsystem name. Every
// long-lived component logs through one of these.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
