// Package applog provides the structured logging setup shared by the
// command entrypoint and the fuzzing driver.
package applog

import (
	"log/slog"
	"os"
)

// Setup creates a structured slog.Logger with JSON output to stdout, the
// same shape every component in this module receives by constructor
// injection rather than reaching for a package-level singleton.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
