package internal

import (
	"log/slog"
	"os"
	"strings"
)

// LoggerFromString builds the process logger at the named level.
// Unknown levels fall back to INFO rather than failing startup.
func LoggerFromString(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = slog.LevelDebug
	case "WARN":
		l = slog.LevelWarn
	case "ERROR":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	return slog.New(handler)
}
