package obs

import (
	"io"
	"log/slog"
	"strings"
)

// InitLogger installs a JSON slog logger writing to w as the process default.
func InitLogger(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is treated as info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
