package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Emrix/digistar-qlcplus-dmx-integration/internal/platform/correlation"
)

// Logger is the process-wide logger, also installed as slog's default.
var Logger *slog.Logger

// InitLogger installs a stdout logger. level is one of debug, info, warn or
// error (anything else means info); format is "json" or "text".
func InitLogger(level, format string) {
	Logger = New(os.Stdout, level, format)
	slog.SetDefault(Logger)
}

// New builds a correlation-aware logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(correlation.NewHandler(handler))
}

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
