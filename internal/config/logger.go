package config

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger: colored text in development, JSON
// otherwise. LOG_FILE sends the JSON output to a rotating file instead of
// stderr.
func NewLogger() *slog.Logger {
	if Development() {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level: slog.LevelDebug,
		}))
	}

	var w io.Writer = os.Stderr
	if path, ok := os.LookupEnv("LOG_FILE"); ok && path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}
