package logging

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dukerupert/chorechart/internal/config"
)

// Setup creates a configured *slog.Logger writing to console, and also to a
// rotating file when cfg.File is set. It sets the logger as the default and
// returns it with a close func for the file writer.
func Setup(cfg config.LogConfig, console io.Writer) (*slog.Logger, func() error) {
	out := console
	closeFn := func() error { return nil }
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			LocalTime:  true,
		}
		out = io.MultiWriter(console, file)
		closeFn = file.Close
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn
}

// ParseLevel accepts "debug", "info", "warn", "error" (case-insensitive).
// Defaults to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
