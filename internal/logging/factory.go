package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported values for the log format setting.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatZap  = "zap"
)

// New builds a Logger for the given format and level ("debug", "info",
// "warn", "error"). slog formats write to w; zap uses its production
// encoder on stderr.
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)}))), nil
	case FormatText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)}))), nil
	case FormatZap:
		cfg := zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			lvl = zapcore.InfoLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		l, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("zap init: %w", err)
		}
		return NewZapLogger(l), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func slogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Discard returns a Logger that drops everything. Handy for tests and for
// components constructed without a logger.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
