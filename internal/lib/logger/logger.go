// Package logger собирает *slog.Logger по настройкам окружения.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/magabrotheeeer/isp-manager/internal/config"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// New создаёт логгер: текстовый формат для local, JSON для dev и prod.
// Если в конфиге задан файл, вывод идёт в него с ротацией, иначе в stderr.
func New(env string, cfg config.Log) *slog.Logger {
	return NewWithWriter(env, cfg, output(cfg))
}

// NewWithWriter то же, что New, но пишет в переданный writer.
func NewWithWriter(env string, cfg config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	switch env {
	case envDev, envProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		if env == envLocal && cfg.Level == "" {
			opts.Level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

func output(cfg config.Log) io.Writer {
	if cfg.File == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
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

// Discard возвращает логгер, который ничего не пишет. Удобен в тестах.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
