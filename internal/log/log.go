// Package log sets up the default slog logger and carries loggers through contexts.
package log

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

const loggerCtxKey ctxKey = "logger"

// Debug enables debug logging and writing of debug artifacts, eg
// snapshots of the page when a step fails.
var Debug bool

func level() slog.Level {
	if Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func InitializeDefaultLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level()}))
	slog.SetDefault(logger)
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// LoggerFromContext returns the logger stored in ctx or the default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
