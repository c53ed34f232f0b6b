package logger

import (
	"log/slog"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

var (
	logger *slog.Logger
	base   *zap.Logger
	once   sync.Once
)

// Init initializes the global structured logger.
// ENV=production selects zap's JSON production encoder, anything else the
// human-readable development encoder.
func Init() {
	once.Do(func() {
		var err error
		if os.Getenv("ENV") == "production" {
			base, err = zap.NewProduction()
		} else {
			base, err = zap.NewDevelopment()
		}
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}

		logger = slog.New(zapslog.NewHandler(base.Core()))
		slog.SetDefault(logger)
	})
}

// L returns the global logger instance
func L() *slog.Logger {
	if logger == nil {
		Init()
	}
	return logger
}

// Or returns l when it is set, the global logger otherwise.
func Or(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return L()
}

// Sync flushes buffered log entries. Call before the process exits.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}

// Info is a shorthand for L().Info
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Error is a shorthand for L().Error
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// Debug is a shorthand for L().Debug
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Warn is a shorthand for L().Warn
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}
