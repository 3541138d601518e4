package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SafeLogger wraps a zap logger so that calls on an uninitialized or nil
// logger are no-ops instead of panics.
type SafeLogger struct {
	logger *zap.Logger
}

// Logger is the global logger instance. It starts as a nop logger so packages
// can log before InitLogger runs (tests, init-time code).
var Logger = &SafeLogger{logger: zap.NewNop()}

// InitLogger builds the production logger and replaces the global one
func InitLogger() error {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logLevel)); err == nil {
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}

	zl, err := config.Build(
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", "app-leads"),
			zap.String("version", "v1"),
		),
	)
	if err != nil {
		return err
	}

	Logger = &SafeLogger{logger: zl}
	zap.ReplaceGlobals(zl)
	return nil
}

// New wraps an existing zap logger
func New(zl *zap.Logger) *SafeLogger {
	return &SafeLogger{logger: zl}
}

func (l *SafeLogger) Debug(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug(msg, fields...)
}

func (l *SafeLogger) Info(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Info(msg, fields...)
}

func (l *SafeLogger) Warn(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Warn(msg, fields...)
}

func (l *SafeLogger) Error(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Error(msg, fields...)
}

// Fatal logs and exits. With a nil logger it still exits.
func (l *SafeLogger) Fatal(msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		os.Exit(1)
	}
	l.logger.Fatal(msg, fields...)
}

// With returns a child logger carrying the given fields
func (l *SafeLogger) With(fields ...zap.Field) *SafeLogger {
	if l == nil {
		return nil
	}
	if l.logger == nil {
		return l
	}
	return &SafeLogger{logger: l.logger.With(fields...)}
}

// Unwrap returns the underlying zap logger, or a nop logger
func (l *SafeLogger) Unwrap() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

// Sync flushes buffered log entries
func (l *SafeLogger) Sync() error {
	if l == nil || l.logger == nil {
		return nil
	}
	return l.logger.Sync()
}
