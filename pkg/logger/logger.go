// Package logger provides structured logging for textreader
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// contextKey is the type for context keys
type contextKey string

const (
	// ReadIDKey is the context key for the id of one read operation
	ReadIDKey contextKey = "read_id"
	sourceKey contextKey = "source"
)

// Config represents logger configuration
type Config struct {
	Level       string
	Development bool
	Encoding    string // json or console
	OutputPaths []string
}

// Init initializes the global logger
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = newLogger(cfg)
	})
	return err
}

// newLogger builds a zap logger from cfg, filling in defaults
func newLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "json"
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.Development {
		logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return logger, nil
}

// Set replaces the global logger. Used by the CLI after flag parsing and by tests.
func Set(l *zap.Logger) {
	once.Do(func() {})
	globalLogger = l
}

// ContextWithRead annotates ctx with a read id and source identifier
func ContextWithRead(ctx context.Context, readID, source string) context.Context {
	ctx = context.WithValue(ctx, ReadIDKey, readID)
	return context.WithValue(ctx, sourceKey, source)
}

// Get returns the global logger, building an info-level JSON logger on
// stderr if Init was never called
func Get() *zap.Logger {
	if globalLogger == nil {
		if err := Init(Config{}); err != nil || globalLogger == nil {
			globalLogger = zap.NewNop()
		}
	}
	return globalLogger
}

// WithContext returns the global logger carrying the read id and source
// stored by ContextWithRead
func WithContext(ctx context.Context) *zap.Logger {
	logger := Get()
	if readID, ok := ctx.Value(ReadIDKey).(string); ok {
		logger = logger.With(zap.String("read_id", readID))
	}

	if src, ok := ctx.Value(sourceKey).(string); ok {
		logger = logger.With(zap.String("source", src))
	}

	return logger
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
