package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"aiarena/engine/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MatchIDField is the canonical structured logging field for match identifiers.
const MatchIDField = "match_id"

type contextKey string

var (
	loggerContextKey = contextKey("arena-logger")

	globalMu     sync.RWMutex
	globalLogger = newNopLogger()
)

// Field represents a structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// String returns a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Strings returns a string slice field.
func Strings(key string, values []string) Field { return Field{Key: key, Value: values} }

// Int returns an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Float64 returns a float field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Bool returns a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration returns a duration field.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Error returns an error field.
func Error(err error) Field { return Field{Key: "error", Value: err} }

// Logger wraps a zap logger behind the package's Field type so call sites never import zap directly.
type Logger struct {
	base *zap.Logger
}

func parseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

// New constructs a JSON logger writing to stdout and, when configured, to a file.
func New(cfg config.LoggingConfig) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	outputs := []string{"stdout"}
	if path := strings.TrimSpace(cfg.Path); path != "" {
		outputs = append(outputs, path)
	}
	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    encoderConfig(),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"service": "arena"},
	}
	base, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger := &Logger{base: base}
	ReplaceGlobals(logger)
	return logger, nil
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.MessageKey = "msg"
	enc.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(t.UTC().Format(time.RFC3339Nano))
	}
	enc.EncodeDuration = zapcore.StringDurationEncoder
	return enc
}

// FromZap adapts an existing zap logger, e.g. one built with zaptest or an observer core.
func FromZap(base *zap.Logger) *Logger {
	if base == nil {
		return newNopLogger()
	}
	return &Logger{base: base}
}

// NewTestLogger returns a logger that discards output, suitable for tests.
func NewTestLogger() *Logger {
	return newNopLogger()
}

func newNopLogger() *Logger {
	return &Logger{base: zap.NewNop()}
}

// ReplaceGlobals swaps the fallback logger used when no context logger is present.
func ReplaceGlobals(logger *Logger) {
	if logger == nil {
		return
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// L returns the current global logger.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// With augments the logger with additional structured fields.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return L().With(fields...)
	}
	return &Logger{base: l.base.With(toZap(fields)...)}
}

// Sync flushes buffered output to durable storage.
func (l *Logger) Sync() error {
	if l == nil || l.base == nil {
		return nil
	}
	return l.base.Sync()
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...Field) { l.zap().Debug(message, toZap(fields)...) }

// Info logs an informational message.
func (l *Logger) Info(message string, fields ...Field) { l.zap().Info(message, toZap(fields)...) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...Field) { l.zap().Warn(message, toZap(fields)...) }

// Error logs an error message.
func (l *Logger) Error(message string, fields ...Field) { l.zap().Error(message, toZap(fields)...) }

func (l *Logger) zap() *zap.Logger {
	if l == nil || l.base == nil {
		return L().base
	}
	return l.base
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		//1.- Drop unnamed fields rather than emitting an empty JSON key.
		if field.Key == "" {
			continue
		}
		switch value := field.Value.(type) {
		case string:
			out = append(out, zap.String(field.Key, value))
		case []string:
			out = append(out, zap.Strings(field.Key, value))
		case int:
			out = append(out, zap.Int(field.Key, value))
		case float64:
			out = append(out, zap.Float64(field.Key, value))
		case bool:
			out = append(out, zap.Bool(field.Key, value))
		case time.Duration:
			out = append(out, zap.Duration(field.Key, value))
		case error:
			out = append(out, zap.NamedError(field.Key, value))
		default:
			out = append(out, zap.Any(field.Key, value))
		}
	}
	return out
}

// ContextWithLogger stores a logger in the provided context.
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext retrieves a logger from context or falls back to the global logger.
func LoggerFromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return L()
	}
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok && logger != nil {
		return logger
	}
	return L()
}

// WithMatch derives a logger tagged with the match identifier and stores it in the context.
func WithMatch(ctx context.Context, base *Logger, matchID string) (context.Context, *Logger) {
	if base == nil {
		base = L()
	}
	derived := base.With(String(MatchIDField, matchID))
	return ContextWithLogger(ctx, derived), derived
}
