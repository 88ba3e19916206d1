// Package log wraps zap with context-aware structured logging.
//
// All logging functions take a context as the first argument; registered
// hooks extract request-scoped fields (trace id, operation name) from it.
package log

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures the process logger.
type Config struct {
	Name   string `conf:"name" yaml:"name" json:"name"`
	Level  string `conf:"level" yaml:"level" json:"level"`
	Format string `conf:"format" yaml:"format" json:"format"`

	// File enables rotating file output when set; stderr otherwise.
	File       string `conf:"file" yaml:"file" json:"file"`
	MaxSizeMB  int    `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `conf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
}

// Logger is a context-aware structured logger.
type Logger struct {
	zl    *zap.Logger
	hooks []Hook
}

// New builds a Logger from config.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder

	switch cfg.Format {
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("log: unsupported format %q", cfg.Format)
	}

	var sink zapcore.WriteSyncer
	if cfg.File != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}

	zl := zap.New(zapcore.NewCore(enc, sink, level))
	if cfg.Name != "" {
		zl = zl.Named(cfg.Name)
	}

	return &Logger{
		zl:    zl,
		hooks: []Hook{HookFunc(traceFields)},
	}, nil
}

// AddHook registers a context hook. Not safe to call after logging starts.
func (l *Logger) AddHook(h Hook) {
	l.hooks = append(l.hooks, h)
}

func (l *Logger) apply(ctx context.Context, msg string, fields []Field) []Field {
	for _, h := range l.hooks {
		fields = h.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zl.Debug(msg, l.apply(ctx, msg, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zl.Info(msg, l.apply(ctx, msg, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zl.Warn(msg, l.apply(ctx, msg, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zl.Error(msg, l.apply(ctx, msg, fields)...)
}

func (l *Logger) Sync() error {
	return l.zl.Sync()
}

var defaultLogger = mustDefault()

func mustDefault() *Logger {
	l, err := New(Config{Level: "info"})
	if err != nil {
		panic(err)
	}

	return l
}

// SetDefault replaces the process-wide logger. Call once during startup.
func SetDefault(l *Logger) {
	defaultLogger = l
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	defaultLogger.Error(ctx, msg, fields...)
}
