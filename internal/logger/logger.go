// Package logger wraps zerolog behind a small, option-driven surface
// shared by the CLI and the binary fetcher. The binding package itself
// stays log-free; everything around it logs through here.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog-backed structured logger.
type Logger struct {
	zlog zerolog.Logger
}

// Config selects level, format and destination.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

// DefaultConfig logs human-readable output at info level to stderr,
// the right default for a CLI tool.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

// New builds a logger from cfg; nil means DefaultConfig.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var zlog zerolog.Logger
	if cfg.Format == "console" {
		zlog = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
		}).With().Timestamp().Logger()
	} else {
		zlog = zerolog.New(out).With().Timestamp().Logger()
	}

	return &Logger{zlog: zlog.Level(parseLevel(cfg.Level))}
}

// parseLevel maps a config string onto a zerolog level, info when the
// string is unknown.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext attaches the logger to ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.zlog.WithContext(ctx)
}

// FromContext retrieves the logger attached to ctx, or a default
// logger when none is attached.
func FromContext(ctx context.Context) *Logger {
	zlog := zerolog.Ctx(ctx)
	if zlog.GetLevel() == zerolog.Disabled {
		return New(nil)
	}
	return &Logger{zlog: *zlog}
}

// With starts a child logger carrying extra fields.
func (l *Logger) With() *FieldContext {
	return &FieldContext{ctx: l.zlog.With()}
}

// FieldContext chains fields onto a child logger.
type FieldContext struct {
	ctx zerolog.Context
}

func (c *FieldContext) Str(key, val string) *FieldContext {
	c.ctx = c.ctx.Str(key, val)
	return c
}

func (c *FieldContext) Int(key string, val int) *FieldContext {
	c.ctx = c.ctx.Int(key, val)
	return c
}

func (c *FieldContext) Int64(key string, val int64) *FieldContext {
	c.ctx = c.ctx.Int64(key, val)
	return c
}

func (c *FieldContext) Dur(key string, val time.Duration) *FieldContext {
	c.ctx = c.ctx.Dur(key, val)
	return c
}

func (c *FieldContext) Err(err error) *FieldContext {
	c.ctx = c.ctx.Err(err)
	return c
}

func (c *FieldContext) Logger() *Logger {
	return &Logger{zlog: c.ctx.Logger()}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

func (l *Logger) Info(msg string) { l.zlog.Info().Msg(msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

func (l *Logger) Warn(msg string) { l.zlog.Warn().Msg(msg) }

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// ErrorWith logs msg with err and extra fields attached.
func (l *Logger) ErrorWith(msg string, err error, fields map[string]interface{}) {
	event := l.zlog.Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Nop returns a logger that discards everything, for tests and for
// callers that pass no logger.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}
