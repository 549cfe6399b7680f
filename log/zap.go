package log

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// thin wrapper around zap so callers don't import zap directly

type (
	Field  = zap.Field
	Level  = zapcore.Level
	Option = zap.Option
)

const (
	DebugLevel = zap.DebugLevel
	InfoLevel  = zap.InfoLevel
	WarnLevel  = zap.WarnLevel
	ErrorLevel = zap.ErrorLevel
	FatalLevel = zap.FatalLevel
)

var (
	Skip       = zap.Skip
	Binary     = zap.Binary
	Bool       = zap.Bool
	Duration   = zap.Duration
	Float64    = zap.Float64
	Float32    = zap.Float32
	Int        = zap.Int
	Int64      = zap.Int64
	Int32      = zap.Int32
	Uint       = zap.Uint
	Uint64     = zap.Uint64
	Uint32     = zap.Uint32
	String     = zap.String
	Stringer   = zap.Stringer
	Time       = zap.Time
	Any        = zap.Any
	ErrorField = zap.Error

	WithCaller    = zap.WithCaller
	AddStacktrace = zap.AddStacktrace
	AddCallerSkip = zap.AddCallerSkip
)

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

// Logger wraps a zap.Logger together with its configured level.
type Logger struct {
	l     *zap.Logger
	level Level
}

// New creates a production logger (JSON encoding) writing to w.
func New(w io.Writer, level Level, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.AddSync(w),
		level)
	return &Logger{l: zap.New(core, opts...), level: level}
}

// DevLogger creates a console logger for development use.
func DevLogger(w io.Writer, level Level, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.StampMilli)
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(w),
		level)
	return &Logger{l: zap.New(core, opts...), level: level}
}

// DevLoggerWithRules creates a console logger whose output is restricted by
// zapfilter rules (for example "debug:sim.* info:*").
func DevLoggerWithRules(w io.Writer, level Level, rules string, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.StampMilli)
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(w),
		level)
	filtered := zapfilter.NewFilteringCore(core, zapfilter.MustParseRules(rules))
	return &Logger{l: zap.New(filtered, opts...), level: level}
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) WithOptions(opts ...Option) *Logger {
	return &Logger{l: l.l.WithOptions(opts...), level: l.level}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Debugf(template string, args ...any) { l.l.Sugar().Debugf(template, args...) }
func (l *Logger) Infof(template string, args ...any)  { l.l.Sugar().Infof(template, args...) }
func (l *Logger) Errorf(template string, args ...any) { l.l.Sugar().Errorf(template, args...) }
func (l *Logger) Fatalf(template string, args ...any) { l.l.Sugar().Fatalf(template, args...) }

func (l *Logger) Sync() error { return l.l.Sync() }

var std = DevLogger(os.Stderr, InfoLevel)

func Default() *Logger { return std }

// ResetDefault replaces the default logger used by the package-level helpers.
func ResetDefault(l *Logger) {
	std = l
}

func Debug(msg string, fields ...Field) { std.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { std.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { std.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { std.Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { std.Fatal(msg, fields...) }

func Fatalf(template string, args ...any) { std.Fatalf(template, args...) }

type ctxKey struct{}

// AddToContext stores the logger in the context.
func AddToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// GetFromContext returns the logger stored in ctx or the default logger.
func GetFromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return std
}
