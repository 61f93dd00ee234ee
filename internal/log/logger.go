package log

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zap logger that runs its hooks before every write.
type Logger struct {
	logger *zap.Logger
	level  zap.AtomicLevel

	mu    sync.RWMutex
	hooks []Hook
}

// New creates a logger from config.
func New(cfg Config) *Logger {
	level := zap.NewAtomicLevelAt(parseLevel(cfg))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, writeSyncer(cfg), level)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}

	return &Logger{
		logger: logger,
		level:  level,
		hooks:  []Hook{HookFunc(contextFields)},
	}
}

// NewWithCore wraps an existing zap core, tests use it with zaptest/observer.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{
		logger: zap.New(core),
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
		hooks:  []Hook{HookFunc(contextFields)},
	}
}

// NewNop returns a logger that discards everything, used by tests.
func NewNop() *Logger {
	return &Logger{
		logger: zap.NewNop(),
		level:  zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

func parseLevel(cfg Config) zapcore.Level {
	if cfg.Debug {
		return zapcore.DebugLevel
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zapcore.InfoLevel
	}

	return level
}

func writeSyncer(cfg Config) zapcore.WriteSyncer {
	switch cfg.Output {
	case "file":
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxAge:     cfg.File.MaxAge,
			MaxBackups: cfg.File.MaxBackups,
			LocalTime:  cfg.File.LocalTime,
			Compress:   cfg.File.Compress,
		})
	case "stdio", "stdout":
		return zapcore.Lock(os.Stdout)
	default:
		return zapcore.Lock(os.Stderr)
	}
}

func (l *Logger) AddHook(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hooks = append(l.hooks, hook)
}

func (l *Logger) applyHooks(ctx context.Context, msg string, fields []Field) []Field {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, hook := range l.hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.write(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *Logger) write(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	if !l.level.Enabled(level) {
		return
	}

	fields = l.applyHooks(ctx, msg, fields)

	if ce := l.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *Logger) Sync() error {
	return l.logger.Sync()
}

var global atomic.Pointer[Logger]

//nolint:gochecknoinits // default logger.
func init() {
	global.Store(New(DefaultConfig()))
}

func SetGlobalConfig(cfg Config) {
	global.Store(New(cfg))
}

func SetGlobalLogger(logger *Logger) {
	global.Store(logger)
}

func GetGlobalLogger() *Logger {
	return global.Load()
}

func DebugEnabled(_ context.Context) bool {
	return global.Load().DebugEnabled()
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	global.Load().Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	global.Load().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	global.Load().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	global.Load().Error(ctx, msg, fields...)
}
