// Package logging package contains functionality for pinmux logging.
package logging

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalMu             sync.RWMutex
	globalLoggerRegistry = newRegistry()
	globalLogger         = NewDebugLogger("startup")
)

// ReplaceGlobal replaces the global loggers.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// UpdateLoggerRegistry applies logger level patterns to every logger created through NewLogger or
// NewDebugLogger and their subloggers, including ones created later.
func UpdateLoggerRegistry(logConfig []LoggerPatternConfig, errorLogger Logger) {
	globalLoggerRegistry.Update(logConfig, errorLogger)
}

// RegisteredLoggerNames returns the names of every logger patterns can apply to.
func RegisteredLoggerNames() []string {
	return globalLoggerRegistry.Names()
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	return newFromConfig(name, zap.InfoLevel)
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout in UTC.
func NewDebugLogger(name string) Logger {
	return newFromConfig(name, zap.DebugLevel)
}

// NewBlankLogger returns a new logger that drops everything it is given. Useful as a default
// when a caller does not care about log output.
func NewBlankLogger(name string) Logger {
	return &impl{name: name, level: zap.NewAtomicLevelAt(zap.DebugLevel), sugar: zap.NewNop().Sugar()}
}

func newFromConfig(name string, level zapcore.Level) Logger {
	config := NewLoggerConfig()
	// Levels are enforced per logger so the core lets everything through.
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoder(func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		zapcore.ISO8601TimeEncoder(t.UTC(), enc)
	})
	logger := &impl{
		name:     name,
		level:    zap.NewAtomicLevelAt(level),
		sugar:    zap.Must(config.Build(zap.AddCallerSkip(1))).Sugar().Named(name),
		registry: globalLoggerRegistry,
	}
	return globalLoggerRegistry.getOrRegister(name, logger)
}

// WithFileOutput returns a logger that writes everywhere logger does and also appends JSON lines
// to a size-rotated file at path. The returned closer releases the file.
func WithFileOutput(logger Logger, path string) (Logger, io.Closer, error) {
	imp, ok := logger.(*impl)
	if !ok {
		return nil, nil, errors.Errorf("cannot add file output to %T", logger)
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
	encoderConfig := NewLoggerConfig().EncoderConfig
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), zap.DebugLevel)
	sugar := imp.sugar.Desugar().WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})).Sugar()
	return &impl{name: imp.name, level: imp.level, sugar: sugar, registry: imp.registry}, rotator, nil
}

// NewTestLogger returns a new logger that outputs Debug+ logs to the test's log in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	testCore := zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel)).Core()
	return &impl{
		level: zap.NewAtomicLevelAt(zap.DebugLevel),
		sugar: zap.New(zapcore.NewTee(testCore, observerCore), zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}, observedLogs
}
