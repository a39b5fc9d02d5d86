// Package logger provides a shared logging facade for trackersync backed by zap.
//
// Call sites use the package-level functions (logger.Infof, logger.Errorf, ...)
// so that command wiring stays free of logger plumbing. Initialize must be
// called once at startup; the zero state falls back to a no-op logger so that
// library tests do not have to initialize logging.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel is the environment variable controlling the log level
// (debug, info, warn, error). Defaults to info.
const EnvLogLevel = "TRACKERSYNC_LOG_LEVEL"

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Option configures Initialize.
type Option func(*settings)

type settings struct {
	level   zapcore.Level
	logFile string
}

// WithLevel sets the minimum level emitted.
func WithLevel(level zapcore.Level) Option {
	return func(s *settings) {
		s.level = level
	}
}

// WithLogFile tees JSON-encoded output to the given file path in addition to
// the console. An empty path disables the tee.
func WithLogFile(path string) Option {
	return func(s *settings) {
		s.logFile = path
	}
}

// ParseLevel converts a level string to a zap level, defaulting to info for
// empty or unrecognized values.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelFromEnv reads EnvLogLevel and parses it.
func LevelFromEnv() zapcore.Level {
	return ParseLevel(os.Getenv(EnvLogLevel))
}

// Initialize configures the process-wide logger. Console output goes to
// stderr to keep stdout clean for commands that print data.
func Initialize(opts ...Option) error {
	s := &settings{level: zapcore.InfoLevel}
	for _, opt := range opts {
		opt(s)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			s.level,
		),
	}

	if s.logFile != "" {
		f, err := os.OpenFile(s.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(f),
			s.level,
		))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCallerSkip(1))

	mu.Lock()
	log = l.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes buffered log entries. Safe to call on a no-op logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs at debug level.
func Debug(args ...any) { sugar().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { sugar().Debugf(format, args...) }

// Debugw logs a message with structured fields at debug level.
func Debugw(msg string, keysAndValues ...any) { sugar().Debugw(msg, keysAndValues...) }

// Info logs at info level.
func Info(args ...any) { sugar().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { sugar().Infof(format, args...) }

// Infow logs a message with structured fields at info level.
func Infow(msg string, keysAndValues ...any) { sugar().Infow(msg, keysAndValues...) }

// Warn logs at warn level.
func Warn(args ...any) { sugar().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { sugar().Warnf(format, args...) }

// Warnw logs a message with structured fields at warn level.
func Warnw(msg string, keysAndValues ...any) { sugar().Warnw(msg, keysAndValues...) }

// Error logs at error level.
func Error(args ...any) { sugar().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { sugar().Errorf(format, args...) }

// Errorw logs a message with structured fields at error level.
func Errorw(msg string, keysAndValues ...any) { sugar().Errorw(msg, keysAndValues...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { sugar().Fatalf(format, args...) }
