package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

// Logger filters messages by level, with optional per-component overrides,
// and hands what passes to a zap core.
type Logger struct {
	mu            sync.RWMutex
	level         Level
	packageLevels map[string]Level
	zap           *zap.Logger
}

// Global logger instance
var defaultLogger *Logger

func init() {
	defaultLogger = New(WARN)
}

// New creates a logger writing human readable lines to stderr.
func New(level Level) *Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return NewWithCore(level, core)
}

// NewWithCore creates a logger on top of an arbitrary zap core.
func NewWithCore(level Level, core zapcore.Core) *Logger {
	return &Logger{
		level:         level,
		packageLevels: map[string]Level{},
		zap:           zap.New(core),
	}
}

// SetDefault replaces the global logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Zap exposes the underlying zap logger of the global logger, for libraries
// that want one.
func Zap() *zap.Logger {
	return defaultLogger.zap
}

// ParseLevel maps a config value ("debug", "info", ...) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// SetLevel sets the global logger level
func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defaultLogger.level = level
	defaultLogger.mu.Unlock()
}

// SetPackageLevels sets per-package level overrides.
// Keys match the [component] prefix used in log messages (e.g. "mpris", "registry", "daemon").
func SetPackageLevels(levels map[string]Level) {
	defaultLogger.mu.Lock()
	defaultLogger.packageLevels = levels
	defaultLogger.mu.Unlock()
}

// extractComponent returns the component name from a "[component] ..." message, or "".
func extractComponent(msg string) string {
	if len(msg) < 3 || msg[0] != '[' {
		return ""
	}
	end := strings.IndexByte(msg[1:], ']')
	if end < 0 {
		return ""
	}
	return msg[1 : end+1]
}

// shouldLog checks if a message at this level should be logged,
// applying a package-specific override when the message carries a [component] prefix.
func (l *Logger) shouldLog(level Level, msg string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pkg := extractComponent(msg); pkg != "" {
		if pkgLevel, ok := l.packageLevels[pkg]; ok {
			return level >= pkgLevel
		}
	}
	return level >= l.level
}

func (l *Logger) write(level Level, msg string, args []interface{}) {
	if !l.shouldLog(level, msg) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	switch level {
	case DEBUG:
		l.zap.Debug(formatted)
	case INFO:
		l.zap.Info(formatted)
	case WARN:
		l.zap.Warn(formatted)
	case ERROR:
		l.zap.Error(formatted)
	case FATAL:
		l.zap.Fatal(formatted)
	}
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	defaultLogger.write(DEBUG, msg, args)
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	defaultLogger.write(INFO, msg, args)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	defaultLogger.write(WARN, msg, args)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	defaultLogger.write(ERROR, msg, args)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, args ...interface{}) {
	defaultLogger.write(FATAL, msg, args)
}

// Sync flushes buffered entries.
func Sync() {
	_ = defaultLogger.zap.Sync()
}
