package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	currentLevel LogLevel
	levelOnce    sync.Once
	levelMu      sync.RWMutex
)

// initLevel initializes the log level from environment variables
func initLevel() {
	levelOnce.Do(func() {
		level := ParseLevel(os.Getenv("LOG_LEVEL"))

		// DEBUG wins over LOG_LEVEL
		switch strings.ToLower(os.Getenv("DEBUG")) {
		case "1", "true", "yes", "on":
			level = LevelDebug
		}

		levelMu.Lock()
		currentLevel = level
		levelMu.Unlock()
	})
}

// ParseLevel maps a level name to a LogLevel. Unknown names map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	levelMu.RLock()
	defer levelMu.RUnlock()
	return currentLevel
}

// SetLevel overrides the level read from the environment.
func SetLevel(l LogLevel) {
	initLevel()
	levelMu.Lock()
	currentLevel = l
	levelMu.Unlock()
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logAt(level LogLevel, tag, prefix, format string, args ...interface{}) {
	if GetLevel() > level {
		return
	}
	log.Printf(tag+prefix+format, args...)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	logAt(LevelDebug, "[DEBUG] ", "", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logAt(LevelInfo, "[INFO] ", "", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logAt(LevelWarn, "[WARN] ", "", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logAt(LevelError, "[ERROR] ", "", format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Logger tags every message with a component name, e.g.
// "[DEBUG] scheduler: admitted 3".
type Logger struct {
	prefix string
}

// For returns a Logger for the named component.
func For(component string) *Logger {
	return &Logger{prefix: component + ": "}
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	logAt(LevelDebug, "[DEBUG] ", l.prefix, format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	logAt(LevelInfo, "[INFO] ", l.prefix, format, args...)
}

// Warn logs at warning level.
func (l *Logger) Warn(format string, args ...interface{}) {
	logAt(LevelWarn, "[WARN] ", l.prefix, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	logAt(LevelError, "[ERROR] ", l.prefix, format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
