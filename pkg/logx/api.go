package logx

import (
	"fmt"
	"io"
)

var defaultLogger = NewLogger(LoadFromEnv())

// SetDefaultLogger replaces the logger used by the package-level functions
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

// GetDefaultLogger returns the default logger
func GetDefaultLogger() *Logger {
	return defaultLogger
}

// SetLevel sets the log level for the default logger
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the output for the default logger
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// Debug logs a debug level message
func Debug(msg string) {
	defaultLogger.log(LevelDebug, msg, nil, nil)
}

// Info logs an info level message
func Info(msg string) {
	defaultLogger.log(LevelInfo, msg, nil, nil)
}

// Warn logs a warning level message
func Warn(msg string) {
	defaultLogger.log(LevelWarn, msg, nil, nil)
}

// Error logs an error level message
func Error(msg string) {
	defaultLogger.log(LevelError, msg, nil, nil)
}

// Infof logs a formatted info message
func Infof(format string, args ...any) {
	defaultLogger.log(LevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...any) {
	defaultLogger.log(LevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...any) {
	defaultLogger.log(LevelError, fmt.Sprintf(format, args...), nil, nil)
}

// Fatalf logs a formatted fatal message and exits
func Fatalf(format string, args ...any) {
	defaultLogger.log(LevelFatal, fmt.Sprintf(format, args...), nil, nil)
	defaultLogger.exit(1)
}

// WithField creates a new entry on the default logger with a single field
func WithField(key string, value any) *Entry {
	return defaultLogger.WithField(key, value)
}

// WithFields creates a new entry on the default logger with fields
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithError creates a new entry on the default logger with an error
func WithError(err error) *Entry {
	return defaultLogger.WithError(err)
}
