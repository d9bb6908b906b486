package logx

import "strings"

// Level represents logging level
type Level uint8

const (
	// LevelTrace is the most verbose level
	LevelTrace Level = iota
	// LevelDebug for debugging information
	LevelDebug
	// LevelInfo for informational messages
	LevelInfo
	// LevelWarn for warning messages
	LevelWarn
	// LevelError for error messages
	LevelError
	// LevelFatal for fatal messages (will exit)
	LevelFatal
	// LevelOff disables all logging
	LevelOff
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "OFF"}

// String returns the string representation of the log level
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel parses a string into a Level, falling back to INFO
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Enabled reports whether target is logged when l is the minimum level
func (l Level) Enabled(target Level) bool {
	return l != LevelOff && l <= target
}
