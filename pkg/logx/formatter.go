package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	colorReset      = "\033[0m"
	colorRed        = "\033[31m"
	colorCyan       = "\033[36m"
	colorGray       = "\033[90m"
	colorWhite      = "\033[97m"
	colorBoldRed    = "\033[1;31m"
	colorBoldYellow = "\033[1;33m"
	colorBoldCyan   = "\033[1;36m"
	colorBoldGreen  = "\033[1;32m"
)

var levelColors = map[Level]string{
	LevelTrace: colorGray,
	LevelDebug: colorBoldCyan,
	LevelInfo:  colorBoldGreen,
	LevelWarn:  colorBoldYellow,
	LevelError: colorBoldRed,
	LevelFatal: colorBoldRed,
}

// ConsoleFormatter writes `time [LEVEL] message k=v ...` lines.
// Fields are printed in key order so lines are stable across runs.
type ConsoleFormatter struct {
	config *Config
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

// Format formats a log entry for console output
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.config.EnableTimestamp {
		f.paint(&b, colorGray, formatTimestamp(entry.Timestamp, f.config.TimeFormat))
		b.WriteByte(' ')
	}

	f.paint(&b, levelColors[entry.Level], fmt.Sprintf("[%-5s]", entry.Level.String()))
	b.WriteByte(' ')

	if f.config.EnableCaller && entry.Caller != "" {
		f.paint(&b, colorGray, "["+entry.Caller+"]")
		b.WriteByte(' ')
	}

	f.paint(&b, colorWhite, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, entry.Fields[k])
		}
		b.WriteByte(' ')
		f.paint(&b, colorCyan, strings.Join(pairs, " "))
	}

	if entry.Error != nil {
		b.WriteString("\n")
		f.paint(&b, colorRed, "  error: "+entry.Error.Error())
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *ConsoleFormatter) paint(b *strings.Builder, color, s string) {
	if !f.config.EnableColors || color == "" {
		b.WriteString(s)
		return
	}
	b.WriteString(color)
	b.WriteString(s)
	b.WriteString(colorReset)
}

// JSONFormatter formats logs as one JSON object per line
type JSONFormatter struct {
	config *Config
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]any, len(entry.Fields)+5)

	for k, v := range entry.Fields {
		data[k] = v
	}

	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if f.config.EnableTimestamp {
		switch f.config.TimeFormat {
		case "unix":
			data["timestamp"] = entry.Timestamp.Unix()
		case "unixmilli":
			data["timestamp"] = entry.Timestamp.UnixMilli()
		default:
			data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)
		}
	}

	if f.config.EnableCaller && entry.Caller != "" {
		data["caller"] = entry.Caller
	}

	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(bytes, '\n'), nil
}

func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return strconv.FormatInt(t.Unix(), 10)
	case "unixmilli":
		return strconv.FormatInt(t.UnixMilli(), 10)
	default:
		return t.Format(format)
	}
}
