package logx

import "fmt"

// Entry accumulates fields for a single log line. With* methods return a new
// Entry, so a shared base entry can be extended from several goroutines.
type Entry struct {
	logger *Logger
	fields Fields
	err    error
}

func newEntry(logger *Logger) *Entry {
	return &Entry{logger: logger}
}

func (e *Entry) clone(extra int) *Entry {
	fields := make(Fields, len(e.fields)+extra)
	for k, v := range e.fields {
		fields[k] = v
	}
	return &Entry{logger: e.logger, fields: fields, err: e.err}
}

// WithField adds a field to the entry
func (e *Entry) WithField(key string, value any) *Entry {
	next := e.clone(1)
	next.fields[key] = value
	return next
}

// WithFields adds multiple fields to the entry
func (e *Entry) WithFields(fields Fields) *Entry {
	next := e.clone(len(fields))
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

// WithError attaches an error to the entry
func (e *Entry) WithError(err error) *Entry {
	next := e.clone(0)
	next.err = err
	return next
}

// Trace logs at trace level
func (e *Entry) Trace(msg string) {
	e.logger.log(LevelTrace, msg, e.fields, e.err)
}

// Debug logs at debug level
func (e *Entry) Debug(msg string) {
	e.logger.log(LevelDebug, msg, e.fields, e.err)
}

// Info logs at info level
func (e *Entry) Info(msg string) {
	e.logger.log(LevelInfo, msg, e.fields, e.err)
}

// Warn logs at warn level
func (e *Entry) Warn(msg string) {
	e.logger.log(LevelWarn, msg, e.fields, e.err)
}

// Error logs at error level
func (e *Entry) Error(msg string) {
	e.logger.log(LevelError, msg, e.fields, e.err)
}

// Debugf logs formatted debug message
func (e *Entry) Debugf(format string, args ...any) {
	e.logger.log(LevelDebug, fmt.Sprintf(format, args...), e.fields, e.err)
}

// Infof logs formatted info message
func (e *Entry) Infof(format string, args ...any) {
	e.logger.log(LevelInfo, fmt.Sprintf(format, args...), e.fields, e.err)
}

// Warnf logs formatted warn message
func (e *Entry) Warnf(format string, args ...any) {
	e.logger.log(LevelWarn, fmt.Sprintf(format, args...), e.fields, e.err)
}

// Errorf logs formatted error message
func (e *Entry) Errorf(format string, args ...any) {
	e.logger.log(LevelError, fmt.Sprintf(format, args...), e.fields, e.err)
}
