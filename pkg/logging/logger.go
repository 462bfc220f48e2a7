package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunLogFile is the name of the log file written into a run's logs directory.
const RunLogFile = "coreexp.log"

// NewJSONLogger creates a new JSON logger
func NewJSONLogger(writer io.Writer, level Level) *JSONLogger {
	return &JSONLogger{
		writer: writer,
		level:  &levelVar{level: level},
		fields: make([]Field, 0),
		mu:     &sync.Mutex{},
	}
}

// NewStdoutLogger creates a logger that writes to stdout
func NewStdoutLogger(level Level) *JSONLogger {
	return NewJSONLogger(os.Stdout, level)
}

// NewRunLogger creates a logger writing to stdout and to RunLogFile inside
// logDir. The returned closer releases the file.
func NewRunLogger(logDir string, level Level) (*JSONLogger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, RunLogFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return NewJSONLogger(io.MultiWriter(os.Stdout, f), level), f, nil
}

// LevelFromEnv reads LOG_LEVEL, falling back to def when unset.
func LevelFromEnv(def Level) Level {
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		return ParseLevel(s)
	}
	return def
}

func (l *JSONLogger) log(level Level, msg string, fields ...Field) {
	if !l.Enabled(level) {
		return
	}

	fieldMap := make(map[string]any, len(l.fields)+len(fields))
	for _, f := range l.fields {
		fieldMap[f.Key] = f.Value
	}
	for _, f := range fields {
		fieldMap[f.Key] = f.Value
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if len(fieldMap) > 0 {
		entry.Fields = fieldMap
	}

	data, err := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.writer, "[ERROR] Failed to marshal log entry: %v\n", err)
		return
	}
	data = append(data, '\n')
	l.writer.Write(data)
}

// Trace logs a trace-level message
func (l *JSONLogger) Trace(msg string, fields ...Field) {
	l.log(TraceLevel, msg, fields...)
}

// Debug logs a debug-level message
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info-level message
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning-level message
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error-level message
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With creates a child logger sharing the writer and level
func (l *JSONLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &JSONLogger{
		writer: l.writer,
		level:  l.level,
		fields: newFields,
		mu:     l.mu,
	}
}

// Enabled reports whether messages at level pass the filter
func (l *JSONLogger) Enabled(level Level) bool {
	return level >= l.GetLevel()
}

// SetLevel sets the minimum log level for this logger and its children
func (l *JSONLogger) SetLevel(level Level) {
	l.level.mu.Lock()
	defer l.level.mu.Unlock()
	l.level.level = level
}

// GetLevel returns the current log level
func (l *JSONLogger) GetLevel() Level {
	l.level.mu.RLock()
	defer l.level.mu.RUnlock()
	return l.level.level
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}

// End logs the operation at info level with its duration and returns it
func (t *TimedOperation) End(fields ...Field) time.Duration {
	elapsed := time.Since(t.start)
	all := append(append([]Field{}, t.fields...), fields...)
	t.logger.Info(t.msg, append(all, Latency(elapsed))...)
	return elapsed
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) time.Duration {
	elapsed := time.Since(t.start)
	all := append([]Field{}, t.fields...)
	t.logger.Error(t.msg, append(all, Latency(elapsed), Error(err))...)
	return elapsed
}
