package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

const timeLayout = "2006-01-02T15:04:05"

type Logger struct {
	out    *log.Logger
	closer io.Closer
	level  Level
	runID  string
}

// New writes to out. runID is stamped on every line so interleaved runs can be told apart.
func New(out io.Writer, level Level, runID string) *Logger {
	return &Logger{
		out:   log.New(out, "", 0),
		level: level,
		runID: runID,
	}
}

// Open appends to the log file at filePath, and echoes to stdout when includeStdout is set.
// An empty filePath logs to stdout only.
func Open(filePath string, level Level, includeStdout bool, runID string) (*Logger, error) {
	if filePath == "" {
		return New(os.Stdout, level, runID), nil
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	var out io.Writer = f
	if includeStdout {
		out = io.MultiWriter(f, os.Stdout)
	}

	l := New(out, level, runID)
	l.closer = f
	return l, nil
}

// Discard returns a logger that drops everything, for tests and quiet commands.
func Discard() *Logger {
	return New(io.Discard, LevelError+1, "")
}

func (l *Logger) log(lvl Level, prefix string, format string, v ...any) {
	if lvl < l.level {
		return
	}

	timestamp := time.Now().Format(timeLayout)
	msg := fmt.Sprintf(format, v...)

	l.out.Println(fmt.Sprintf("%s [%s] '%s' - %s", timestamp, prefix, l.runID, msg))
}

func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", lvl)
	}
}

// Enabled reports whether messages at lvl are written
func (l *Logger) Enabled(lvl Level) bool { return lvl >= l.level }

// RunID is the correlation id printed on each line
func (l *Logger) RunID() string { return l.runID }

func (l *Logger) Trace(f string, v ...any) { l.log(LevelTrace, "TRACE", f, v...) }
func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, "DEBUG", f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, "INFO", f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, "WARN", f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, "ERROR", f, v...) }

func (l *Logger) Write(p []byte) (n int, err error) {
	// http.Server and echo include a newline at the end
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		l.Info("%s", msg)
	}
	return len(p), nil
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
