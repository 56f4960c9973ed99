// Package log is the service-wide structured logger (logrus).
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = newLogger(logrus.InfoLevel, os.Stderr)
)

type Fields = logrus.Fields

// Options configure the logger installed by Init.
type Options struct {
	Level string
	File  string // rotated log file; empty disables file output
}

// Init replaces the package logger. Safe to call more than once.
func Init(opts Options) *logrus.Logger {
	writers := []io.Writer{os.Stderr}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	l := newLogger(ParseLevel(opts.Level), io.MultiWriter(writers...))

	mu.Lock()
	logger = l
	mu.Unlock()
	return l
}

// SetOutput redirects the current logger, mainly for tests.
func SetOutput(w io.Writer) {
	current().SetOutput(w)
}

func newLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})
	l.SetOutput(out)
	l.SetReportCaller(true)
	return l
}

// ParseLevel converts "debug", "info", "warn", "error" to a logrus level.
// Unknown strings default to info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func current() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// ============================================================
// Helpers
// ============================================================

func Debug(fields Fields, msg string) {
	current().WithFields(orEmpty(fields)).Debug(msg)
}

func Info(fields Fields, msg string) {
	current().WithFields(orEmpty(fields)).Info(msg)
}

func Warn(fields Fields, msg string) {
	current().WithFields(orEmpty(fields)).Warn(msg)
}

func Error(fields Fields, msg string) {
	current().WithFields(orEmpty(fields)).Error(msg)
}

func Fatal(fields Fields, msg string) {
	current().WithFields(orEmpty(fields)).Fatal(msg)
}

// ErrorWithTraceID logs msg at error level and returns the trace id attached
// to the entry: the request id when present, otherwise a fresh uuid.
func ErrorWithTraceID(fields Fields, msg string) string {
	fields = orEmpty(fields)

	traceID, _ := fields["request_id"].(string)
	if traceID == "" {
		traceID = uuid.NewString()
	}

	fields["trace_id"] = traceID
	current().WithFields(fields).Error(msg)
	return traceID
}

func orEmpty(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}
