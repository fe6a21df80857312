// Package logger provides leveled logging for tollgate.
// Debug and info messages are only printed in verbose mode (--verbose).
// Warnings and errors are always printed.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured key/value pairs attached to a log line.
type Fields = logrus.Fields

const sectionKey = "_section"

var std = newLogger(os.Stderr)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&lineFormatter{})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// lineFormatter renders "[LEVEL] message key=value ..." with no timestamp.
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	if _, ok := e.Data[sectionKey]; ok {
		fmt.Fprintf(&b, "\n=== %s ===\n", e.Message)
		return b.Bytes(), nil
	}

	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(levelName(e.Level)), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "warn"
	}
	return l.String()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	if v {
		std.SetLevel(logrus.DebugLevel)
		return
	}
	std.SetLevel(logrus.WarnLevel)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	return std.IsLevelEnabled(logrus.DebugLevel)
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Logger returns the underlying logrus logger for libraries that take one.
func Logger() *logrus.Logger {
	return std
}

// WithFields returns an entry that attaches fields to every line it logs.
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	std.Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	std.WithField(sectionKey, true).Debug(name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	std.Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	std.Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	std.Errorf(format, args...)
}
