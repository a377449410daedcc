package framework

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the interface for debug output from harness components. It deliberately has
// the same shape as log.Logger's Println/Printf so a standard logger can satisfy it.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

// NullLogger returns a Logger that discards all output.
func NullLogger() Logger { return nullLogger{} }

type writerLogger struct {
	w io.Writer
}

// WriterLogger returns a Logger that writes timestamped lines to w.
func WriterLogger(w io.Writer) Logger { return writerLogger{w} }

func (l writerLogger) Println(args ...interface{}) {
	m := strings.TrimRight(fmt.Sprintln(args...), "\r\n") // Sprintln appends a newline
	_, _ = fmt.Fprintf(l.w, "[%s] %s\n", time.Now().Format(timestampFormat), m)
}

func (l writerLogger) Printf(message string, args ...interface{}) {
	_, _ = fmt.Fprintf(l.w, "[%s] %s\n", time.Now().Format(timestampFormat),
		fmt.Sprintf(message, args...))
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix returns a Logger that prepends a fixed prefix to every message before
// delegating to baseLogger.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}
