package compiler

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger provides verbose output for compilation and cache decisions.
// Loggers derived with With share one writer and may be used concurrently.
type Logger struct {
	enabled bool
	prefix  string
	sink    *sink
}

type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewLogger creates a new logger instance writing to stderr.
func NewLogger(enabled bool) *Logger {
	return &Logger{
		enabled: enabled,
		prefix:  "[trre]",
		sink:    &sink{out: os.Stderr},
	}
}

// SetOutput sets the output writer for the logger and every logger derived
// from it.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	l.sink.out = w
	l.sink.mu.Unlock()
}

// With returns a logger tagging its lines with component, e.g. "[trre:dft]".
// With on a nil logger returns nil.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		enabled: l.enabled,
		prefix:  l.prefix[:len(l.prefix)-1] + ":" + component + "]",
		sink:    l.sink,
	}
}

// Log prints a formatted message if verbose mode is enabled.
func (l *Logger) Log(format string, args ...interface{}) {
	if l.Enabled() {
		l.write(l.prefix + " " + fmt.Sprintf(format, args...) + "\n")
	}
}

// Section prints a section header if verbose mode is enabled.
func (l *Logger) Section(name string) {
	if l.Enabled() {
		l.write("\n" + l.prefix + " === " + name + " ===\n")
	}
}

func (l *Logger) write(s string) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	io.WriteString(l.sink.out, s)
}

// Enabled returns whether the logger is enabled. A nil logger is disabled.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}
