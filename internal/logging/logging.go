// Package logging provides debug-gated file logging. When COMGEN_DEBUG is not
// set every call is a silent no-op, so interactive output stays clean.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger wraps a standard logger writing to the debug log file.
type Logger struct {
	logger *log.Logger
}

var (
	instance *Logger
	once     sync.Once
)

// Get returns the process-wide logger. The first call decides the sink:
// ~/.comgen/comgen.log (or $COMGEN_HOME/.comgen/comgen.log) when COMGEN_DEBUG
// is set, io.Discard otherwise.
func Get() *Logger {
	once.Do(func() {
		instance = &Logger{logger: log.New(openSink(), "", log.LstdFlags)}
	})
	return instance
}

func openSink() io.Writer {
	if os.Getenv("COMGEN_DEBUG") == "" {
		return io.Discard
	}

	dir := os.Getenv("COMGEN_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return io.Discard
		}
		dir = home
	}

	path := filepath.Join(dir, ".comgen", "comgen.log")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return io.Discard
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return io.Discard
	}
	return f
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}
