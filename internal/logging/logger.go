// Package logging wraps the standard library's log package with the
// small amount of structure nimd needs: a per-component prefix and a
// debug level that can be silenced without touching call sites.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger writes prefixed lines through the standard library logger.
// It is safe for concurrent use since log.Logger serializes writes
// internally.
type Logger struct {
	std   *log.Logger
	debug bool
}

// New returns a Logger that tags every line with prefix, e.g. "nimd: "
// or "[GAME 3] ". debug controls whether Debugf lines are emitted.
func New(prefix string, debug bool) *Logger {
	return &Logger{
		std:   log.New(os.Stderr, prefix, log.LstdFlags),
		debug: debug,
	}
}

// Session returns a child logger tagging lines with the session index,
// matching the "[GAME %d]" convention of the original nim server.
func (l *Logger) Session(index int) *Logger {
	return &Logger{
		std:   log.New(os.Stderr, fmt.Sprintf("[GAME %d] ", index), log.LstdFlags),
		debug: l.debug,
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.std.Printf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.std.Printf("warn: "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.std.Printf("debug: "+format, args...)
}
