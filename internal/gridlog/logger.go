// Package gridlog provides the small level-gated logger used by
// gridlock's cmd/ commands and the grid package's optional debug event
// tracing, modeled on the teacher's rpc/common/logger.go formatting
// logger but without any dependency on dragonboat's logger.ILogger
// interface (that dependency was dropped along with dragonboat itself;
// see DESIGN.md).
package gridlog

import (
	"fmt"
	"log"
	"os"
)

// Level controls which calls a Logger actually writes. Levels are
// ordered from least to most verbose; a Logger at level L writes every
// call at L or below.
type Level int

const (
	Error Level = iota
	Warning
	Info
	Debug
)

// ParseLevel parses the CLI/config spelling of a log level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "error":
		return Error, nil
	case "warn", "warning":
		return Warning, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	default:
		return 0, fmt.Errorf("gridlog: unknown level %q (want debug, info, warn, or error)", s)
	}
}

// Logger writes "LEVEL | component | msg" lines to stdout, gated by a
// configured Level.
type Logger struct {
	name  string
	level Level
	std   *log.Logger
}

// New creates a Logger for the named component at the given level.
func New(name string, level Level) *Logger {
	return &Logger{
		name:  name,
		level: level,
		std:   log.New(os.Stdout, "", log.Ldate|log.Ltime),
	}
}

// SetLevel changes the most verbose level this Logger writes.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level >= Debug {
		l.write("DEBUG", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.level >= Info {
		l.write("INFO", format, args...)
	}
}

func (l *Logger) Warningf(format string, args ...any) {
	if l.level >= Warning {
		l.write("WARN", format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	if l.level >= Error {
		l.write("ERROR", format, args...)
	}
}

func (l *Logger) write(levelStr, format string, args ...any) {
	l.std.Printf("%-5s | %-15s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}
