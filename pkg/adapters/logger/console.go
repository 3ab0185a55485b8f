// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/lottiemp4/pkg/ports"
)

const (
	ansiReset = "\033[0m"
	ansiCyan  = "\033[36m"
)

// levelColors holds the ANSI color per level. Info is left uncolored.
var levelColors = [...]string{
	ports.LevelDebug: "\033[90m",
	ports.LevelInfo:  "",
	ports.LevelWarn:  "\033[33m",
	ports.LevelError: "\033[31m",
}

// ConsoleLogger logs messages to the console with color support.
// Debug and info go to the out writer, warnings and errors to the err writer.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool
	out       io.Writer
	err       io.Writer
	mu        *sync.Mutex
}

// NewConsole creates a console logger writing to stdout and stderr.
// Color output is automatically enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	return NewWriters(level, os.Stdout, os.Stderr)
}

// NewWriters creates a console logger writing to out and errOut.
// Color is enabled only when out is a terminal.
func NewWriters(level ports.LogLevel, out, errOut io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		level: level,
		color: isTerminal(out),
		out:   out,
		err:   errOut,
		mu:    &sync.Mutex{},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Level returns the minimum level that is written.
func (l *ConsoleLogger) Level() ports.LogLevel {
	return l.level
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.level > ports.LevelDebug {
		return
	}
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	if l.level > ports.LevelInfo {
		return
	}
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	if l.level > ports.LevelWarn {
		return
	}
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	if l.level > ports.LevelError {
		return
	}
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger sharing this logger's writers that prefixes
// messages with the component name.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	var b strings.Builder
	if l.component != "" {
		if l.color {
			b.WriteString(ansiCyan + "[" + l.component + "]" + ansiReset + " ")
		} else {
			b.WriteString("[" + l.component + "] ")
		}
	}
	b.WriteString(l10n.F(msg, args...))

	line := b.String()
	if l.color && int(level) < len(levelColors) && levelColors[level] != "" {
		line = levelColors[level] + line + ansiReset
	}

	w := l.out
	if level >= ports.LevelWarn {
		w = l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, line)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
