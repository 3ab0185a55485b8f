package mocks

import (
	"fmt"
	"sync"

	"github.com/user/lottiemp4/pkg/ports"
)

// Logger records formatted messages per level.
type Logger struct {
	mu       sync.Mutex
	Messages map[ports.LogLevel][]string
}

// NewLogger creates a recording logger.
func NewLogger() *Logger {
	return &Logger{Messages: make(map[ports.LogLevel][]string)}
}

func (l *Logger) record(level ports.LogLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages[level] = append(l.Messages[level], fmt.Sprintf(msg, args...))
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.record(ports.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.record(ports.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.record(ports.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.record(ports.LevelError, msg, args...) }

// WithComponent returns the same logger so that all messages are recorded together.
func (l *Logger) WithComponent(component string) ports.Logger {
	return l
}

// Count returns the number of messages recorded at level.
func (l *Logger) Count(level ports.LogLevel) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Messages[level])
}

var _ ports.Logger = (*Logger)(nil)
