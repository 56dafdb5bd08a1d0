package logger

import (
	"context"
	"sync"
)

// LoggerContext accumulates attributes over the life of an operation so that
// later log lines carry everything learned earlier (ids resolved mid-way,
// counters, and so on).
type LoggerContext struct {
	mu     sync.RWMutex
	logger *Logger
}

// NewLoggerContext wraps logger so attributes can be added incrementally.
func NewLoggerContext(logger *Logger) *LoggerContext {
	return &LoggerContext{logger: logger}
}

// Add appends key/value pairs to every subsequent record.
func (lc *LoggerContext) Add(args ...any) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.logger = lc.logger.With(args...)
}

// Logger returns the logger with all attributes added so far.
func (lc *LoggerContext) Logger() *Logger {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return lc.logger
}

func (lc *LoggerContext) Debug(ctx context.Context, msg string, args ...any) {
	lc.Logger().write(ctx, LevelDebug, 3, msg, args...)
}

func (lc *LoggerContext) Info(ctx context.Context, msg string, args ...any) {
	lc.Logger().write(ctx, LevelInfo, 3, msg, args...)
}

func (lc *LoggerContext) Warn(ctx context.Context, msg string, args ...any) {
	lc.Logger().write(ctx, LevelWarn, 3, msg, args...)
}

func (lc *LoggerContext) Error(ctx context.Context, msg string, args ...any) {
	lc.Logger().write(ctx, LevelError, 3, msg, args...)
}
