// ABOUTME: Logger contract consumed by the gateway worker and its collaborators.
// ABOUTME: SlogLogger adapts log/slog, adding an emergency level above error.

package synlib

import (
	"context"
	"errors"
	"log/slog"
)

// LevelEmergency sits above slog.LevelError and marks worker crashes.
const LevelEmergency = slog.Level(12)

// Logger is what the gateway needs from its host's logging setup.
type Logger interface {
	Debug(line string)
	Emergency(line string)
	LogException(err error)
}

// SlogLogger implements Logger on top of a *slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger falls back to slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Debug logs line at debug level.
func (l *SlogLogger) Debug(line string) {
	l.logger.Debug(line)
}

// Emergency logs line at LevelEmergency.
func (l *SlogLogger) Emergency(line string) {
	l.logger.Log(context.Background(), LevelEmergency, line)
}

// LogException logs an uncaught error. Recovered panics also carry their stack.
func (l *SlogLogger) LogException(err error) {
	var perr *PanicError
	if errors.As(err, &perr) {
		l.logger.Error("uncaught panic", "error", perr.Error(), "stack", string(perr.Stack))
		return
	}
	l.logger.Error("uncaught error", "error", err)
}

// Slog returns the underlying structured logger.
func (l *SlogLogger) Slog() *slog.Logger {
	return l.logger
}
